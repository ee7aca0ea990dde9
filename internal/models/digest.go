package models

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Digest returns a BLAKE3 hex digest of an encoded document.
// It is used as ETag on exports and in save logs.
func Digest(encoded []byte) string {
	sum := blake3.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
