package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// JSONBinBackend keeps the document in a JSONBin.io style bin:
// GET <base>/<bin>/latest answers {"record": <document>} and
// PUT <base>/<bin> replaces it. Requests carry the X-Master-Key secret.
type JSONBinBackend struct {
	client  *http.Client
	baseURL string
	binID   string
	key     string
}

// NewJSONBinBackend creates a JSONBin backend. A nil client uses http.DefaultClient.
func NewJSONBinBackend(client *http.Client, baseURL, binID, key string) *JSONBinBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &JSONBinBackend{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		binID:   binID,
		key:     key,
	}
}

func (b *JSONBinBackend) binURL() string {
	return b.baseURL + "/" + b.binID
}

func (b *JSONBinBackend) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.binURL()+"/latest", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Master-Key", b.key)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jsonbin get: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrDocumentNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("jsonbin get: unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Record json.RawMessage `json:"record"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("jsonbin get: decode envelope: %w", err)
	}
	if len(envelope.Record) == 0 {
		// a bin without record is read as an empty document
		return []byte("{}"), nil
	}
	return envelope.Record, nil
}

func (b *JSONBinBackend) Put(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, b.binURL(), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", b.key)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("jsonbin put: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusForbidden, http.StatusRequestEntityTooLarge:
		// JSONBin answers 403 when a bin outgrows the plan limit
		return ErrPayloadTooLarge
	default:
		return fmt.Errorf("jsonbin put: unexpected status %d", resp.StatusCode)
	}
}

func (b *JSONBinBackend) Close() error { return nil }
