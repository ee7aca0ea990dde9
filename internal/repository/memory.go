package repository

import (
	"context"
	"sync"
)

// MemoryBackend keeps the document in process memory. Nothing survives a
// restart; it backs tests and throwaway demo instances.
type MemoryBackend struct {
	mu       sync.Mutex
	data     []byte
	maxBytes int
	writes   int
}

// NewMemoryBackend creates an empty backend. maxBytes > 0 makes Put refuse
// larger documents with ErrPayloadTooLarge, like a size-capped remote store.
func NewMemoryBackend(maxBytes int) *MemoryBackend {
	return &MemoryBackend{maxBytes: maxBytes}
}

func (m *MemoryBackend) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrDocumentNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryBackend) Put(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxBytes > 0 && len(data) > m.maxBytes {
		return ErrPayloadTooLarge
	}
	m.data = append([]byte(nil), data...)
	m.writes++
	return nil
}

// Writes returns how many documents were stored
func (m *MemoryBackend) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MemoryBackend) Close() error { return nil }
