package store

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
)

// Adapter is a persistence backend for JSON documents addressed by key.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Get returns the document for key. Missing keys return nil, false, nil.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Set stores a document, replacing any previous one.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns the stored keys in sorted order.
	Keys(ctx context.Context) ([]string, error)
}

// MemoryAdapter keeps documents in process memory.
type MemoryAdapter struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewMemoryAdapter creates an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{data: make(map[string]json.RawMessage)}
}

func (m *MemoryAdapter) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return slices.Clone(v), ok, nil
}

func (m *MemoryAdapter) Set(_ context.Context, key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *MemoryAdapter) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryAdapter) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

var (
	_ Adapter = (*MemoryAdapter)(nil)
	_ Adapter = (*FileAdapter)(nil)
)
