package store

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	ai "github.com/spetersoncode/relay"
)

// MessageStore holds one conversation history and syncs it to an adapter.
type MessageStore struct {
	mu       sync.RWMutex
	messages []ai.Message
	adapter  Adapter
}

// NewMessageStore creates an empty history. A nil adapter means in-memory.
func NewMessageStore(adapter Adapter) *MessageStore {
	if adapter == nil {
		adapter = NewMemoryAdapter()
	}
	return &MessageStore{adapter: adapter}
}

// Messages returns a copy of the history.
func (m *MessageStore) Messages() []ai.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.messages)
}

// Append adds messages to the end of the history.
func (m *MessageStore) Append(msgs ...ai.Message) {
	if len(msgs) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msgs...)
}

// Len returns the number of messages.
func (m *MessageStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// Clear empties the history. The adapter is untouched until the next Sync.
func (m *MessageStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

// Last returns the final n messages, or all of them when n exceeds Len.
func (m *MessageStore) Last(n int) []ai.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	start := max(len(m.messages)-n, 0)
	return slices.Clone(m.messages[start:])
}

// Sync writes the history to the adapter under key.
func (m *MessageStore) Sync(ctx context.Context, key string) error {
	m.mu.RLock()
	raw, err := json.Marshal(m.messages)
	m.mu.RUnlock()
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return m.adapter.Set(ctx, key, raw)
}

// Reload replaces the history with the document stored under key.
// It returns ErrKeyNotFound when nothing is stored there.
func (m *MessageStore) Reload(ctx context.Context, key string) error {
	raw, ok, err := m.adapter.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotFound
	}

	var messages []ai.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return &SerializationError{Key: key, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = messages
	return nil
}

// Adapter returns the underlying adapter.
func (m *MessageStore) Adapter() Adapter {
	return m.adapter
}
