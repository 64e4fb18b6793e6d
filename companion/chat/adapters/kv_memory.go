package adapters

import (
	"context"
	"sync"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// MemoryKV keeps slots in process memory. Values live as long as the process,
// which makes it the session-scoped backend for the credential slot.
type MemoryKV struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string][]byte)}
}

// Get returns a copy of the stored value.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value under key.
func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = append([]byte(nil), value...)
	return nil
}

// Remove deletes key; removing a missing key is not an error.
func (m *MemoryKV) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Ensure MemoryKV implements the KeyValueStore interface.
var _ ports.KeyValueStore = (*MemoryKV)(nil)
