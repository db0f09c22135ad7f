package repository

import (
	"context"
	"sync"
)

// MemoryRegistry is a process-local KeyRegistry used when no Redis is configured
type MemoryRegistry struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewMemoryRegistry creates an empty in-memory registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{keys: make(map[string]string)}
}

func (m *MemoryRegistry) Remember(_ context.Context, feature, scenario, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[Field(feature, scenario)] = key
	return nil
}

func (m *MemoryRegistry) Lookup(_ context.Context, feature, scenario string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keys[Field(feature, scenario)], nil
}

func (m *MemoryRegistry) All(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.keys))
	for k, v := range m.keys {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryRegistry) Ping(context.Context) error {
	return nil
}
