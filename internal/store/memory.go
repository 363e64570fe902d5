package store

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Memory is an in-process KeyValueStore. The zero value is not usable;
// call NewMemory.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

var _ KeyValueStore = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

// Remove deletes key.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Keys returns the sorted keys starting with prefix.
func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := []string{}
	for _, k := range slices.Sorted(maps.Keys(m.data)) {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
