package kv

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory keeps values in process memory. Contents are lost on exit.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return clone(value), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = clone(value)
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.items))
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	values := make([][]byte, 0, len(keys))
	for _, key := range keys {
		values = append(values, clone(m.items[key]))
	}
	return values, nil
}

func (m *Memory) Close() error { return nil }

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
