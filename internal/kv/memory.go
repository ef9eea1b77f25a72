package kv

import (
	"context"
	"sync"
)

// NewMemory constructs an in-memory Store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Memory is a map-backed Store for tests and local development.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
	puts   int
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	m.puts++
	return nil
}

// Puts returns the number of writes performed (for testing/inspection).
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
