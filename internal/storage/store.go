// Package storage provides the key/value backends that hold the persisted
// game keys: the save snapshot, the theme preference and the welcome flag.
package storage

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("key not found")

// Store is a flat string key/value store in the manner of browser local
// storage.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryStore keeps keys in process memory. Useful for tests and for running
// without any persistence backend.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, k)
	}
	m.mu.Unlock()
	return nil
}

// Check satisfies health.Checker.
func (m *MemoryStore) Check(context.Context) error { return nil }
