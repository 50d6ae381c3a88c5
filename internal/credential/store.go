// Package credential persists secrets (the session token) in the system
// keyring, with a file-backed fallback when no native keychain is available.
package credential

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("credential not found")

// Store is the minimal key-value secret store the session layer needs.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Memory is an in-process Store used by tests.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
