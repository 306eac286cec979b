package sessionstore

import (
	"context"
	"sync"
)

// Store defines the interface for session marker persistence.
type Store interface {
	// Get returns the stored identity ID, or ErrNoMarker if none is set.
	Get(ctx context.Context) (string, error)

	// Set stores the identity ID, replacing any previous marker.
	Set(ctx context.Context, id string) error

	// Clear removes the marker. Clearing an absent marker is not an error.
	Clear(ctx context.Context) error
}

// MemoryStore implements Store in memory. Safe for concurrent use.
type MemoryStore struct {
	mu  sync.RWMutex
	id  string
	set bool
}

// NewMemoryStore creates an empty in-memory marker store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored identity ID, or ErrNoMarker if none is set.
func (m *MemoryStore) Get(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.set {
		return "", ErrNoMarker
	}
	return m.id, nil
}

// Set stores the identity ID, replacing any previous marker.
func (m *MemoryStore) Set(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.id = id
	m.set = true
	return nil
}

// Clear removes the marker.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.id = ""
	m.set = false
	return nil
}
