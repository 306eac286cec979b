package profile

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements Store using in-memory storage. All methods are
// safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]Profile),
	}
}

// Save creates or replaces the profile keyed by its ID.
func (m *MemoryStore) Save(ctx context.Context, p Profile) error {
	if p.ID == "" {
		return ErrInvalidProfile
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[p.ID] = p
	return nil
}

// Fetch retrieves a profile by ID.
func (m *MemoryStore) Fetch(ctx context.Context, id string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.profiles[id]
	if !exists {
		return Profile{}, ErrProfileNotFound
	}

	p.Secret = ""
	return p, nil
}

// UpdateVerification sets only the verified flag of the profile.
func (m *MemoryStore) UpdateVerification(ctx context.Context, id string, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.profiles[id]
	if !exists {
		return ErrProfileNotFound
	}

	p.Verified = verified
	m.profiles[id] = p
	return nil
}

// QueryByVerification lists profiles matching the verified flag.
func (m *MemoryStore) QueryByVerification(ctx context.Context, verified bool) ([]Profile, error) {
	return m.collect(func(p Profile) bool {
		return p.Verified == verified
	}), nil
}

// Search lists profiles whose display name or email contains the query,
// case-insensitively.
func (m *MemoryStore) Search(ctx context.Context, query string) ([]Profile, error) {
	q := strings.ToLower(query)
	return m.collect(func(p Profile) bool {
		return strings.Contains(strings.ToLower(p.DisplayName), q) ||
			strings.Contains(strings.ToLower(p.Email), q)
	}), nil
}

// FetchAll lists every profile.
func (m *MemoryStore) FetchAll(ctx context.Context) ([]Profile, error) {
	return m.collect(func(Profile) bool { return true }), nil
}

func (m *MemoryStore) collect(match func(Profile) bool) []Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		if match(p) {
			p.Secret = ""
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ID < out[j].ID
	})
	return out
}
