package profile

import "context"

// Store defines the interface for durable profile persistence.
// Query results are ordered by display name, then ID, so repeated
// reads are stable.
type Store interface {
	// Save creates or replaces the profile keyed by its ID.
	Save(ctx context.Context, p Profile) error

	// Fetch retrieves a profile by ID. The write-only Secret field is
	// not read back.
	Fetch(ctx context.Context, id string) (Profile, error)

	// UpdateVerification sets only the verified flag of the profile.
	UpdateVerification(ctx context.Context, id string, verified bool) error

	// QueryByVerification lists profiles matching the verified flag.
	QueryByVerification(ctx context.Context, verified bool) ([]Profile, error)

	// Search lists profiles whose display name or email matches the
	// free-text query.
	Search(ctx context.Context, query string) ([]Profile, error)

	// FetchAll lists every profile.
	FetchAll(ctx context.Context) ([]Profile, error)
}
