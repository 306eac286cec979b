package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed profile store. The pool is
// expected to be connected and migrated (see ConnectPostgres, Migrate).
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Save creates or replaces the profile keyed by its ID.
func (s *PostgresStore) Save(ctx context.Context, p Profile) error {
	if p.ID == "" {
		return ErrInvalidProfile
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (id, display_name, email, secret, verified)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    email = EXCLUDED.email,
		    secret = EXCLUDED.secret,
		    verified = EXCLUDED.verified`,
		p.ID, p.DisplayName, p.Email, p.Secret, p.Verified)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}

	return nil
}

// Fetch retrieves a profile by ID. The secret column is not read back.
func (s *PostgresStore) Fetch(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := s.pool.QueryRow(ctx, `
		SELECT id, display_name, email, verified
		FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.DisplayName, &p.Email, &p.Verified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, errors.Join(ErrQueryFailed, err)
	}

	return p, nil
}

// UpdateVerification sets only the verified flag of the profile.
func (s *PostgresStore) UpdateVerification(ctx context.Context, id string, verified bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles SET verified = $2 WHERE id = $1`, id, verified)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// QueryByVerification lists profiles matching the verified flag.
func (s *PostgresStore) QueryByVerification(ctx context.Context, verified bool) ([]Profile, error) {
	return s.list(ctx, `
		SELECT id, display_name, email, verified
		FROM profiles WHERE verified = $1
		ORDER BY display_name, id`, verified)
}

// Search lists profiles whose display name or email contains the query,
// case-insensitively.
func (s *PostgresStore) Search(ctx context.Context, query string) ([]Profile, error) {
	return s.list(ctx, `
		SELECT id, display_name, email, verified
		FROM profiles
		WHERE display_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY display_name, id`, query)
}

// FetchAll lists every profile.
func (s *PostgresStore) FetchAll(ctx context.Context) ([]Profile, error) {
	return s.list(ctx, `
		SELECT id, display_name, email, verified
		FROM profiles ORDER BY display_name, id`)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Profile, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Email, &p.Verified); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	return out, nil
}
