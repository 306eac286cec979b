package profile

import "errors"

var (
	// ErrProfileNotFound indicates no profile exists for the ID.
	ErrProfileNotFound = errors.New("profile.not_found")

	// ErrInvalidProfile indicates the profile has no ID.
	ErrInvalidProfile = errors.New("profile.invalid")

	// ErrSaveFailed indicates the store rejected or failed the write.
	ErrSaveFailed = errors.New("profile.save_failed")

	// ErrQueryFailed indicates a read operation failed.
	ErrQueryFailed = errors.New("profile.query_failed")

	// ErrConnectionFailed indicates the backing store is unreachable.
	ErrConnectionFailed = errors.New("profile.connection_failed")

	// ErrMigrationFailed indicates schema migrations could not be applied.
	ErrMigrationFailed = errors.New("profile.migration_failed")
)
