package sessionstore

import "errors"

var (
	// ErrNoMarker indicates no session marker is stored.
	ErrNoMarker = errors.New("sessionstore.no_marker")

	// ErrStoreFailed indicates the backing store failed the operation.
	ErrStoreFailed = errors.New("sessionstore.store_failed")

	// ErrConnectionFailed indicates the backing store is unreachable.
	ErrConnectionFailed = errors.New("sessionstore.connection_failed")
)
