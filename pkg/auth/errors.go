package auth

import "errors"

var (
	// ErrCredential indicates the credential provider rejected or
	// failed the operation.
	ErrCredential = errors.New("auth.credential_failed")

	// ErrPersistence indicates the profile store or session marker
	// store rejected or failed a read/write.
	ErrPersistence = errors.New("auth.persistence_failed")

	// ErrNotification indicates the verification message could not be sent.
	ErrNotification = errors.New("auth.notification_failed")

	// ErrSessionRestore indicates no active provider session was found
	// during restoration.
	ErrSessionRestore = errors.New("auth.no_session_to_restore")

	// ErrPreconditionNotMet indicates the operation was attempted
	// without a required precondition, e.g. refreshing verification
	// status with no current profile.
	ErrPreconditionNotMet = errors.New("auth.precondition_not_met")
)
