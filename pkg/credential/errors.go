package credential

import "errors"

var (
	// ErrEmailTaken indicates an account already exists for the email.
	ErrEmailTaken = errors.New("credential.email_taken")

	// ErrInvalidCredentials indicates the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("credential.invalid_credentials")

	// ErrAccountNotFound indicates no account exists for the email.
	ErrAccountNotFound = errors.New("credential.account_not_found")

	// ErrNoActiveSession indicates an operation required an active session.
	ErrNoActiveSession = errors.New("credential.no_active_session")
)
