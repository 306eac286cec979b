package credential

import "context"

// Identity is the provider's view of an account: the opaque identifier
// it assigned plus the fields it reports alongside a session. The ID is
// stable for the lifetime of the account and is the join key between
// the provider and the durable profile store.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// SessionChange is one event on the provider's session-change stream.
// Active reports whether a session exists; Identity is only meaningful
// when Active is true.
type SessionChange struct {
	Identity Identity
	Active   bool
}

// Provider is the consumed contract of the external credential service.
type Provider interface {
	// Create registers a new account and establishes a session for it.
	Create(ctx context.Context, email, password string) (Identity, error)

	// Authenticate verifies the credentials and establishes a session.
	Authenticate(ctx context.Context, email, password string) (Identity, error)

	// Deauthenticate ends the current session.
	Deauthenticate(ctx context.Context) error

	// SendPasswordReset triggers delivery of a password-reset message.
	SendPasswordReset(ctx context.Context, email string) error

	// CurrentIdentity reports the identity of the active session, if any.
	CurrentIdentity(ctx context.Context) (Identity, bool)

	// SessionChanges subscribes to session-change notifications. The
	// returned channel fires once at subscription time with the current
	// session value and again on every subsequent change. The
	// subscription lives until the context is cancelled.
	SessionChanges(ctx context.Context) <-chan SessionChange
}
