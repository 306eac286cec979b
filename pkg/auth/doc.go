// Package auth owns the session and authentication state machine for
// an end-user identity.
//
// Controller orchestrates three external collaborators (a credential
// provider, a verification notifier, and a durable profile store) plus
// the local session marker, and folds every operation's outcome into
// one observable State. Each user intent maps to exactly one
// collaborator operation, optionally chaining a follow-up (sign-up
// saves the profile and sends a verification email; sign-in fetches the
// durable profile and persists the session marker).
//
// All State writes are serialized behind one mutex; collaborator calls
// happen outside it and their completions are applied on return. Across
// different intents no ordering is guaranteed: the most recent
// completion wins.
//
// Restorer is the startup path: it reads the session marker and, when
// one exists, subscribes to the provider's session-change stream to
// restore a previously active session without an explicit sign-in. It
// is the only entry point that transitions state without a user intent.
//
// Every collaborator failure is returned as a typed error (ErrCredential,
// ErrPersistence, ErrNotification, ErrSessionRestore) and also projected
// into State.LastMessage for observers. Operations invoked without their
// preconditions return ErrPreconditionNotMet instead of silently doing
// nothing. There are no automatic retries: every failure is terminal for
// that attempt.
package auth
