// Package sessionstore persists the session marker: the identity of
// the last signed-in account, kept as a single string slot under a
// fixed key.
//
// The marker is a hint, not a credential. It is written on successful
// sign-in, cleared on sign-out, and read once at startup to decide
// whether session restoration should be attempted at all; restoration
// itself still requires the credential provider to confirm an active
// session.
//
// MemoryStore serves tests and development; RedisStore persists the
// marker across process restarts.
package sessionstore
