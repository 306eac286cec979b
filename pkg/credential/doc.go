// Package credential defines the contract for an external credential
// provider: the service that owns account creation, password
// authentication, sign-out, and password-reset delivery.
//
// The provider assigns each account an opaque, stable identity. It also
// exposes its ambient session through an explicit CurrentIdentity query
// and a subscribable session-change stream, which is what allows a
// previously active session to be restored on process start without a
// fresh sign-in.
//
// LocalProvider is an in-memory reference implementation backed by
// bcrypt password hashes. It is suitable for development and tests; a
// production deployment plugs in a real provider behind the same
// interface.
package credential
