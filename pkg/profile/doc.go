// Package profile manages durable user profile records.
//
// A Profile is the durable counterpart of a credential-provider
// account, keyed by the provider-assigned identity. The Store interface
// covers persistence, verification-flag reconciliation, and the two
// read paths the session core exposes: filtering by verification status
// and free-text search.
//
// Implementations: MemoryStore for tests and development, PostgresStore
// (pgx) and MongoStore (mongo-driver) for production, and SearchIndex,
// an OpenSearch-backed decorator that serves free-text search from an
// index while delegating everything else to a wrapped Store.
package profile
