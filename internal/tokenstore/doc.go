// Package tokenstore resolves the GitHub access token stored for a user.
//
// Store is a read-only get-by-key contract with five backends: Firestore
// (the original access_tokens collection), Redis hashes, a SQLite table, a
// YAML file, and the process environment. Every backend reports a missing
// user as ErrUserNotFound, a record without a token as ErrTokenMissing, and
// I/O faults as StoreUnavailableError so callers can map them to distinct
// HTTP responses.
package tokenstore
