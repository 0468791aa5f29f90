// Package token provides hashing and secret generation utilities.
//
// Auth tokens are never random: they are derived from the session identity
// and a server-private secret so that two sessions only share a token when
// every input, including the millisecond session start, is identical.
//
// Derivation:
//
//	secret = salt | deviceID | sessionStartEpochMillis
//	token  = hex(sha256(userID | username | remoteIP | secret))
//
// Security:
//
//   - SHA-256 hashing with constant-time comparison
//   - crypto/rand for generated salts
package token
