// Package domain defines the core domain models for the Foxy server.
//
// Domain models carry no IO dependencies. This package contains:
//
//   - User, Credentials, Role: identities and their permissions
//   - AuthContext: the immutable identity of a session plus its sliding expiry
//   - Session: an AuthContext plus handler-defined scratch values
//   - Errors: domain-specific error definitions
//   - Password hashing (argon2id) for credential stores
package domain
