// Package memory provides an in-memory credential provider.
//
// CredentialStore keeps users and roles in sharded concurrent maps with a
// logon-name index and a role membership index. Passwords are stored as
// argon2id hashes. Nothing survives a restart; use the Badger store for
// persistence.
package memory
