// Package storage provides the persistent credential provider.
//
// BadgerCredentialStore keeps users and roles in a Badger v3 database:
//
//   - user/<id>     JSON credentials, id as 8-byte big endian
//   - logon/<name>  user id owning the logon name
//   - role/<id>     JSON role
//   - seq/user, seq/role  id sequences
//
// Writes that touch several keys run in one transaction and are retried on
// conflict. The value log is garbage collected periodically. Tests open
// the store in Badger's in-memory mode.
package storage
