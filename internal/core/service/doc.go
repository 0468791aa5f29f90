// Package service provides the session and authentication services of the
// Foxy server.
//
// This package contains:
//
//   - Authenticator: the contract the connection pipeline uses to resolve,
//     create and end sessions and to check request permissions
//   - AuthService: the login-capable variant backed by a CredentialProvider
//   - GuestAuthService: a variant where every visitor is a distinct guest
//   - SessionTable: the token to session table shared by both variants
//   - RunSweeper: optional periodic removal of expired sessions and idle
//     login limiters
//
// Storage is reached only through the CredentialProvider and CredentialAdmin
// interfaces, so providers can be swapped without touching session logic.
package service
