package service

import (
	"context"

	"github.com/foxhorn/foxyserver/internal/core/domain"
)

// CredentialProvider is the storage contract the session services consume.
//
// "Not found" is a valid outcome, reported as a nil value with a nil error.
// Errors are reserved for storage failures.
type CredentialProvider interface {
	// FetchByLogin returns the credentials matching logonName when password
	// verifies and the account is active and unlocked.
	FetchByLogin(ctx context.Context, logonName, password string) (*domain.Credentials, error)

	// CreateGuestCredentials returns the credentials assigned to guests.
	// Guests carry id domain.GuestUserID.
	CreateGuestCredentials(ctx context.Context) (*domain.Credentials, error)

	// LockCredentials marks the account locked.
	LockCredentials(ctx context.Context, id int64) (*domain.Credentials, error)

	// UnlockCredentials clears the account lock.
	UnlockCredentials(ctx context.Context, id int64) (*domain.Credentials, error)

	// PermissionsForUser returns the union of the permissions of the user's
	// roles. Passing domain.GuestUserID returns the guest permissions.
	PermissionsForUser(ctx context.Context, id int64) ([]domain.Permission, error)
}

// CredentialAdmin is the optional administration capability of a provider.
type CredentialAdmin interface {
	ListUsers(ctx context.Context) ([]*domain.Credentials, error)
	GetUser(ctx context.Context, id int64) (*domain.Credentials, error)
	// SaveUser creates the user when its id is not positive and updates it
	// otherwise. The stored password hash is kept on update.
	SaveUser(ctx context.Context, creds *domain.Credentials) (*domain.Credentials, error)
	RemoveUser(ctx context.Context, id int64) error
	// ChangePassword stores a new argon2id hash for the user.
	ChangePassword(ctx context.Context, id int64, password string) error

	ListRoles(ctx context.Context) ([]*domain.Role, error)
	GetRole(ctx context.Context, id int64) (*domain.Role, error)
	SaveRole(ctx context.Context, role *domain.Role) (*domain.Role, error)
	RemoveRole(ctx context.Context, id int64) error

	AssignRole(ctx context.Context, userID, roleID int64) error
	RevokeRole(ctx context.Context, userID, roleID int64) error
}

// Caller is the view of an in-flight request the session services need.
type Caller interface {
	// RemoteHost is the peer IP address of the connection.
	RemoteHost() string
	// RequiredPermissions are the permissions attached by the matched handler.
	RequiredPermissions() []domain.Permission
	// Session is the session bound to the request, nil before resolution.
	Session() *domain.Session
}

// Authenticator is the session and permission contract of the server.
type Authenticator interface {
	// ShouldAllowRequest reports whether the caller's session holds every
	// required permission. No required permissions means allowed.
	ShouldAllowRequest(c Caller) bool

	// Login verifies the credentials and stores a new session. Rejected
	// credentials yield a nil session and a nil error.
	Login(ctx context.Context, c Caller, logonName, password string) (*domain.Session, error)

	// SessionForToken returns the live session for token and slides its
	// expiration, or nil. An expired session is evicted.
	SessionForToken(token string) *domain.Session

	// CreateGuestSession always returns a new stored guest session.
	CreateGuestSession(ctx context.Context, c Caller) *domain.Session

	// Logout removes the session. Removing an absent session is a no-op.
	Logout(s *domain.Session)

	// TokenName is the cookie name carrying the auth token.
	TokenName() string

	// AuthCookieEnabled reports whether responses set the auth cookie.
	AuthCookieEnabled() bool

	// Provider returns the credential provider, nil when logins are not
	// supported.
	Provider() CredentialProvider
}
