// Package domain defines the core domain models for the Foxy server.
package domain

import (
	"sync/atomic"
	"time"

	"github.com/foxhorn/foxyserver/pkg/token"
)

// DefaultSessionTimeout is the sliding inactivity window of a session.
const DefaultSessionTimeout = time.Hour

// SessionSettings are the server-private inputs used to derive auth tokens
// and compute expirations. The value is read-only once the server starts.
type SessionSettings struct {
	Salt     string
	DeviceID string
	Timeout  time.Duration
	Hasher   token.Hasher
}

func (s SessionSettings) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultSessionTimeout
	}
	return s.Timeout
}

// AuthContext is the identity of one session.
//
// Everything except the expiration is fixed at construction. The token is
// derived once from userID|username|remoteIP|salt|deviceID|startMillis.
type AuthContext struct {
	user     *User
	start    time.Time
	remoteIP string
	userData any
	token    string
	timeout  time.Duration

	// expires is unix milliseconds; advanced by Touch under the store's
	// shared lock, so it must be atomic.
	expires atomic.Int64
}

// NewAuthContext creates the auth context for user starting at start.
func NewAuthContext(user *User, start time.Time, remoteIP string, userData any, settings SessionSettings) *AuthContext {
	ac := &AuthContext{
		user:     user,
		start:    start,
		remoteIP: remoteIP,
		userData: userData,
		timeout:  settings.timeout(),
	}
	ac.token = token.Derive(settings.Hasher, token.Identity{
		UserID:   user.ID,
		Username: user.Name,
		RemoteIP: remoteIP,
		Salt:     settings.Salt,
		DeviceID: settings.DeviceID,
		Start:    start,
	})
	ac.Touch(start)
	return ac
}

// Token returns the auth token.
func (a *AuthContext) Token() string { return a.token }

// User returns the session's user.
func (a *AuthContext) User() *User { return a.user }

// UserID returns the user id.
func (a *AuthContext) UserID() int64 { return a.user.ID }

// Username returns the user's display name.
func (a *AuthContext) Username() string { return a.user.Name }

// SessionStart returns when the session was created.
func (a *AuthContext) SessionStart() time.Time { return a.start }

// RemoteIP returns the address the session was created from.
func (a *AuthContext) RemoteIP() string { return a.remoteIP }

// UserData returns the opaque value attached at login.
func (a *AuthContext) UserData() any { return a.userData }

// Expires returns the current expiration.
func (a *AuthContext) Expires() time.Time {
	return time.UnixMilli(a.expires.Load())
}

// Touch slides the expiration to now plus the inactivity timeout.
func (a *AuthContext) Touch(now time.Time) {
	a.expires.Store(now.Add(a.timeout).UnixMilli())
}

// Expired reports whether the expiration is before now.
func (a *AuthContext) Expired(now time.Time) bool {
	return a.expires.Load() < now.UnixMilli()
}

// expireAt forces the expiration; used by tests in this package tree.
func (a *AuthContext) expireAt(t time.Time) {
	a.expires.Store(t.UnixMilli())
}
