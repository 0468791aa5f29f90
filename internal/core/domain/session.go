// Package domain defines the core domain models for the Foxy server.
package domain

import (
	"sync"
	"time"
)

// Session wraps one AuthContext plus a scratch map for handler state.
//
// The scratch map has its own lock; it is never shared across sessions.
type Session struct {
	auth *AuthContext

	mu     sync.Mutex
	values map[string]any
}

// NewSession creates a session for ac.
func NewSession(ac *AuthContext) *Session {
	return &Session{auth: ac}
}

// Token returns the auth token identifying the session.
func (s *Session) Token() string { return s.auth.Token() }

// Auth returns the session's auth context.
func (s *Session) Auth() *AuthContext { return s.auth }

// User is shorthand for Auth().User().
func (s *Session) User() *User { return s.auth.User() }

// Value returns a scratch value.
func (s *Session) Value(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// SetValue stores a scratch value.
func (s *Session) SetValue(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = value
}

// DeleteValue removes a scratch value.
func (s *Session) DeleteValue(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// ExpireAt forces the session's expiration. Intended for tests and
// administrative revocation; normal expiry is driven by Touch.
func (s *Session) ExpireAt(t time.Time) {
	s.auth.expireAt(t)
}
