package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/foxhorn/foxyserver/internal/core/domain"
)

// GuestAuthService is an Authenticator where every visitor is a distinct
// guest. Logins are not supported and every request is allowed.
//
// Guest ids come from a counter that starts at 2 and guests are named
// "Guest#<id>". This differs from AuthService, which gives every guest
// domain.GuestUserID.
type GuestAuthService struct {
	cfg   AuthServiceConfig
	table *SessionTable
	log   *slog.Logger
	next  atomic.Int64
}

var _ Authenticator = (*GuestAuthService)(nil)

// NewGuestAuthService creates a GuestAuthService.
func NewGuestAuthService(config *AuthServiceConfig) *GuestAuthService {
	cfg := config.withDefaults()
	s := &GuestAuthService{
		cfg:   cfg,
		table: cfg.Table,
		log:   cfg.Logger.With("component", "auth", "variant", "guest"),
	}
	s.next.Store(1)
	return s
}

// Table returns the session table.
func (s *GuestAuthService) Table() *SessionTable { return s.table }

// ShouldAllowRequest implements Authenticator. Every request is allowed.
func (s *GuestAuthService) ShouldAllowRequest(Caller) bool { return true }

// Login implements Authenticator. Logins are not supported.
func (s *GuestAuthService) Login(context.Context, Caller, string, string) (*domain.Session, error) {
	return nil, nil
}

// SessionForToken implements Authenticator.
func (s *GuestAuthService) SessionForToken(token string) *domain.Session {
	return s.table.Lookup(token, s.cfg.Clock())
}

// CreateGuestSession implements Authenticator.
func (s *GuestAuthService) CreateGuestSession(_ context.Context, c Caller) *domain.Session {
	id := s.next.Add(1)
	user := domain.NewGuestUser(id, fmt.Sprintf("Guest#%d", id))

	ac := domain.NewAuthContext(user, s.cfg.Clock(), c.RemoteHost(), nil, s.cfg.Settings)
	session := domain.NewSession(ac)
	s.table.Insert(session)

	s.cfg.Metrics.SessionsCreated.WithLabelValues("guest").Inc()
	s.log.Debug("session created", "kind", "guest", "user_id", id)
	return session
}

// Logout implements Authenticator.
func (s *GuestAuthService) Logout(session *domain.Session) {
	if session == nil {
		return
	}
	if s.table.Remove(session.Token()) {
		s.cfg.Metrics.SessionsLoggedOut.Inc()
	}
}

// TokenName implements Authenticator.
func (s *GuestAuthService) TokenName() string { return s.cfg.TokenName }

// AuthCookieEnabled implements Authenticator.
func (s *GuestAuthService) AuthCookieEnabled() bool { return !s.cfg.DisableAuthCookie }

// Provider implements Authenticator. There is none.
func (s *GuestAuthService) Provider() CredentialProvider { return nil }
