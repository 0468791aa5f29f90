package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/telemetry/logger"
	"github.com/foxhorn/foxyserver/internal/telemetry/metric"
)

// DefaultTokenName is the default auth cookie name.
const DefaultTokenName = "___foxyAuthToken"

// guestFallbackName names the guest fabricated when the provider fails.
const guestFallbackName = "guest"

// AuthServiceConfig holds configuration shared by both session services.
type AuthServiceConfig struct {
	// Settings supply the salt, device id and inactivity timeout.
	Settings domain.SessionSettings

	// TokenName is the auth cookie name (default: DefaultTokenName).
	TokenName string

	// DisableAuthCookie stops responses from setting the auth cookie.
	DisableAuthCookie bool

	// LoginRate is the allowed login attempts per second per remote host.
	// Zero disables throttling.
	LoginRate float64

	// LoginBurst is the login attempt burst per remote host.
	LoginBurst int

	// Table is the session table; a new one is created when nil.
	Table *SessionTable

	Logger  *slog.Logger
	Metrics *metric.Registry

	// Clock returns the current time (default: time.Now).
	Clock func() time.Time
}

// DefaultAuthServiceConfig returns default configuration.
func DefaultAuthServiceConfig() *AuthServiceConfig {
	return &AuthServiceConfig{
		Settings:   domain.SessionSettings{Timeout: domain.DefaultSessionTimeout},
		TokenName:  DefaultTokenName,
		LoginBurst: 5,
	}
}

// withDefaults fills zero fields without mutating the caller's value.
func (c *AuthServiceConfig) withDefaults() AuthServiceConfig {
	cfg := *DefaultAuthServiceConfig()
	if c != nil {
		cfg = *c
	}
	if cfg.TokenName == "" {
		cfg.TokenName = DefaultTokenName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metric.NewRegistry()
	}
	if cfg.Table == nil {
		cfg.Table = NewSessionTable(cfg.Metrics)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return cfg
}

// AuthService is the login-capable Authenticator.
type AuthService struct {
	provider CredentialProvider
	cfg      AuthServiceConfig
	table    *SessionTable
	limiters *RateLimiterRegistry
	log      *slog.Logger
}

var _ Authenticator = (*AuthService)(nil)

// NewAuthService creates an AuthService over provider.
func NewAuthService(provider CredentialProvider, config *AuthServiceConfig) *AuthService {
	cfg := config.withDefaults()
	return &AuthService{
		provider: provider,
		cfg:      cfg,
		table:    cfg.Table,
		limiters: NewRateLimiterRegistry(cfg.LoginRate, cfg.LoginBurst, cfg.Clock),
		log:      cfg.Logger.With("component", "auth"),
	}
}

// Table returns the session table.
func (s *AuthService) Table() *SessionTable { return s.table }

// PruneLimiters drops the login limiters of remote hosts that have been
// quiet long enough to be back at full burst. RunSweeper calls it.
func (s *AuthService) PruneLimiters(now time.Time) int {
	return s.limiters.Prune(now)
}

// ShouldAllowRequest implements Authenticator.
func (s *AuthService) ShouldAllowRequest(c Caller) bool {
	return sessionHolds(c)
}

// sessionHolds reports whether the caller's session has every required
// permission.
func sessionHolds(c Caller) bool {
	required := c.RequiredPermissions()
	if len(required) == 0 {
		return true
	}
	session := c.Session()
	if session == nil {
		return false
	}
	user := session.User()
	for _, p := range required {
		if !user.HasPermission(p) {
			return false
		}
	}
	return true
}

// Login implements Authenticator.
//
// The provider is consulted without holding the table lock; only the insert
// is exclusive.
func (s *AuthService) Login(ctx context.Context, c Caller, logonName, password string) (*domain.Session, error) {
	remote := c.RemoteHost()
	if !s.limiters.Allow(remote) {
		s.cfg.Metrics.LoginFailures.Inc()
		s.log.Warn("login throttled", "remote", remote, "logon", logonName)
		return nil, domain.ErrLoginThrottled
	}

	creds, err := s.provider.FetchByLogin(ctx, logonName, password)
	if err != nil {
		s.cfg.Metrics.LoginFailures.Inc()
		return nil, err
	}
	if creds == nil || !creds.Active || creds.Locked {
		s.cfg.Metrics.LoginFailures.Inc()
		s.log.Debug("login rejected", "remote", remote, "logon", logonName)
		return nil, nil
	}

	perms, err := s.provider.PermissionsForUser(ctx, creds.ID)
	if err != nil {
		s.cfg.Metrics.LoginFailures.Inc()
		return nil, err
	}

	ac := domain.NewAuthContext(domain.NewUser(creds, perms), s.cfg.Clock(), remote, creds.Public(), s.cfg.Settings)
	session := domain.NewSession(ac)
	s.table.Insert(session)

	s.cfg.Metrics.SessionsCreated.WithLabelValues("login").Inc()
	s.log.Debug("session created", "kind", "login", "user_id", creds.ID, "session", logger.ShortToken(session.Token()))
	return session, nil
}

// SessionForToken implements Authenticator.
func (s *AuthService) SessionForToken(token string) *domain.Session {
	return s.table.Lookup(token, s.cfg.Clock())
}

// CreateGuestSession implements Authenticator.
//
// A provider failure does not fail the request: a local guest identity with
// no permissions is used instead.
func (s *AuthService) CreateGuestSession(ctx context.Context, c Caller) *domain.Session {
	creds, err := s.provider.CreateGuestCredentials(ctx)
	if err != nil || creds == nil {
		if err != nil {
			s.log.Warn("guest credentials unavailable", "error", err)
		}
		creds = &domain.Credentials{ID: domain.GuestUserID, LogonName: guestFallbackName}
	}

	perms, err := s.provider.PermissionsForUser(ctx, creds.ID)
	if err != nil {
		s.log.Warn("guest permissions unavailable", "error", err)
		perms = nil
	}

	ac := domain.NewAuthContext(domain.NewUser(creds, perms), s.cfg.Clock(), c.RemoteHost(), nil, s.cfg.Settings)
	session := domain.NewSession(ac)
	s.table.Insert(session)

	s.cfg.Metrics.SessionsCreated.WithLabelValues("guest").Inc()
	return session
}

// Logout implements Authenticator.
func (s *AuthService) Logout(session *domain.Session) {
	if session == nil {
		return
	}
	if s.table.Remove(session.Token()) {
		s.cfg.Metrics.SessionsLoggedOut.Inc()
		s.log.Debug("session ended", "user_id", session.User().ID, "session", logger.ShortToken(session.Token()))
	}
}

// TokenName implements Authenticator.
func (s *AuthService) TokenName() string { return s.cfg.TokenName }

// AuthCookieEnabled implements Authenticator.
func (s *AuthService) AuthCookieEnabled() bool { return !s.cfg.DisableAuthCookie }

// Provider implements Authenticator.
func (s *AuthService) Provider() CredentialProvider { return s.provider }
