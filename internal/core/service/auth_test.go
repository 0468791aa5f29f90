package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/telemetry/metric"
)

func newTestAuthService(t *testing.T, p *mockProvider) (*AuthService, *fakeClock, *metric.Registry) {
	t.Helper()
	clock := newFakeClock()
	m := metric.NewRegistry()
	svc := NewAuthService(p, &AuthServiceConfig{
		Settings: testSettings(),
		Metrics:  m,
		Clock:    clock.Now,
	})
	return svc, clock, m
}

func TestAuthService_Login(t *testing.T) {
	p := newMockProvider()
	p.addUser(7, "alice", "secret", domain.PermissionManageUser)
	svc, clock, _ := newTestAuthService(t, p)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		s, err := svc.Login(ctx, &fakeCaller{remote: "10.0.0.9"}, "alice", "secret")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if s == nil {
			t.Fatal("Login() = nil, want session")
		}
		u := s.User()
		if u.ID != 7 || u.Name != "alice" || !u.Authenticated || u.Guest {
			t.Errorf("user = %+v, want authenticated alice", u)
		}
		if !u.HasPermission(domain.PermissionManageUser) {
			t.Error("user missing granted permission")
		}
		if s.Auth().RemoteIP() != "10.0.0.9" {
			t.Errorf("RemoteIP() = %q, want 10.0.0.9", s.Auth().RemoteIP())
		}
		data, ok := s.Auth().UserData().(*domain.Credentials)
		if !ok || data.PasswordHash != "" {
			t.Errorf("UserData() = %+v, want public credentials", s.Auth().UserData())
		}
		if got := svc.SessionForToken(s.Token()); got != s {
			t.Errorf("SessionForToken() = %v, want login session", got)
		}
		if !s.Auth().Expires().After(clock.Now()) {
			t.Error("session expiration not in the future")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		s, err := svc.Login(ctx, &fakeCaller{remote: "10.0.0.9"}, "alice", "nope")
		if err != nil || s != nil {
			t.Fatalf("Login() = (%v, %v), want (nil, nil)", s, err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		s, err := svc.Login(ctx, &fakeCaller{remote: "10.0.0.9"}, "bob", "secret")
		if err != nil || s != nil {
			t.Fatalf("Login() = (%v, %v), want (nil, nil)", s, err)
		}
	})

	t.Run("locked", func(t *testing.T) {
		p.setLocked(7, true)
		defer p.setLocked(7, false)
		s, err := svc.Login(ctx, &fakeCaller{remote: "10.0.0.9"}, "alice", "secret")
		if err != nil || s != nil {
			t.Fatalf("Login() = (%v, %v), want (nil, nil)", s, err)
		}
	})
}

func TestAuthService_LoginProviderError(t *testing.T) {
	p := newMockProvider()
	p.fetchErr = errStorage
	svc, _, m := newTestAuthService(t, p)

	s, err := svc.Login(context.Background(), &fakeCaller{remote: "1.2.3.4"}, "alice", "x")
	if s != nil || !errors.Is(err, errStorage) {
		t.Fatalf("Login() = (%v, %v), want (nil, %v)", s, err, errStorage)
	}
	if v := testutil.ToFloat64(m.LoginFailures); v != 1 {
		t.Errorf("login failures = %v, want 1", v)
	}
}

func TestAuthService_LoginThrottled(t *testing.T) {
	p := newMockProvider()
	p.addUser(1, "alice", "secret")
	svc := NewAuthService(p, &AuthServiceConfig{
		Settings:   testSettings(),
		LoginRate:  0.001,
		LoginBurst: 2,
	})
	ctx := context.Background()
	caller := &fakeCaller{remote: "10.0.0.1"}

	for i := 0; i < 2; i++ {
		if _, err := svc.Login(ctx, caller, "alice", "wrong"); err != nil {
			t.Fatalf("attempt %d error = %v", i, err)
		}
	}
	s, err := svc.Login(ctx, caller, "alice", "secret")
	if s != nil || !errors.Is(err, domain.ErrLoginThrottled) {
		t.Fatalf("Login() = (%v, %v), want ErrLoginThrottled", s, err)
	}
	if p.fetchCalled != 2 {
		t.Errorf("provider calls = %d, want 2", p.fetchCalled)
	}

	// Other hosts have their own bucket.
	if s, err := svc.Login(ctx, &fakeCaller{remote: "10.0.0.2"}, "alice", "secret"); err != nil || s == nil {
		t.Errorf("Login(other host) = (%v, %v), want session", s, err)
	}
}

func TestAuthService_LoginLimitersReclaimed(t *testing.T) {
	p := newMockProvider()
	clock := newFakeClock()
	svc := NewAuthService(p, &AuthServiceConfig{
		Settings:   testSettings(),
		LoginRate:  1,
		LoginBurst: 1,
		Clock:      clock.Now,
	})
	ctx := context.Background()

	for i := 0; i < 50_000; i++ {
		host := "10." + strconv.Itoa(i>>16&0xff) + "." + strconv.Itoa(i>>8&0xff) + "." + strconv.Itoa(i&0xff)
		if _, err := svc.Login(ctx, &fakeCaller{remote: host}, "nobody", "wrong"); err != nil {
			t.Fatalf("Login(%s) error = %v", host, err)
		}
		clock.Advance(10 * time.Millisecond)
	}
	if n := svc.limiters.Len(); n > minPruneSize {
		t.Fatalf("limiters after 50000 hosts = %d, want <= %d", n, minPruneSize)
	}

	clock.Advance(time.Second)
	svc.PruneLimiters(clock.Now())
	if n := svc.limiters.Len(); n != 0 {
		t.Errorf("limiters after quiet period = %d, want 0", n)
	}
}

func TestAuthService_PruneKeepsThrottle(t *testing.T) {
	p := newMockProvider()
	p.addUser(1, "alice", "secret")
	clock := newFakeClock()
	svc := NewAuthService(p, &AuthServiceConfig{
		Settings:   testSettings(),
		LoginRate:  1,
		LoginBurst: 1,
		Clock:      clock.Now,
	})
	ctx := context.Background()
	caller := &fakeCaller{remote: "10.0.0.1"}

	if _, err := svc.Login(ctx, caller, "alice", "wrong"); err != nil {
		t.Fatalf("first attempt error = %v", err)
	}
	if n := svc.PruneLimiters(clock.Now()); n != 0 {
		t.Fatalf("PruneLimiters() = %d, want 0 while the bucket is empty", n)
	}
	if _, err := svc.Login(ctx, caller, "alice", "secret"); !errors.Is(err, domain.ErrLoginThrottled) {
		t.Fatalf("Login() after prune error = %v, want ErrLoginThrottled", err)
	}

	clock.Advance(time.Second)
	if n := svc.PruneLimiters(clock.Now()); n != 1 {
		t.Fatalf("PruneLimiters() after refill = %d, want 1", n)
	}
	if s, err := svc.Login(ctx, caller, "alice", "secret"); err != nil || s == nil {
		t.Fatalf("Login() after refill = (%v, %v), want session", s, err)
	}
}

func TestAuthService_CreateGuestSession(t *testing.T) {
	p := newMockProvider()
	p.perms[domain.GuestUserID] = []domain.Permission{3}
	svc, clock, m := newTestAuthService(t, p)

	s := svc.CreateGuestSession(context.Background(), &fakeCaller{remote: "192.168.1.5"})
	if s == nil {
		t.Fatal("CreateGuestSession() = nil")
	}
	if u := s.User(); u.ID != domain.GuestUserID || !u.Guest || u.Authenticated {
		t.Errorf("guest user = %+v, want unauthenticated id 0", u)
	}
	if !s.User().HasPermission(3) {
		t.Error("guest missing guest permission")
	}

	got := svc.SessionForToken(s.Token())
	if got != s {
		t.Fatalf("SessionForToken() = %v, want guest session", got)
	}
	if !got.Auth().Expires().After(clock.Now()) {
		t.Errorf("Expires() = %v, want after %v", got.Auth().Expires(), clock.Now())
	}
	if v := testutil.ToFloat64(m.SessionsCreated.WithLabelValues("guest")); v != 1 {
		t.Errorf("guest sessions created = %v, want 1", v)
	}
}

func TestAuthService_CreateGuestSessionFallback(t *testing.T) {
	p := newMockProvider()
	p.guestErr = errStorage
	svc, _, _ := newTestAuthService(t, p)

	s := svc.CreateGuestSession(context.Background(), &fakeCaller{remote: "10.1.1.1"})
	if s == nil {
		t.Fatal("CreateGuestSession() = nil, want fallback guest")
	}
	if s.User().ID != domain.GuestUserID || s.User().Name != "guest" {
		t.Errorf("fallback user = %+v, want id 0 named guest", s.User())
	}
	if svc.SessionForToken(s.Token()) != s {
		t.Error("fallback guest not stored")
	}
}

func TestAuthService_DistinctTokensPerMillisecond(t *testing.T) {
	svc, clock, _ := newTestAuthService(t, newMockProvider())
	ctx := context.Background()
	caller := &fakeCaller{remote: "10.0.0.1"}

	a := svc.CreateGuestSession(ctx, caller)
	clock.Advance(time.Millisecond)
	b := svc.CreateGuestSession(ctx, caller)

	if a.Token() == b.Token() {
		t.Fatal("sessions 1ms apart share a token")
	}
}

func TestAuthService_ExpiredSession(t *testing.T) {
	svc, clock, _ := newTestAuthService(t, newMockProvider())
	s := svc.CreateGuestSession(context.Background(), &fakeCaller{remote: "10.0.0.1"})

	clock.Advance(time.Hour + time.Millisecond)

	if got := svc.SessionForToken(s.Token()); got != nil {
		t.Fatalf("SessionForToken(expired) = %v, want nil", got)
	}
	if n := svc.Table().Len(); n != 0 {
		t.Errorf("table Len() = %d, want 0", n)
	}
}

func TestAuthService_SlidingExpiration(t *testing.T) {
	svc, clock, _ := newTestAuthService(t, newMockProvider())
	s := svc.CreateGuestSession(context.Background(), &fakeCaller{remote: "10.0.0.1"})

	// Each lookup inside the window pushes the expiration forward.
	for i := 0; i < 3; i++ {
		clock.Advance(50 * time.Minute)
		if svc.SessionForToken(s.Token()) == nil {
			t.Fatalf("lookup %d: session expired despite activity", i)
		}
	}
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, m := newTestAuthService(t, newMockProvider())
	s := svc.CreateGuestSession(context.Background(), &fakeCaller{remote: "10.0.0.1"})

	svc.Logout(s)
	svc.Logout(s)
	svc.Logout(nil)

	if got := svc.SessionForToken(s.Token()); got != nil {
		t.Errorf("SessionForToken() after logout = %v, want nil", got)
	}
	if v := testutil.ToFloat64(m.SessionsLoggedOut); v != 1 {
		t.Errorf("logged out = %v, want 1", v)
	}
}

func TestAuthService_ShouldAllowRequest(t *testing.T) {
	p := newMockProvider()
	p.addUser(5, "admin", "pw", domain.PermissionManageUser)
	svc, _, _ := newTestAuthService(t, p)
	ctx := context.Background()

	admin, _ := svc.Login(ctx, &fakeCaller{remote: "h"}, "admin", "pw")
	guest := svc.CreateGuestSession(ctx, &fakeCaller{remote: "h"})

	tests := []struct {
		name    string
		session *domain.Session
		perms   []domain.Permission
		want    bool
	}{
		{"no permissions required", guest, nil, true},
		{"guest lacks permission", guest, []domain.Permission{domain.PermissionManageUser}, false},
		{"admin holds permission", admin, []domain.Permission{domain.PermissionManageUser}, true},
		{"admin lacks one of two", admin, []domain.Permission{domain.PermissionManageUser, domain.PermissionManageRole}, false},
		{"no session", nil, []domain.Permission{1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCaller{session: tt.session, perms: tt.perms}
			if got := svc.ShouldAllowRequest(c); got != tt.want {
				t.Errorf("ShouldAllowRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthService_Accessors(t *testing.T) {
	p := newMockProvider()
	svc := NewAuthService(p, nil)

	if svc.TokenName() != DefaultTokenName {
		t.Errorf("TokenName() = %q, want %q", svc.TokenName(), DefaultTokenName)
	}
	if !svc.AuthCookieEnabled() {
		t.Error("AuthCookieEnabled() = false, want true")
	}
	if svc.Provider() != p {
		t.Error("Provider() did not return the configured provider")
	}
}
