package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/foxhorn/foxyserver/internal/core/domain"
)

// mockProvider is an in-test CredentialProvider keyed by logon name.
type mockProvider struct {
	mu          sync.Mutex
	users       map[string]*domain.Credentials
	passwords   map[string]string
	perms       map[int64][]domain.Permission
	guestErr    error
	fetchErr    error
	fetchCalled int
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		users:     make(map[string]*domain.Credentials),
		passwords: make(map[string]string),
		perms:     make(map[int64][]domain.Permission),
	}
}

func (m *mockProvider) addUser(id int64, name, password string, perms ...domain.Permission) *domain.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &domain.Credentials{ID: id, LogonName: name, PasswordHash: "hash:" + password, Active: true}
	m.users[name] = c
	m.passwords[name] = password
	m.perms[id] = perms
	return c
}

func (m *mockProvider) FetchByLogin(_ context.Context, logonName, password string) (*domain.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalled++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	c, ok := m.users[logonName]
	if !ok || m.passwords[logonName] != password {
		return nil, nil
	}
	return c.Clone(), nil
}

func (m *mockProvider) CreateGuestCredentials(context.Context) (*domain.Credentials, error) {
	if m.guestErr != nil {
		return nil, m.guestErr
	}
	return &domain.Credentials{ID: domain.GuestUserID, LogonName: "Guest"}, nil
}

func (m *mockProvider) LockCredentials(_ context.Context, id int64) (*domain.Credentials, error) {
	return m.setLocked(id, true), nil
}

func (m *mockProvider) UnlockCredentials(_ context.Context, id int64) (*domain.Credentials, error) {
	return m.setLocked(id, false), nil
}

func (m *mockProvider) setLocked(id int64, locked bool) *domain.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.users {
		if c.ID == id {
			c.Locked = locked
			return c.Clone()
		}
	}
	return nil
}

func (m *mockProvider) PermissionsForUser(_ context.Context, id int64) ([]domain.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perms[id], nil
}

// fakeCaller is a minimal Caller.
type fakeCaller struct {
	remote  string
	perms   []domain.Permission
	session *domain.Session
}

func (c *fakeCaller) RemoteHost() string                       { return c.remote }
func (c *fakeCaller) RequiredPermissions() []domain.Permission { return c.perms }
func (c *fakeCaller) Session() *domain.Session                 { return c.session }

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testSettings() domain.SessionSettings {
	return domain.SessionSettings{
		Salt:     "test-salt",
		DeviceID: "000000000UNKNOWN",
		Timeout:  time.Hour,
	}
}

var errStorage = errors.New("disk on fire")
