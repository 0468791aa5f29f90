package memory

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"sync"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/core/service"
	"github.com/foxhorn/foxyserver/pkg/cmap"
)

// GuestLogonName is the logon name of the guest credentials.
const GuestLogonName = "Guest"

// CredentialStore provides in-memory users and roles.
type CredentialStore struct {
	// Primary index: user id -> credentials
	users *cmap.Map[int64, *domain.Credentials]

	// Secondary index: logon name -> user id
	logons *cmap.Map[string, int64]

	roles *cmap.Map[int64, *domain.Role]

	// Secondary index: role id -> user ids
	members *RoleIndex

	guestPermissions []domain.Permission

	nextUserID int64
	nextRoleID int64

	// Global lock for operations requiring atomicity across indexes
	mu sync.RWMutex
}

var (
	_ service.CredentialProvider = (*CredentialStore)(nil)
	_ service.CredentialAdmin    = (*CredentialStore)(nil)
)

// Option configures the CredentialStore.
type Option func(*CredentialStore)

// WithGuestPermissions sets the permissions granted to guests.
func WithGuestPermissions(perms ...domain.Permission) Option {
	return func(s *CredentialStore) {
		s.guestPermissions = slices.Clone(perms)
	}
}

// New creates a new in-memory credential store.
func New(opts ...Option) *CredentialStore {
	s := &CredentialStore{
		users:   cmap.New[int64, *domain.Credentials](),
		logons:  cmap.New[string, int64](),
		roles:   cmap.New[int64, *domain.Role](),
		members: NewRoleIndex(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FetchByLogin implements service.CredentialProvider.
func (s *CredentialStore) FetchByLogin(_ context.Context, logonName, password string) (*domain.Credentials, error) {
	id, ok := s.logons.Get(logonName)
	if !ok {
		return nil, nil
	}
	creds, ok := s.users.Get(id)
	if !ok {
		// Index inconsistency - clean up orphaned logon
		s.logons.Delete(logonName)
		return nil, nil
	}

	s.mu.RLock()
	creds = creds.Clone()
	s.mu.RUnlock()

	if !creds.Active || creds.Locked {
		return nil, nil
	}
	if !domain.VerifyPassword(password, creds.PasswordHash) {
		return nil, nil
	}
	return creds, nil
}

// CreateGuestCredentials implements service.CredentialProvider.
func (s *CredentialStore) CreateGuestCredentials(context.Context) (*domain.Credentials, error) {
	return &domain.Credentials{ID: domain.GuestUserID, LogonName: GuestLogonName}, nil
}

// LockCredentials implements service.CredentialProvider.
func (s *CredentialStore) LockCredentials(_ context.Context, id int64) (*domain.Credentials, error) {
	return s.setLocked(id, true), nil
}

// UnlockCredentials implements service.CredentialProvider.
func (s *CredentialStore) UnlockCredentials(_ context.Context, id int64) (*domain.Credentials, error) {
	return s.setLocked(id, false), nil
}

func (s *CredentialStore) setLocked(id int64, locked bool) *domain.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, ok := s.users.Get(id)
	if !ok {
		return nil
	}
	creds.Locked = locked
	return creds.Public()
}

// PermissionsForUser implements service.CredentialProvider.
func (s *CredentialStore) PermissionsForUser(_ context.Context, id int64) ([]domain.Permission, error) {
	if id == domain.GuestUserID {
		return slices.Clone(s.guestPermissions), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	creds, ok := s.users.Get(id)
	if !ok {
		return nil, nil
	}
	var perms []domain.Permission
	for _, roleID := range creds.RoleIDs {
		if role, ok := s.roles.Get(roleID); ok {
			perms = append(perms, role.Permissions...)
		}
	}
	slices.Sort(perms)
	return slices.Compact(perms), nil
}

// ListUsers implements service.CredentialAdmin. Users are ordered by id.
func (s *CredentialStore) ListUsers(context.Context) ([]*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.Credentials, 0, s.users.Count())
	s.users.Range(func(_ int64, c *domain.Credentials) bool {
		users = append(users, c.Clone())
		return true
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// GetUser implements service.CredentialAdmin.
func (s *CredentialStore) GetUser(_ context.Context, id int64) (*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creds, ok := s.users.Get(id)
	if !ok {
		return nil, nil
	}
	return creds.Clone(), nil
}

// SaveUser implements service.CredentialAdmin.
func (s *CredentialStore) SaveUser(_ context.Context, creds *domain.Credentials) (*domain.Credentials, error) {
	if creds == nil || creds.LogonName == "" {
		return nil, domain.ErrMissingArgument.WithDetails("logon_name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRoles(creds.RoleIDs); err != nil {
		return nil, err
	}
	if owner, ok := s.logons.Get(creds.LogonName); ok && owner != creds.ID {
		return nil, domain.ErrLogonConflict.WithDetails(creds.LogonName)
	}

	stored := creds.Clone()
	stored.RoleIDs = normalizeIDs(stored.RoleIDs)

	if stored.ID <= 0 {
		s.nextUserID++
		stored.ID = s.nextUserID
	} else {
		existing, ok := s.users.Get(stored.ID)
		if !ok {
			return nil, domain.ErrUserNotFound
		}
		stored.PasswordHash = existing.PasswordHash
		if existing.LogonName != stored.LogonName {
			s.logons.Delete(existing.LogonName)
		}
		for _, roleID := range existing.RoleIDs {
			s.members.Remove(roleID, existing.ID)
		}
	}

	s.users.Set(stored.ID, stored)
	s.logons.Set(stored.LogonName, stored.ID)
	for _, roleID := range stored.RoleIDs {
		s.members.Add(roleID, stored.ID)
	}
	return stored.Clone(), nil
}

// RemoveUser implements service.CredentialAdmin.
func (s *CredentialStore) RemoveUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, ok := s.users.Pop(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	s.logons.Delete(creds.LogonName)
	for _, roleID := range creds.RoleIDs {
		s.members.Remove(roleID, id)
	}
	return nil
}

// ChangePassword implements service.CredentialAdmin.
func (s *CredentialStore) ChangePassword(_ context.Context, id int64, password string) error {
	hash, err := domain.HashPassword(password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	creds, ok := s.users.Get(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	creds.PasswordHash = hash
	return nil
}

// ListRoles implements service.CredentialAdmin. Roles are ordered by id.
func (s *CredentialStore) ListRoles(context.Context) ([]*domain.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]*domain.Role, 0, s.roles.Count())
	s.roles.Range(func(_ int64, r *domain.Role) bool {
		roles = append(roles, r.Clone())
		return true
	})
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

// GetRole implements service.CredentialAdmin.
func (s *CredentialStore) GetRole(_ context.Context, id int64) (*domain.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.roles.Get(id)
	if !ok {
		return nil, nil
	}
	return role.Clone(), nil
}

// SaveRole implements service.CredentialAdmin.
func (s *CredentialStore) SaveRole(_ context.Context, role *domain.Role) (*domain.Role, error) {
	if role == nil || role.Name == "" {
		return nil, domain.ErrMissingArgument.WithDetails("name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := role.Clone()
	slices.Sort(stored.Permissions)
	stored.Permissions = slices.Compact(stored.Permissions)

	if stored.ID <= 0 {
		s.nextRoleID++
		stored.ID = s.nextRoleID
	} else if !s.roles.Has(stored.ID) {
		return nil, domain.ErrRoleNotFound
	}

	s.roles.Set(stored.ID, stored)
	return stored.Clone(), nil
}

// RemoveRole implements service.CredentialAdmin. The role is revoked from
// every user holding it.
func (s *CredentialStore) RemoveRole(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles.Pop(id); !ok {
		return domain.ErrRoleNotFound
	}
	for _, userID := range s.members.Members(id) {
		if creds, ok := s.users.Get(userID); ok {
			creds.RoleIDs = slices.DeleteFunc(creds.RoleIDs, func(r int64) bool { return r == id })
		}
	}
	s.members.Drop(id)
	return nil
}

// AssignRole implements service.CredentialAdmin.
func (s *CredentialStore) AssignRole(_ context.Context, userID, roleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, ok := s.users.Get(userID)
	if !ok {
		return domain.ErrUserNotFound
	}
	if !s.roles.Has(roleID) {
		return domain.ErrRoleNotFound
	}
	if !slices.Contains(creds.RoleIDs, roleID) {
		creds.RoleIDs = normalizeIDs(append(creds.RoleIDs, roleID))
	}
	s.members.Add(roleID, userID)
	return nil
}

// RevokeRole implements service.CredentialAdmin.
func (s *CredentialStore) RevokeRole(_ context.Context, userID, roleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, ok := s.users.Get(userID)
	if !ok {
		return domain.ErrUserNotFound
	}
	creds.RoleIDs = slices.DeleteFunc(creds.RoleIDs, func(r int64) bool { return r == roleID })
	s.members.Remove(roleID, userID)
	return nil
}

// UserCount returns the number of stored users.
func (s *CredentialStore) UserCount() int {
	return s.users.Count()
}

// RoleMembers returns the ids of the users holding roleID.
func (s *CredentialStore) RoleMembers(roleID int64) []int64 {
	return s.members.Members(roleID)
}

// checkRoles reports ErrRoleNotFound for the first unknown role id.
// Caller must hold mu.
func (s *CredentialStore) checkRoles(ids []int64) error {
	for _, id := range ids {
		if !s.roles.Has(id) {
			return domain.ErrRoleNotFound.WithDetails("role " + strconv.FormatInt(id, 10))
		}
	}
	return nil
}

func normalizeIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
