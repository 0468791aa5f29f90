package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/dgraph-io/badger/v3"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/core/service"
)

// GuestLogonName is the logon name of the guest credentials.
const GuestLogonName = "Guest"

var (
	userPrefix  = []byte("user/")
	logonPrefix = []byte("logon/")
	rolePrefix  = []byte("role/")

	userSeqKey = []byte("seq/user")
	roleSeqKey = []byte("seq/role")
)

// BadgerCredentialStore is a credential provider persisted in Badger.
type BadgerCredentialStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	userSeq *badger.Sequence
	roleSeq *badger.Sequence

	guestPermissions []domain.Permission

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64
	closed     atomic.Bool

	stopCh chan struct{}
	doneCh chan struct{}
}

var (
	_ service.CredentialProvider = (*BadgerCredentialStore)(nil)
	_ service.CredentialAdmin    = (*BadgerCredentialStore)(nil)
)

// Option configures the BadgerCredentialStore.
type Option func(*BadgerCredentialStore)

// WithGuestPermissions sets the permissions granted to guests.
func WithGuestPermissions(perms ...domain.Permission) Option {
	return func(s *BadgerCredentialStore) {
		s.guestPermissions = slices.Clone(perms)
	}
}

// OpenBadger opens the credential store described by cfg and starts the
// value log GC loop.
func OpenBadger(cfg BadgerConfig, logger *slog.Logger, opts ...Option) (*BadgerCredentialStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "storage")

	db, err := openBadger(cfg, logger)
	if err != nil {
		return nil, err
	}

	userSeq, err := db.GetSequence(userSeqKey, sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("badger: user sequence: %w", err)
	}
	roleSeq, err := db.GetSequence(roleSeqKey, sequenceBandwidth)
	if err != nil {
		userSeq.Release()
		db.Close()
		return nil, fmt.Errorf("badger: role sequence: %w", err)
	}

	s := &BadgerCredentialStore{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		userSeq: userSeq,
		roleSeq: roleSeq,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.gcLoop()

	logger.Info("credential store opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)
	return s, nil
}

// FetchByLogin implements service.CredentialProvider.
func (s *BadgerCredentialStore) FetchByLogin(_ context.Context, logonName, password string) (*domain.Credentials, error) {
	var creds *domain.Credentials
	err := s.view(func(txn *badger.Txn) error {
		id, err := lookupLogon(txn, logonName)
		if err != nil || id == 0 {
			return err
		}
		creds, err = getUser(txn, id)
		return err
	})
	if err != nil || creds == nil {
		return nil, err
	}
	if !creds.Active || creds.Locked {
		return nil, nil
	}
	if !domain.VerifyPassword(password, creds.PasswordHash) {
		return nil, nil
	}
	return creds, nil
}

// CreateGuestCredentials implements service.CredentialProvider.
func (s *BadgerCredentialStore) CreateGuestCredentials(context.Context) (*domain.Credentials, error) {
	return &domain.Credentials{ID: domain.GuestUserID, LogonName: GuestLogonName}, nil
}

// LockCredentials implements service.CredentialProvider.
func (s *BadgerCredentialStore) LockCredentials(_ context.Context, id int64) (*domain.Credentials, error) {
	return s.setLocked(id, true)
}

// UnlockCredentials implements service.CredentialProvider.
func (s *BadgerCredentialStore) UnlockCredentials(_ context.Context, id int64) (*domain.Credentials, error) {
	return s.setLocked(id, false)
}

func (s *BadgerCredentialStore) setLocked(id int64, locked bool) (*domain.Credentials, error) {
	var out *domain.Credentials
	err := s.update(func(txn *badger.Txn) error {
		out = nil
		creds, err := getUser(txn, id)
		if err != nil || creds == nil {
			return err
		}
		creds.Locked = locked
		if err := putJSON(txn, userKey(id), creds); err != nil {
			return err
		}
		out = creds.Public()
		return nil
	})
	return out, err
}

// PermissionsForUser implements service.CredentialProvider.
func (s *BadgerCredentialStore) PermissionsForUser(_ context.Context, id int64) ([]domain.Permission, error) {
	if id == domain.GuestUserID {
		return slices.Clone(s.guestPermissions), nil
	}

	var perms []domain.Permission
	err := s.view(func(txn *badger.Txn) error {
		creds, err := getUser(txn, id)
		if err != nil || creds == nil {
			return err
		}
		for _, roleID := range creds.RoleIDs {
			role, err := getRole(txn, roleID)
			if err != nil {
				return err
			}
			if role != nil {
				perms = append(perms, role.Permissions...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(perms)
	return slices.Compact(perms), nil
}

// ListUsers implements service.CredentialAdmin. Users are ordered by id.
func (s *BadgerCredentialStore) ListUsers(context.Context) ([]*domain.Credentials, error) {
	var users []*domain.Credentials
	err := s.view(func(txn *badger.Txn) error {
		return scanPrefix(txn, userPrefix, func(val []byte) error {
			var c domain.Credentials
			if err := json.Unmarshal(val, &c); err != nil {
				return err
			}
			users = append(users, &c)
			return nil
		})
	})
	return users, err
}

// GetUser implements service.CredentialAdmin.
func (s *BadgerCredentialStore) GetUser(_ context.Context, id int64) (*domain.Credentials, error) {
	var creds *domain.Credentials
	err := s.view(func(txn *badger.Txn) error {
		var err error
		creds, err = getUser(txn, id)
		return err
	})
	return creds, err
}

// SaveUser implements service.CredentialAdmin.
func (s *BadgerCredentialStore) SaveUser(_ context.Context, creds *domain.Credentials) (*domain.Credentials, error) {
	if creds == nil || creds.LogonName == "" {
		return nil, domain.ErrMissingArgument.WithDetails("logon_name")
	}

	var out *domain.Credentials
	err := s.update(func(txn *badger.Txn) error {
		if err := checkRoles(txn, creds.RoleIDs); err != nil {
			return err
		}
		owner, err := lookupLogon(txn, creds.LogonName)
		if err != nil {
			return err
		}
		if owner != 0 && owner != creds.ID {
			return domain.ErrLogonConflict.WithDetails(creds.LogonName)
		}

		stored := creds.Clone()
		stored.RoleIDs = normalizeIDs(stored.RoleIDs)

		if stored.ID <= 0 {
			n, err := s.userSeq.Next()
			if err != nil {
				return err
			}
			stored.ID = int64(n) + 1
		} else {
			existing, err := getUser(txn, stored.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				return domain.ErrUserNotFound
			}
			stored.PasswordHash = existing.PasswordHash
			if existing.LogonName != stored.LogonName {
				if err := txn.Delete(logonKey(existing.LogonName)); err != nil {
					return err
				}
			}
		}

		if err := putJSON(txn, userKey(stored.ID), stored); err != nil {
			return err
		}
		if err := txn.Set(logonKey(stored.LogonName), encodeID(stored.ID)); err != nil {
			return err
		}
		out = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// RemoveUser implements service.CredentialAdmin.
func (s *BadgerCredentialStore) RemoveUser(_ context.Context, id int64) error {
	return s.update(func(txn *badger.Txn) error {
		creds, err := getUser(txn, id)
		if err != nil {
			return err
		}
		if creds == nil {
			return domain.ErrUserNotFound
		}
		if err := txn.Delete(logonKey(creds.LogonName)); err != nil {
			return err
		}
		return txn.Delete(userKey(id))
	})
}

// ChangePassword implements service.CredentialAdmin.
func (s *BadgerCredentialStore) ChangePassword(_ context.Context, id int64, password string) error {
	hash, err := domain.HashPassword(password)
	if err != nil {
		return err
	}
	return s.modifyUser(id, func(c *domain.Credentials) {
		c.PasswordHash = hash
	})
}

// ListRoles implements service.CredentialAdmin. Roles are ordered by id.
func (s *BadgerCredentialStore) ListRoles(context.Context) ([]*domain.Role, error) {
	var roles []*domain.Role
	err := s.view(func(txn *badger.Txn) error {
		return scanPrefix(txn, rolePrefix, func(val []byte) error {
			var r domain.Role
			if err := json.Unmarshal(val, &r); err != nil {
				return err
			}
			roles = append(roles, &r)
			return nil
		})
	})
	return roles, err
}

// GetRole implements service.CredentialAdmin.
func (s *BadgerCredentialStore) GetRole(_ context.Context, id int64) (*domain.Role, error) {
	var role *domain.Role
	err := s.view(func(txn *badger.Txn) error {
		var err error
		role, err = getRole(txn, id)
		return err
	})
	return role, err
}

// SaveRole implements service.CredentialAdmin.
func (s *BadgerCredentialStore) SaveRole(_ context.Context, role *domain.Role) (*domain.Role, error) {
	if role == nil || role.Name == "" {
		return nil, domain.ErrMissingArgument.WithDetails("name")
	}

	stored := role.Clone()
	slices.Sort(stored.Permissions)
	stored.Permissions = slices.Compact(stored.Permissions)

	err := s.update(func(txn *badger.Txn) error {
		stored.ID = role.ID
		if stored.ID <= 0 {
			n, err := s.roleSeq.Next()
			if err != nil {
				return err
			}
			stored.ID = int64(n) + 1
		} else {
			existing, err := getRole(txn, stored.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				return domain.ErrRoleNotFound
			}
		}
		return putJSON(txn, roleKey(stored.ID), stored)
	})
	if err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

// RemoveRole implements service.CredentialAdmin. The role is revoked from
// every user holding it.
func (s *BadgerCredentialStore) RemoveRole(_ context.Context, id int64) error {
	return s.update(func(txn *badger.Txn) error {
		existing, err := getRole(txn, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrRoleNotFound
		}

		var holders []*domain.Credentials
		err = scanPrefix(txn, userPrefix, func(val []byte) error {
			var c domain.Credentials
			if err := json.Unmarshal(val, &c); err != nil {
				return err
			}
			if slices.Contains(c.RoleIDs, id) {
				holders = append(holders, &c)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, c := range holders {
			c.RoleIDs = slices.DeleteFunc(c.RoleIDs, func(r int64) bool { return r == id })
			if err := putJSON(txn, userKey(c.ID), c); err != nil {
				return err
			}
		}
		return txn.Delete(roleKey(id))
	})
}

// AssignRole implements service.CredentialAdmin.
func (s *BadgerCredentialStore) AssignRole(_ context.Context, userID, roleID int64) error {
	return s.update(func(txn *badger.Txn) error {
		creds, err := getUser(txn, userID)
		if err != nil {
			return err
		}
		if creds == nil {
			return domain.ErrUserNotFound
		}
		if err := checkRoles(txn, []int64{roleID}); err != nil {
			return err
		}
		if slices.Contains(creds.RoleIDs, roleID) {
			return nil
		}
		creds.RoleIDs = normalizeIDs(append(creds.RoleIDs, roleID))
		return putJSON(txn, userKey(userID), creds)
	})
}

// RevokeRole implements service.CredentialAdmin.
func (s *BadgerCredentialStore) RevokeRole(_ context.Context, userID, roleID int64) error {
	return s.modifyUser(userID, func(c *domain.Credentials) {
		c.RoleIDs = slices.DeleteFunc(c.RoleIDs, func(r int64) bool { return r == roleID })
	})
}

// UserCount returns the number of stored users.
func (s *BadgerCredentialStore) UserCount() int {
	n := 0
	_ = s.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = userPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n
}

// modifyUser applies fn to the stored user and writes it back.
func (s *BadgerCredentialStore) modifyUser(id int64, fn func(*domain.Credentials)) error {
	return s.update(func(txn *badger.Txn) error {
		creds, err := getUser(txn, id)
		if err != nil {
			return err
		}
		if creds == nil {
			return domain.ErrUserNotFound
		}
		fn(creds)
		return putJSON(txn, userKey(id), creds)
	})
}

func userKey(id int64) []byte {
	return append(slices.Clone(userPrefix), encodeID(id)...)
}

func roleKey(id int64) []byte {
	return append(slices.Clone(rolePrefix), encodeID(id)...)
}

func logonKey(name string) []byte {
	return append(slices.Clone(logonPrefix), name...)
}

// encodeID encodes id big endian so prefix iteration yields id order.
func encodeID(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func decodeID(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid id length %d", len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// getJSON decodes the value at key into v. It reports false when the key
// does not exist.
func getJSON(txn *badger.Txn, key []byte, v any) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func putJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func getUser(txn *badger.Txn, id int64) (*domain.Credentials, error) {
	var c domain.Credentials
	ok, err := getJSON(txn, userKey(id), &c)
	if !ok || err != nil {
		return nil, err
	}
	return &c, nil
}

func getRole(txn *badger.Txn, id int64) (*domain.Role, error) {
	var r domain.Role
	ok, err := getJSON(txn, roleKey(id), &r)
	if !ok || err != nil {
		return nil, err
	}
	return &r, nil
}

// lookupLogon returns the id owning name, or zero.
func lookupLogon(txn *badger.Txn, name string) (int64, error) {
	item, err := txn.Get(logonKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	return decodeID(val)
}

// scanPrefix calls fn with every value under prefix in key order.
func scanPrefix(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

// checkRoles reports ErrRoleNotFound for the first unknown role id.
func checkRoles(txn *badger.Txn, ids []int64) error {
	for _, id := range ids {
		role, err := getRole(txn, id)
		if err != nil {
			return err
		}
		if role == nil {
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
