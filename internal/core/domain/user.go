// Package domain defines the core domain models for the Foxy server.
package domain

import "slices"

// Permission identifies a capability a user may hold.
type Permission int

// Built-in permissions used by the /auth/ administration handler.
const (
	PermissionManageUser Permission = 10
	PermissionManageRole Permission = 11
)

// GuestUserID is the user id the full auth variant assigns to guests.
const GuestUserID int64 = 0

// Credentials is a stored login identity.
type Credentials struct {
	ID           int64   `json:"id"`
	LogonName    string  `json:"logon_name"`
	PasswordHash string  `json:"password_hash,omitempty"`
	Active       bool    `json:"active"`
	Locked       bool    `json:"locked"`
	RoleIDs      []int64 `json:"role_ids,omitempty"`
}

// Clone returns a deep copy.
func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}
	clone := *c
	clone.RoleIDs = slices.Clone(c.RoleIDs)
	return &clone
}

// Public returns a copy safe to hand to clients (no password hash).
func (c *Credentials) Public() *Credentials {
	clone := c.Clone()
	if clone != nil {
		clone.PasswordHash = ""
	}
	return clone
}

// Role groups permissions.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// Clone returns a deep copy.
func (r *Role) Clone() *Role {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Permissions = slices.Clone(r.Permissions)
	return &clone
}

// User is the identity bound to a session.
type User struct {
	ID            int64
	Name          string
	Guest         bool
	Authenticated bool
	permissions   []Permission
}

// NewUser builds a User from stored credentials and the permissions granted
// to them. Id 0 marks a guest; a user is authenticated when its id is not
// negative and the account is active.
func NewUser(creds *Credentials, permissions []Permission) *User {
	if creds == nil {
		return &User{ID: -1, Name: "failed login"}
	}
	return &User{
		ID:            creds.ID,
		Name:          creds.LogonName,
		Guest:         creds.ID == GuestUserID,
		Authenticated: creds.ID >= 0 && creds.Active,
		permissions:   slices.Clone(permissions),
	}
}

// NewGuestUser builds an unauthenticated guest identity with no permissions.
func NewGuestUser(id int64, name string) *User {
	return &User{ID: id, Name: name, Guest: true}
}

// HasPermission reports whether the user holds p.
func (u *User) HasPermission(p Permission) bool {
	return slices.Contains(u.permissions, p)
}

// Permissions returns a copy of the user's permissions.
func (u *User) Permissions() []Permission {
	return slices.Clone(u.permissions)
}
