package handler

import (
	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/server/httpserver"
)

type action struct {
	fn    httpserver.HandlerFunc
	perms []domain.Permission
}

// ActionMux dispatches requests under a prefix by their action, the first
// part of the local path ("list" when empty).
//
// Each action may require permissions; they are attached before the
// server's permission check runs. Unknown actions go to the fallback, a
// 404 by default.
type ActionMux struct {
	prefix   string
	actions  map[string]action
	fallback httpserver.HandlerFunc
}

var (
	_ httpserver.PathHandler      = (*ActionMux)(nil)
	_ httpserver.PermissionSetter = (*ActionMux)(nil)
)

// NewActionMux creates an empty mux serving prefix.
func NewActionMux(prefix string) *ActionMux {
	return &ActionMux{
		prefix:  prefix,
		actions: make(map[string]action),
	}
}

// Handle registers fn for the named action. A later registration of the
// same name replaces the earlier one.
func (m *ActionMux) Handle(name string, fn httpserver.HandlerFunc, perms ...domain.Permission) *ActionMux {
	m.actions[name] = action{fn: fn, perms: perms}
	return m
}

// Fallback sets the handler for unknown actions.
func (m *ActionMux) Fallback(fn httpserver.HandlerFunc) *ActionMux {
	m.fallback = fn
	return m
}

// PathHandled implements httpserver.PathHandler.
func (m *ActionMux) PathHandled() string { return m.prefix }

// SetPermissions implements httpserver.PermissionSetter.
func (m *ActionMux) SetPermissions(c *httpserver.Context) {
	if a, ok := m.actions[c.Action()]; ok {
		for _, p := range a.perms {
			c.Request.AddPermission(p)
		}
	}
}

// HandleRequest implements httpserver.PathHandler.
func (m *ActionMux) HandleRequest(c *httpserver.Context) error {
	if a, ok := m.actions[c.Action()]; ok {
		return a.fn(c)
	}
	if m.fallback != nil {
		return m.fallback(c)
	}
	c.Response.NotFound()
	return nil
}
