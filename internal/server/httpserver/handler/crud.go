package handler

import (
	"github.com/foxhorn/foxyserver/internal/server/httpserver"
)

// CRUD action names.
const (
	ActionList   = httpserver.ActionList
	ActionView   = "view"
	ActionCreate = "create"
	ActionModify = "modify"
	ActionRemove = "remove"
)

// CRUDController serves the five CRUD actions of one entity. The entity
// id, when the action takes one, is c.EntityID().
type CRUDController interface {
	List(c *httpserver.Context) error
	View(c *httpserver.Context) error
	Create(c *httpserver.Context) error
	Modify(c *httpserver.Context) error
	Remove(c *httpserver.Context) error
}

// NonCRUDController is implemented by controllers serving actions beyond
// the five CRUD ones. Without it such actions are answered with a 404.
type NonCRUDController interface {
	NonCRUD(c *httpserver.Context) error
}

// CRUD returns a mux dispatching list, view, create, modify and remove
// under prefix to ctrl.
func CRUD(prefix string, ctrl CRUDController) *ActionMux {
	m := NewActionMux(prefix).
		Handle(ActionList, ctrl.List).
		Handle(ActionView, ctrl.View).
		Handle(ActionCreate, ctrl.Create).
		Handle(ActionModify, ctrl.Modify).
		Handle(ActionRemove, ctrl.Remove)
	if nc, ok := ctrl.(NonCRUDController); ok {
		m.Fallback(nc.NonCRUD)
	}
	return m
}
