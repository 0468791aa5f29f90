package httpserver

import "strings"

// PathHandler serves every request under its path prefix.
type PathHandler interface {
	PathHandled() string
	HandleRequest(c *Context) error
}

// PermissionSetter is implemented by handlers that attach required
// permissions before the permission check runs.
type PermissionSetter interface {
	SetPermissions(c *Context)
}

// HandlerFunc adapts a function to a PathHandler.
type HandlerFunc func(c *Context) error

type funcHandler struct {
	prefix string
	fn     HandlerFunc
}

func (h funcHandler) PathHandled() string            { return h.prefix }
func (h funcHandler) HandleRequest(c *Context) error { return h.fn(c) }

// Handle returns a PathHandler serving prefix with fn.
func Handle(prefix string, fn HandlerFunc) PathHandler {
	return funcHandler{prefix: prefix, fn: fn}
}

// Router is an ordered list of path handlers.
//
// Match returns the first registered handler whose prefix starts the path.
// Overlapping prefixes resolve by registration order, not by length: with
// "/a/" registered before "/a/b/", "/a/b/x" goes to "/a/".
type Router struct {
	handlers []PathHandler
}

// NewRouter creates a router with handlers in the given order.
func NewRouter(handlers ...PathHandler) *Router {
	r := &Router{}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register appends h. Registration must finish before the server starts.
func (r *Router) Register(h PathHandler) {
	r.handlers = append(r.handlers, h)
}

// Match returns the handler for path, or nil.
func (r *Router) Match(path string) PathHandler {
	for _, h := range r.handlers {
		if strings.HasPrefix(path, h.PathHandled()) {
			return h
		}
	}
	return nil
}

// Handlers returns the handlers in registration order.
func (r *Router) Handlers() []PathHandler {
	out := make([]PathHandler, len(r.handlers))
	copy(out, r.handlers)
	return out
}
