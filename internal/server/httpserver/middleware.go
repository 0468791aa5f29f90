package httpserver

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/foxhorn/foxyserver/internal/core/domain"
)

// Middleware wraps the dispatch of a matched handler.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain chains multiple middlewares together. The first middleware is the
// outermost.
func Chain(h HandlerFunc, middlewares ...Middleware) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Recover turns a panic inside the handler into an error carrying the
// panic value, so the pipeline answers 500 instead of dropping the
// connection.
func Recover(logger *slog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"error", rec,
						"path", c.Request.Path,
						"stack", string(debug.Stack()),
					)
					err = fmt.Errorf("%v", rec)
				}
			}()
			return next(c)
		}
	}
}

type permissionHandler struct {
	PathHandler
	perms []domain.Permission
}

func (h permissionHandler) SetPermissions(c *Context) {
	if ps, ok := h.PathHandler.(PermissionSetter); ok {
		ps.SetPermissions(c)
	}
	for _, p := range h.perms {
		c.Request.AddPermission(p)
	}
}

// RequirePermissions wraps h so every request it serves requires perms.
func RequirePermissions(h PathHandler, perms ...domain.Permission) PathHandler {
	return permissionHandler{PathHandler: h, perms: perms}
}
