package httpserver

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/core/service"
	"github.com/foxhorn/foxyserver/internal/telemetry/logger"
)

// DefaultLanguage is used when neither the request nor the configuration
// names a language.
const DefaultLanguage = "en-US"

// ActionList is the action of a request whose first path part is empty.
const ActionList = "list"

// ContextOptions are the collaborators a Context is built with.
type ContextOptions struct {
	Auth            service.Authenticator
	Files           FileResolver
	DefaultLanguage string
	Logger          *slog.Logger
}

// Context carries one request through the pipeline. It owns the Response.
type Context struct {
	ctx      context.Context
	Request  *Request
	Response *Response

	auth            service.Authenticator
	files           FileResolver
	defaultLanguage string

	session *domain.Session

	handlerPath string
	localPath   string
	parts       []string
}

var _ service.Caller = (*Context)(nil)

// NewContext creates the context for req.
func NewContext(ctx context.Context, req *Request, opts ContextOptions) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Logger != nil {
		ctx = logger.WithLogger(ctx, opts.Logger)
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = DefaultLanguage
	}
	return &Context{
		ctx:             ctx,
		Request:         req,
		Response:        NewResponse(),
		auth:            opts.Auth,
		files:           opts.Files,
		defaultLanguage: opts.DefaultLanguage,
	}
}

// Context returns the request-scoped context.Context.
func (c *Context) Context() context.Context { return c.ctx }

// Logger returns the logger carried by the request context.
func (c *Context) Logger() *slog.Logger { return logger.FromContext(c.ctx) }

// Auth returns the authenticator serving the request.
func (c *Context) Auth() service.Authenticator { return c.auth }

// Files returns the file resolver.
func (c *Context) Files() FileResolver { return c.files }

// Session returns the session bound to the request.
func (c *Context) Session() *domain.Session { return c.session }

// SetSession rebinds the request to s, as after a login or logout.
func (c *Context) SetSession(s *domain.Session) { c.session = s }

// RemoteHost returns the peer IP address.
func (c *Context) RemoteHost() string { return c.Request.RemoteIP }

// RequiredPermissions returns the permissions the request requires.
func (c *Context) RequiredPermissions() []domain.Permission {
	return c.Request.RequiredPermissions()
}

// BindPath records the prefix of the matched handler and splits the rest
// of the path into parts. A trailing empty part is dropped.
func (c *Context) BindPath(prefix string) {
	c.handlerPath = prefix
	c.localPath = strings.TrimPrefix(c.Request.Path, prefix)
	c.parts = strings.Split(c.localPath, "/")
	for len(c.parts) > 0 && c.parts[len(c.parts)-1] == "" {
		c.parts = c.parts[:len(c.parts)-1]
	}
}

// HandlerPath returns the prefix of the matched handler.
func (c *Context) HandlerPath() string { return c.handlerPath }

// LocalPath returns the request path with the handler prefix removed.
func (c *Context) LocalPath() string { return c.localPath }

// PathParts returns the local path parts.
func (c *Context) PathParts() []string { return c.parts }

// PathPart returns part i of the local path, "" when absent.
func (c *Context) PathPart(i int) string {
	if i < 0 || i >= len(c.parts) {
		return ""
	}
	return c.parts[i]
}

// Action returns part 0, or ActionList when it is empty.
func (c *Context) Action() string {
	if a := c.PathPart(0); a != "" {
		return a
	}
	return ActionList
}

// EntityID parses part 1 as an id, -1 when absent or not a number.
func (c *Context) EntityID() int64 {
	id, err := strconv.ParseInt(c.PathPart(1), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

// ResponseLanguage returns the first tag of Accept-Language, or the
// configured default.
func (c *Context) ResponseLanguage() string {
	lang := c.Request.AcceptLanguage
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}
	if lang = strings.TrimSpace(lang); lang == "" || lang == "*" {
		return c.defaultLanguage
	}
	return lang
}

// Process serializes the response once.
func (c *Context) Process(w io.Writer) error {
	opts := ProcessOptions{
		Files:    c.files,
		Language: c.ResponseLanguage(),
		Session:  c.session,
	}
	if c.auth != nil && c.auth.AuthCookieEnabled() {
		opts.CookieName = c.auth.TokenName()
	}
	return c.Response.Process(w, opts)
}
