package httpserver

import (
	"slices"

	"github.com/foxhorn/foxyserver/internal/core/domain"
)

// Supported request verbs.
const (
	VerbGET  = "GET"
	VerbPOST = "POST"
)

// Request is a parsed HTTP request.
//
// Everything except the required permissions is fixed once parsing ends.
type Request struct {
	Verb string
	// Path is the requested document with repeated slashes collapsed and
	// "/" rewritten to "/index.html".
	Path        string
	QueryString string
	Query       map[string]string

	Host           string
	Accept         string
	UserAgent      string
	AcceptLanguage string
	ContentLength  int

	Cookies map[string]string
	// AuthToken is the value of the auth cookie, empty when absent.
	AuthToken string

	// Body holds the final ContentLength bytes of a POST request.
	Body []byte

	// RemoteIP is the peer address of the connection.
	RemoteIP string

	permissions []domain.Permission
}

// IsGet reports whether the verb is GET.
func (r *Request) IsGet() bool { return r.Verb == VerbGET }

// IsPost reports whether the verb is POST.
func (r *Request) IsPost() bool { return r.Verb == VerbPOST }

// QueryParam returns a query parameter, or "" when absent.
func (r *Request) QueryParam(key string) string {
	return r.Query[key]
}

// Cookie returns a cookie value and whether it was sent.
func (r *Request) Cookie(name string) (string, bool) {
	v, ok := r.Cookies[name]
	return v, ok
}

// BodyString returns the body as a string.
func (r *Request) BodyString() string {
	return string(r.Body)
}

// AddPermission requires p for the request. Duplicates are ignored.
func (r *Request) AddPermission(p domain.Permission) {
	if !slices.Contains(r.permissions, p) {
		r.permissions = append(r.permissions, p)
	}
}

// RemovePermission drops the requirement for p.
func (r *Request) RemovePermission(p domain.Permission) {
	r.permissions = slices.DeleteFunc(r.permissions, func(q domain.Permission) bool { return q == p })
}

// RequiredPermissions returns a copy of the required permissions.
func (r *Request) RequiredPermissions() []domain.Permission {
	return slices.Clone(r.permissions)
}
