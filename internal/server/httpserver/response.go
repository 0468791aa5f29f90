package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/infra/buildinfo"
)

// NotFoundBody is the body of every 404 produced by the engine.
const NotFoundBody = "not found"

// fileBlockSize is the block size used when loading a file body.
const fileBlockSize = 2048

// Debug headers exposing the session identity on every response.
const (
	HeaderDebugUserID   = "X-DEBUG-AuthUser-UserId"
	HeaderDebugUserName = "X-DEBUG-AuthUser-Name"
)

// ServerHeader is the value of the Server response header.
var ServerHeader = buildinfo.ServerName()

type bodyMode int

const (
	bodyUnset bodyMode = iota
	bodyString
	bodyFile
	bodyRaw
)

type header struct {
	name, value string
}

// Response accumulates the status, headers and body of one reply.
//
// Exactly one body representation is held at a time; setting one replaces
// the others. A Response is serialized at most once.
type Response struct {
	status      int
	headers     []header
	contentType string

	mode bodyMode
	body string
	file string
	raw  []byte

	extra     []byte
	processed bool
}

// NewResponse returns a response pre-seeded with the Server and
// Connection: close headers.
func NewResponse() *Response {
	return &Response{
		headers: []header{
			{"Server", ServerHeader},
			{"Connection", "close"},
		},
	}
}

// Status returns the status code, 200 when unset.
func (r *Response) Status() int {
	if r.status == 0 {
		return StatusOK
	}
	return r.status
}

// SetStatus sets the status code.
func (r *Response) SetStatus(code int) { r.status = code }

// SetHeader sets a header, replacing an earlier value of the same name.
func (r *Response) SetHeader(name, value string) {
	for i := range r.headers {
		if r.headers[i].name == name {
			r.headers[i].value = value
			return
		}
	}
	r.headers = append(r.headers, header{name, value})
}

// Header returns a header value set on the response.
func (r *Response) Header(name string) string {
	for _, h := range r.headers {
		if h.name == name {
			return h.value
		}
	}
	return ""
}

// SetContentType overrides the content type.
func (r *Response) SetContentType(ct string) { r.contentType = ct }

// ContentType returns the explicitly set content type.
func (r *Response) ContentType() string { return r.contentType }

// SetString replies with a literal string.
func (r *Response) SetString(body string) {
	r.mode, r.body, r.file, r.raw = bodyString, body, "", nil
}

// SetFile replies with the file at path, resolved for the request language
// when the response is processed.
func (r *Response) SetFile(path string) {
	r.mode, r.body, r.file, r.raw = bodyFile, "", path, nil
}

// SetRaw replies with raw bytes.
func (r *Response) SetRaw(data []byte) {
	r.mode, r.body, r.file, r.raw = bodyRaw, "", "", data
}

// SetJSON replies with v encoded as JSON.
func (r *Response) SetJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.SetRaw(data)
	r.contentType = ContentTypeJSON
	return nil
}

// SetExtra appends data after a file body. Raw and string bodies ignore it.
func (r *Response) SetExtra(data []byte) { r.extra = data }

// SetRedirect sets status 302 and the Location header.
func (r *Response) SetRedirect(location string) {
	r.status = StatusFound
	r.SetHeader("Location", location)
}

// NotFound reconfigures the response as the plain-text 404.
func (r *Response) NotFound() {
	r.SetString(NotFoundBody)
	r.status = StatusNotFound
	r.contentType = ContentTypePlain
	r.extra = nil
}

// Fail reconfigures the response as a plain-text error with status code.
func (r *Response) Fail(code int, message string) {
	r.SetString(message)
	r.status = code
	r.contentType = ContentTypePlain
	r.extra = nil
}

// Processed reports whether the response has been serialized.
func (r *Response) Processed() bool { return r.processed }

// ProcessOptions are the collaborators a response needs when serialized.
type ProcessOptions struct {
	// Files resolves file bodies. Nil turns every file body into a 404.
	Files    FileResolver
	Language string

	// Session identifies the caller in the debug headers and the auth
	// cookie. Nil omits both.
	Session *domain.Session
	// CookieName, when set, stamps Set-Cookie with the session token.
	CookieName string
}

// Process serializes the response to w. Only the first call writes; later
// calls return nil without output.
func (r *Response) Process(w io.Writer, opts ProcessOptions) error {
	if r.processed {
		return nil
	}
	r.processed = true

	body, contentType := r.resolveBody(opts)

	var buf bytes.Buffer
	buf.Grow(256 + len(body))
	buf.WriteString(statusLine(r.Status()))
	buf.WriteString("\r\n")
	for _, h := range r.headers {
		writeHeader(&buf, h.name, h.value)
	}
	writeHeader(&buf, "Content-Length", strconv.Itoa(len(body)))
	writeHeader(&buf, "Content-Type", contentType)
	if opts.Session != nil {
		if opts.CookieName != "" {
			writeHeader(&buf, "Set-Cookie", opts.CookieName+"="+opts.Session.Token()+"; path=/; HttpOnly")
		}
		user := opts.Session.User()
		writeHeader(&buf, HeaderDebugUserID, strconv.FormatInt(user.ID, 10))
		writeHeader(&buf, HeaderDebugUserName, user.Name)
	}
	buf.WriteString("\r\n")
	buf.Write(body)

	_, err := w.Write(buf.Bytes())
	return err
}

// resolveBody materializes the body bytes, with the extra bytes after a file
// body, and the content type. A file that cannot be found or read becomes the 404.
func (r *Response) resolveBody(opts ProcessOptions) ([]byte, string) {
	switch r.mode {
	case bodyRaw:
		return r.raw, r.contentTypeOr(ContentTypeBinary)
	case bodyFile:
		data, ok := r.loadFile(opts)
		if !ok {
			r.NotFound()
			return []byte(r.body), r.contentType
		}
		return r.withExtra(data), r.contentTypeOr(ContentTypeForPath(r.file))
	case bodyString:
		return []byte(r.body), r.contentTypeOr(ContentTypeHTML)
	default:
		return nil, r.contentTypeOr(ContentTypePlain)
	}
}

func (r *Response) loadFile(opts ProcessOptions) ([]byte, bool) {
	if opts.Files == nil || !opts.Files.Exists(r.file, opts.Language) {
		return nil, false
	}
	rc, err := opts.Files.Open(r.file, opts.Language)
	if err != nil {
		return nil, false
	}
	defer rc.Close()

	var data bytes.Buffer
	if _, err := io.CopyBuffer(&data, rc, make([]byte, fileBlockSize)); err != nil {
		return nil, false
	}
	return data.Bytes(), true
}

func (r *Response) withExtra(body []byte) []byte {
	if len(r.extra) == 0 {
		return body
	}
	out := make([]byte, 0, len(body)+len(r.extra))
	return append(append(out, body...), r.extra...)
}

func (r *Response) contentTypeOr(fallback string) string {
	if r.contentType != "" {
		return r.contentType
	}
	return fallback
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}
