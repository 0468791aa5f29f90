package httpserver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// readChunkSize is the size of each socket read.
const readChunkSize = 128

// DefaultMaxRequestBytes bounds a request when no limit is configured.
const DefaultMaxRequestBytes = 1 << 20

// Parse errors. The pipeline answers all of them with 400 Bad Request.
var (
	ErrUnsupportedVerb  = errors.New("unsupported request verb")
	ErrMalformedRequest = errors.New("malformed request")
	ErrRequestTooLarge  = errors.New("request too large")
	// ErrEmptyRequest means the peer closed without sending anything.
	ErrEmptyRequest = errors.New("empty request")
	// ErrIncompleteRequest means the read deadline passed after the request
	// line arrived but before the request ended.
	ErrIncompleteRequest = errors.New("incomplete request")
)

// ReadRequest reads one request from r in fixed-size chunks.
//
// Reading stops once the header block has ended and the body declared by
// Content-Length has fully arrived, or when the peer closes its side. A short
// read alone does not end the request, so bodies split across TCP segments
// are read whole. A read deadline that passes once the request line is in
// yields ErrIncompleteRequest; before that the read error is returned as is.
func ReadRequest(r io.Reader, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestBytes
	}

	buf := make([]byte, readChunkSize)
	var raw []byte
	for {
		n, err := r.Read(buf)
		raw = append(raw, buf[:n]...)
		if len(raw) > maxBytes {
			return raw, ErrRequestTooLarge
		}
		if requestComplete(raw) {
			return raw, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(raw) == 0 {
					return nil, ErrEmptyRequest
				}
				return raw, nil
			}
			if errors.Is(err, os.ErrDeadlineExceeded) && hasRequestLine(raw) {
				return raw, fmt.Errorf("%w: %w", ErrIncompleteRequest, err)
			}
			return raw, err
		}
	}
}

// hasRequestLine reports whether raw holds a full first non-blank line.
func hasRequestLine(raw []byte) bool {
	return bytes.IndexByte(bytes.TrimLeft(raw, "\r\n"), '\n') >= 0
}

// requestComplete reports whether raw holds a full header block and the
// declared body.
func requestComplete(raw []byte) bool {
	end, bodyStart := headerBoundary(raw)
	if end < 0 {
		return false
	}
	return len(raw)-bodyStart >= declaredContentLength(raw[:end])
}

// headerBoundary locates the blank line ending the header block. It returns
// the offset of the blank line and of the first body byte, or -1, -1.
func headerBoundary(raw []byte) (end, bodyStart int) {
	start := 0
	for start < len(raw) && (raw[start] == '\r' || raw[start] == '\n') {
		start++
	}

	end, bodyStart = -1, -1
	if i := bytes.Index(raw[start:], []byte("\r\n\r\n")); i >= 0 {
		end, bodyStart = start+i, start+i+4
	}
	if i := bytes.Index(raw[start:], []byte("\n\n")); i >= 0 && (end < 0 || start+i < end) {
		end, bodyStart = start+i, start+i+2
	}
	return end, bodyStart
}

func declaredContentLength(header []byte) int {
	for _, line := range strings.Split(string(header), "\n") {
		if v, ok := strings.CutPrefix(line, "Content-Length:"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 {
				return 0
			}
			return n
		}
	}
	return 0
}

// Parse turns raw request bytes into a Request.
//
// The first non-blank line must start with "GET " or "POST " and carry the
// path before " HTTP/". Header lines are matched by their literal prefix and
// the first occurrence of each wins; scanning stops at the first blank line.
// When tokenName names a sent cookie, its value becomes the auth token.
func Parse(raw []byte, tokenName string) (*Request, error) {
	lines := strings.Split(string(raw), "\n")

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) {
		return nil, fmt.Errorf("%w: no request line", ErrMalformedRequest)
	}

	req := &Request{
		Query:   make(map[string]string),
		Cookies: make(map[string]string),
	}
	if err := parseRequestLine(req, strings.TrimRight(lines[i], "\r")); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, line := range lines[i+1:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			break
		}
		name, value, ok := matchHeader(line)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case "Host":
			req.Host = value
		case "Accept":
			req.Accept = value
		case "User-Agent":
			req.UserAgent = value
		case "Accept-Language":
			req.AcceptLanguage = value
		case "Content-Length":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: bad Content-Length %q", ErrMalformedRequest, value)
			}
			req.ContentLength = n
		case "Cookie":
			req.Cookies = parseCookies(value)
			if tokenName != "" {
				req.AuthToken = req.Cookies[tokenName]
			}
		}
	}

	if req.IsPost() && req.ContentLength > 0 {
		req.Body = extractBody(raw, req.ContentLength)
	}
	return req, nil
}

func parseRequestLine(req *Request, line string) error {
	var rest string
	switch {
	case strings.HasPrefix(line, VerbGET+" "):
		req.Verb, rest = VerbGET, line[len(VerbGET)+1:]
	case strings.HasPrefix(line, VerbPOST+" "):
		req.Verb, rest = VerbPOST, line[len(VerbPOST)+1:]
	default:
		verb, _, _ := strings.Cut(line, " ")
		if len(verb) > 16 {
			verb = verb[:16]
		}
		return fmt.Errorf("%w: %q", ErrUnsupportedVerb, verb)
	}

	idx := strings.Index(rest, " HTTP/")
	if idx < 0 {
		return fmt.Errorf("%w: missing HTTP version", ErrMalformedRequest)
	}
	target := collapseSlashes(rest[:idx])
	if target == "" {
		return fmt.Errorf("%w: empty path", ErrMalformedRequest)
	}

	path, query, hasQuery := strings.Cut(target, "?")
	if hasQuery {
		req.QueryString = query
		req.Query = parseQuery(query)
	}
	if path == "/" {
		path = "/index.html"
	}
	req.Path = path
	return nil
}

var consumedHeaders = []string{"Host", "Accept", "User-Agent", "Accept-Language", "Content-Length", "Cookie"}

// matchHeader matches line against the consumed header prefixes.
func matchHeader(line string) (name, value string, ok bool) {
	for _, h := range consumedHeaders {
		if v, found := strings.CutPrefix(line, h+":"); found {
			return h, strings.TrimSpace(v), true
		}
	}
	return "", "", false
}

// parseQuery keeps pairs containing exactly one '='. Keys and values are
// URL-decoded when valid; a later duplicate key wins.
func parseQuery(query string) map[string]string {
	params := make(map[string]string)
	for _, pair := range strings.Split(query, "&") {
		kv := strings.Split(pair, "=")
		if len(kv) != 2 {
			continue
		}
		params[unescape(kv[0])] = unescape(kv[1])
	}
	return params
}

func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

// collapseSlashes replaces every run of '/' with a single '/'.
func collapseSlashes(p string) string {
	if !strings.Contains(p, "//") {
		return p
	}
	var b strings.Builder
	b.Grow(len(p))
	prevSlash := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// extractBody returns the final n bytes of raw, never reaching back into
// the header block.
func extractBody(raw []byte, n int) []byte {
	_, bodyStart := headerBoundary(raw)
	if bodyStart < 0 {
		return nil
	}
	start := len(raw) - n
	if start < bodyStart {
		start = bodyStart
	}
	return bytes.Clone(raw[start:])
}
