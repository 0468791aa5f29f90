// Package files resolves static files for the HTTP server.
//
// A Resolver looks a request path up in an fs.FS, preferring a copy under
// a directory named after the response language:
//
//	de-AT/index.html, de/index.html, index.html
package files

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/foxhorn/foxyserver/internal/server/httpserver"
)

// ErrInvalidPath is returned for paths escaping the file root.
var ErrInvalidPath = errors.New("files: invalid path")

// Resolver serves files from an fs.FS.
type Resolver struct {
	fsys fs.FS
}

var _ httpserver.FileResolver = (*Resolver)(nil)

// New returns a resolver over fsys.
func New(fsys fs.FS) *Resolver {
	return &Resolver{fsys: fsys}
}

// Dir returns a resolver over the directory root.
func Dir(root string) (*Resolver, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: root, Err: errors.New("not a directory")}
	}
	return New(os.DirFS(root)), nil
}

// Exists implements httpserver.FileResolver.
func (r *Resolver) Exists(name, language string) bool {
	_, ok := r.resolve(name, language)
	return ok
}

// Open implements httpserver.FileResolver.
func (r *Resolver) Open(name, language string) (io.ReadCloser, error) {
	p, ok := r.resolve(name, language)
	if !ok {
		if _, err := cleanPath(name); err != nil {
			return nil, err
		}
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return r.fsys.Open(p)
}

// Candidates returns the lookup order for name in language.
func Candidates(name, language string) []string {
	p, err := cleanPath(name)
	if err != nil {
		return nil
	}

	var out []string
	if language != "" && fs.ValidPath(language) && !strings.Contains(language, "/") {
		out = append(out, language+"/"+p)
		if primary, _, ok := strings.Cut(language, "-"); ok && primary != "" {
			out = append(out, primary+"/"+p)
		} else if primary, _, ok := strings.Cut(language, "_"); ok && primary != "" {
			out = append(out, primary+"/"+p)
		}
	}
	return append(out, p)
}

func (r *Resolver) resolve(name, language string) (string, bool) {
	for _, p := range Candidates(name, language) {
		info, err := fs.Stat(r.fsys, p)
		if err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// cleanPath turns a request path into an fs.FS name.
func cleanPath(name string) (string, error) {
	p := strings.TrimPrefix(path.Clean("/"+name), "/")
	if p == "" || !fs.ValidPath(p) || strings.Contains(name, "..") {
		return "", ErrInvalidPath
	}
	return p, nil
}
