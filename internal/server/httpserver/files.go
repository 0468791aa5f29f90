package httpserver

import "io"

// FileResolver locates static files, optionally per language.
type FileResolver interface {
	// Exists reports whether path can be served for language.
	Exists(path, language string) bool
	// Open returns the content of path for language.
	Open(path, language string) (io.ReadCloser, error)
}
