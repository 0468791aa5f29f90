package files

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"index.html":       {Data: []byte("root")},
		"de/index.html":    {Data: []byte("german")},
		"de-AT/index.html": {Data: []byte("austrian")},
		"css/site.css":     {Data: []byte("body{}")},
		"de/only.html":     {Data: []byte("only german")},
	}
}

func readAll(t *testing.T, r *Resolver, name, lang string) string {
	t.Helper()
	rc, err := r.Open(name, lang)
	if err != nil {
		t.Fatalf("Open(%q, %q): %v", name, lang, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return string(data)
}

func TestResolver_LanguageFallback(t *testing.T) {
	r := New(testFS())

	tests := []struct {
		name, path, lang, want string
	}{
		{"exact tag", "/index.html", "de-AT", "austrian"},
		{"primary tag", "/index.html", "de-CH", "german"},
		{"underscore tag", "/index.html", "de_CH", "german"},
		{"no variant", "/index.html", "fr", "root"},
		{"no language", "/index.html", "", "root"},
		{"nested", "/css/site.css", "de", "body{}"},
		{"double slash", "//css//site.css", "", "body{}"},
		{"language only", "/only.html", "de", "only german"},
		{"invalid language", "/index.html", "../de", "root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !r.Exists(tt.path, tt.lang) {
				t.Fatalf("Exists(%q, %q) = false", tt.path, tt.lang)
			}
			if got := readAll(t, r, tt.path, tt.lang); got != tt.want {
				t.Fatalf("Open(%q, %q) = %q, want %q", tt.path, tt.lang, got, tt.want)
			}
		})
	}
}

func TestResolver_Missing(t *testing.T) {
	r := New(testFS())

	tests := []struct {
		name, path, lang string
	}{
		{"unknown", "/missing.html", "en"},
		{"language only without language", "/only.html", "en"},
		{"directory", "/css", ""},
		{"root", "/", ""},
		{"traversal", "/../secret", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r.Exists(tt.path, tt.lang) {
				t.Fatalf("Exists(%q, %q) = true", tt.path, tt.lang)
			}
			if _, err := r.Open(tt.path, tt.lang); err == nil {
				t.Fatalf("Open(%q, %q) succeeded", tt.path, tt.lang)
			}
		})
	}
}

func TestResolver_OpenErrors(t *testing.T) {
	r := New(testFS())

	if _, err := r.Open("/missing.html", ""); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Open(missing) = %v, want ErrNotExist", err)
	}
	if _, err := r.Open("/../x", ""); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("Open(traversal) = %v, want ErrInvalidPath", err)
	}
}

func TestCandidates(t *testing.T) {
	got := Candidates("/a/b.html", "en-US")
	want := []string{"en-US/a/b.html", "en/a/b.html", "a/b.html"}
	if !slices.Equal(got, want) {
		t.Fatalf("Candidates = %v, want %v", got, want)
	}
	if got := Candidates("/..", ""); got != nil {
		t.Fatalf("Candidates(..) = %v, want nil", got)
	}
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("disk"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Dir(root)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if got := readAll(t, r, "/index.html", "en"); got != "disk" {
		t.Fatalf("Open = %q, want disk", got)
	}

	if _, err := Dir(filepath.Join(root, "index.html")); err == nil {
		t.Fatal("Dir(file) succeeded")
	}
	if _, err := Dir(filepath.Join(root, "nope")); err == nil {
		t.Fatal("Dir(missing) succeeded")
	}
}
