package httpserver

import "strings"

// Content types set when a handler does not choose one.
const (
	ContentTypeHTML   = "text/html"
	ContentTypePlain  = "text/plain"
	ContentTypeJSON   = "application/json"
	ContentTypeBinary = "application/octet-stream"
)

var extensionTypes = map[string]string{
	"js":   "text/javascript",
	"css":  "text/css",
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"gif":  "image/gif",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"woff": "application/font-woff",
	"html": ContentTypeHTML,
	"map":  ContentTypeJSON,
	"ttf":  "application/x-font-ttf",
	"otf":  "application/x-font-opentype",
	"eot":  "application/vnd.ms-fontobject",
}

// ContentTypeForPath maps a file path to a content type by its extension.
// A path without an extension is served as HTML; unknown extensions as
// plain text.
func ContentTypeForPath(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx == -1 {
		return ContentTypeHTML
	}
	if ct, ok := extensionTypes[path[idx+1:]]; ok {
		return ct
	}
	return ContentTypePlain
}
