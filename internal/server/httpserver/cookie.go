package httpserver

import (
	"regexp"
	"strings"
)

var cookiePattern = regexp.MustCompile(`([^=]+)=([^;]*);?\s?`)

// parseCookies tokenizes a Cookie header value into name/value pairs.
// Names and values are trimmed; a repeated name keeps the last value.
func parseCookies(header string) map[string]string {
	cookies := make(map[string]string)
	for _, m := range cookiePattern.FindAllStringSubmatch(header, -1) {
		cookies[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
	}
	return cookies
}
