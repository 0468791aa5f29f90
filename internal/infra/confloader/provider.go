package confloader

import (
	"errors"
	"strings"
)

// ErrReadBytesNotSupported is returned when ReadBytes is called on a map provider.
var ErrReadBytesNotSupported = errors.New("confloader: map provider only supports Read")

// mapProvider is a koanf provider over dotted keys, used for flag overrides.
type mapProvider map[string]any

// ReadBytes implements koanf.Provider.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read implements koanf.Provider. Dotted keys are expanded into nested maps.
func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for key, value := range m {
		insertDotted(out, key, value)
	}
	return out, nil
}

func insertDotted(dst map[string]any, key string, value any) {
	for {
		head, rest, ok := strings.Cut(key, ".")
		if !ok {
			dst[key] = value
			return
		}
		child, isMap := dst[head].(map[string]any)
		if !isMap {
			child = make(map[string]any)
			dst[head] = child
		}
		dst, key = child, rest
	}
}
