// Package token provides hashing and secret generation utilities.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Hasher produces a deterministic digest of a string.
type Hasher interface {
	HashString(input string) string
}

// SHA256 is the default Hasher. Output is lower-case hex.
type SHA256 struct{}

// HashString implements Hasher.
func (SHA256) HashString(input string) string {
	return Hash(input)
}

// Hash computes the hex encoded SHA-256 hash of a string.
func Hash(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Identity is the set of inputs an auth token is derived from.
type Identity struct {
	UserID   int64
	Username string
	RemoteIP string
	Salt     string
	DeviceID string
	Start    time.Time
}

// Secret returns salt|deviceID|startMillis.
func (id Identity) Secret() string {
	return join(id.Salt, id.DeviceID, strconv.FormatInt(id.Start.UnixMilli(), 10))
}

// Derive computes the auth token for an identity using h.
// A nil Hasher falls back to SHA256.
func Derive(h Hasher, id Identity) string {
	if h == nil {
		h = SHA256{}
	}
	return h.HashString(join(
		strconv.FormatInt(id.UserID, 10),
		id.Username,
		id.RemoteIP,
		id.Secret(),
	))
}

func join(parts ...string) string {
	return strings.Join(parts, "|")
}
