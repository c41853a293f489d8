// Package token produces the opaque bearer values carried in session
// cookies. Only the SHA-256 digest of a token is ever persisted, so the
// sessions table is useless without the raw cookie value.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// New returns a URL-safe token built from size random bytes.
func New(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash derives the hex digest stored and looked up server-side.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
