// Package token generates opaque capability secrets and their one-way
// digests. Raw secrets are never persisted; stores keep only the digest.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// secretBytes is the entropy of a raw secret (256 bits).
const secretBytes = 32

// Issue returns a new raw secret and its digest. The raw value is URL-safe
// and handed to exactly one recipient out-of-band; only the digest goes to
// the store.
func Issue() (raw, digest string, err error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("token: read random: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, DigestOf(raw), nil
}

// DigestOf returns the hex-encoded SHA-256 digest of a raw secret.
func DigestOf(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether raw hashes to storedDigest. The comparison is
// constant-time so a mismatch position cannot be observed from timing.
// Malformed input fails closed.
func Verify(raw, storedDigest string) bool {
	if raw == "" || storedDigest == "" {
		return false
	}
	computed := DigestOf(raw)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedDigest)) == 1
}
