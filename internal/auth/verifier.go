// Package auth is the credential verifier. Current hashes are bcrypt;
// accounts imported from the old server carry unsalted SHA-256 hex digests,
// which still verify but report that a rehash is needed. The session layer
// commissions the rehash and persists it before signaling login success.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verify checks a raw password against a stored hash. It reports whether
// the password matched and whether the stored hash uses the legacy format
// and should be upgraded.
func Verify(storedHash, rawPassword string) (matched, needsUpgrade bool) {
	if isLegacy(storedHash) {
		sum := sha256.Sum256([]byte(rawPassword))
		digest := hex.EncodeToString(sum[:])
		ok := subtle.ConstantTimeCompare([]byte(strings.ToLower(storedHash)), []byte(digest)) == 1
		return ok, ok
	}
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(rawPassword))
	return err == nil, false
}

// Hash produces a bcrypt hash for storage.
func Hash(rawPassword string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// isLegacy reports whether a stored hash is an old-style SHA-256 hex digest.
// bcrypt hashes always start with "$2"; legacy digests are 64 hex chars.
func isLegacy(hash string) bool {
	if strings.HasPrefix(hash, "$2") {
		return false
	}
	if len(hash) != 64 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
