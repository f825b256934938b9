package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyHash(t *testing.T, password string) string {
	t.Helper()
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func TestVerifyBcrypt(t *testing.T) {
	h, err := Hash("pass12")
	require.NoError(t, err)

	matched, upgrade := Verify(h, "pass12")
	assert.True(t, matched)
	assert.False(t, upgrade, "bcrypt hashes need no upgrade")

	matched, upgrade = Verify(h, "wrong")
	assert.False(t, matched)
	assert.False(t, upgrade)
}

func TestVerifyLegacy(t *testing.T) {
	h := legacyHash(t, "pass12")

	matched, upgrade := Verify(h, "pass12")
	assert.True(t, matched)
	assert.True(t, upgrade, "legacy match must request a rehash")

	matched, upgrade = Verify(h, "wrong")
	assert.False(t, matched)
	assert.False(t, upgrade, "no upgrade on a failed match")
}

func TestLegacyDetection(t *testing.T) {
	assert.True(t, isLegacy(legacyHash(t, "x")))
	assert.False(t, isLegacy("$2a$10$abcdefghijklmnopqrstuv"))
	assert.False(t, isLegacy("not-a-digest"))
}
