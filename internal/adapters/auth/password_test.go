package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2Hasher_Hash_and_Verify(t *testing.T) {
	h := NewArgon2Hasher()

	hash, err := h.Hash("my-secret-password")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"), "hash should be PHC format, got %q", hash)

	assert.True(t, h.Verify(hash, "my-secret-password"))
	assert.False(t, h.Verify(hash, "wrong-password"))
}

func TestArgon2Hasher_Hash_fresh_salt(t *testing.T) {
	h := NewArgon2Hasher()

	h1, err := h.Hash("same-password")
	require.NoError(t, err)
	h2, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "same password must hash differently per call")
	assert.True(t, h.Verify(h1, "same-password"))
	assert.True(t, h.Verify(h2, "same-password"))
}

func TestArgon2Hasher_Verify_malformed_never_panics(t *testing.T) {
	h := NewArgon2Hasher()

	malformed := []string{
		"",
		"not-a-hash",
		"$argon2id$",
		"$argon2id$v=19$m=65536,t=1,p=4$salt",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$!!!",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA",
		"$bcrypt$whatever",
	}
	for _, bad := range malformed {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify(bad, "password"), "stored hash %q", bad)
		})
	}
}

func TestArgon2Hasher_Verify_tampered(t *testing.T) {
	h := NewArgon2Hasher()

	hash, err := h.Hash("password")
	require.NoError(t, err)

	// Flip a character in the derived-key segment.
	tampered := hash[:len(hash)-1]
	if strings.HasSuffix(hash, "A") {
		tampered += "B"
	} else {
		tampered += "A"
	}
	assert.False(t, h.Verify(tampered, "password"))
}
