package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashResetToken(t *testing.T) {
	hash := hashResetToken("some-raw-token")

	// sha256 in hex.
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, hashResetToken("some-raw-token"))
	assert.NotEqual(t, hash, hashResetToken("other-token"))
	assert.NotContains(t, hash, "some-raw-token")
}

func TestGenerateResetToken(t *testing.T) {
	token, err := generateResetToken()
	assert.NoError(t, err)
	// 32 bytes in hex.
	assert.Len(t, token, 64)

	other, err := generateResetToken()
	assert.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", maskEmail("jane@example.com"))
	assert.Equal(t, "***", maskEmail("a@example.com"))
	assert.Equal(t, "***", maskEmail("not-an-email"))
	assert.Equal(t, "***", maskEmail(""))
}
