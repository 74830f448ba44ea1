package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	userID := uuid.New()
	tenantID := uuid.New()

	token, expiresAt, err := issuer.Issue(userID, tenantID, "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestTokenIssuer_NilTenant(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	userID := uuid.New()

	token, _, err := issuer.Issue(userID, uuid.Nil, "")
	require.NoError(t, err)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestTokenIssuer_WrongSecretRejected(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, _, err := issuer.Issue(uuid.New(), uuid.Nil, "user")
	require.NoError(t, err)

	other := NewTokenIssuer("different-secret", time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_ExpiredRejected(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)
	token, _, err := issuer.Issue(uuid.New(), uuid.Nil, "user")
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_GarbageRejected(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
