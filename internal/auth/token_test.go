package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)

	signed, err := tokens.Issue("user-123")
	require.NoError(t, err)

	subject, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)
}

func TestTokenWrongSecret(t *testing.T) {
	signed, err := auth.NewTokenManager("secret-a", time.Hour).Issue("user-123")
	require.NoError(t, err)

	_, err = auth.NewTokenManager("secret-b", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	tokens := auth.NewTokenManager("secret", -time.Minute)

	signed, err := tokens.Issue("user-123")
	require.NoError(t, err)

	_, err = tokens.Parse(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := tokens.Parse(raw)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	}
}
