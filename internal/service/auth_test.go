package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-matches/internal/apperror"
)

func TestAuthService_Token(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		// Given: an auth service
		auth := NewAuthService("secret", time.Hour)

		// When: a token is issued and parsed
		token, err := auth.GenerateToken(42)
		require.NoError(t, err)

		userID, err := auth.ParseToken(token)

		// Then: the user id is recovered
		require.NoError(t, err)
		assert.Equal(t, int64(42), userID)
	})

	t.Run("Rejects tokens signed with another key", func(t *testing.T) {
		token, err := NewAuthService("other", time.Hour).GenerateToken(42)
		require.NoError(t, err)

		_, err = NewAuthService("secret", time.Hour).ParseToken(token)

		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("Rejects expired tokens", func(t *testing.T) {
		auth := NewAuthService("secret", -time.Minute)

		token, err := auth.GenerateToken(42)
		require.NoError(t, err)

		_, err = auth.ParseToken(token)

		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("Rejects unsigned tokens", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": 42}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = NewAuthService("secret", time.Hour).ParseToken(token)

		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("Rejects garbage", func(t *testing.T) {
		_, err := NewAuthService("secret", time.Hour).ParseToken("not-a-token")

		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	})
}
