package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rifas/internal/errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", "rifas", time.Hour)

	token, err := svc.GenerateToken("u1", "t1", "ana@example.com", "Ana", "admin")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "t1", claims.TenantID)
	assert.Equal(t, "admin", claims.Role)

	decoded, err := DecodeUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", decoded.Email)
	assert.False(t, decoded.Expired(time.Now()))
}

func TestExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret", "rifas", -time.Minute)

	token, err := svc.GenerateToken("u1", "t1", "ana@example.com", "Ana", "player")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestWrongSigningKey(t *testing.T) {
	token, err := NewTokenService("a", "rifas", time.Hour).GenerateToken("u1", "t1", "x@y.z", "", "player")
	require.NoError(t, err)

	_, err = NewTokenService("b", "rifas", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("segredo123")
	require.NoError(t, err)

	assert.NoError(t, CheckPassword("segredo123", hash))
	assert.Error(t, CheckPassword("errada", hash))
}
