package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := New("secret", 15*time.Minute)

	token, err := svc.GenerateAccessToken(3, "customer")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.Equal(t, "customer", claims.Role)
}

func TestRefreshTokenCarriesJTIAndExpiry(t *testing.T) {
	svc := New("secret", 15*time.Minute)
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)

	token, err := svc.GenerateRefreshToken(3, "customer", "jti-1", expiresAt)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "jti-1", claims.ID)
	assert.True(t, claims.ExpiresAt.Time.Equal(expiresAt))
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := New("secret-a", 15*time.Minute).GenerateAccessToken(3, "customer")
	require.NoError(t, err)

	_, err = New("secret-b", 15*time.Minute).ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := New("secret", -time.Minute)

	token, err := svc.GenerateAccessToken(3, "customer")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshValidationRequiresJTI(t *testing.T) {
	svc := New("secret", 15*time.Minute)

	token, err := svc.GenerateRefreshToken(3, "customer", "", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
