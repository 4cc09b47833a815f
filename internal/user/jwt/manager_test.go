package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eczanem/pharmatrack-backend/internal/user/jwt"
	"github.com/eczanem/pharmatrack-backend/pkg/config"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
)

func newManager(accessExpiry time.Duration) *jwt.Manager {
	return jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret",
		Issuer:        "pharmatrack-test",
		AccessExpiry:  accessExpiry,
		RefreshExpiry: 24 * time.Hour,
	})
}

var testUser = &jwt.UserInfo{
	ID:       "user-1",
	Username: "eczaci",
	Email:    "eczaci@example.com",
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	m := newManager(15 * time.Minute)

	pair, err := m.GenerateTokenPair(testUser, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "eczaci", claims.Username)
	assert.Equal(t, "eczaci@example.com", claims.Email)

	refreshClaims, err := m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refreshClaims.UserID)
	assert.Equal(t, "session-1", refreshClaims.SessionID)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	m := newManager(-1 * time.Minute)

	pair, err := m.GenerateTokenPair(testUser, "session-1")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenExpired))
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	m := newManager(15 * time.Minute)
	other := jwt.NewManager(&config.JWTConfig{
		Secret:        "different-secret",
		Issuer:        "pharmatrack-test",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})

	pair, err := m.GenerateTokenPair(testUser, "session-1")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(pair.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	m := newManager(15 * time.Minute)

	_, err := m.ValidateAccessToken("not-a-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}

func TestAccessTokenIsNotARefreshToken(t *testing.T) {
	m := newManager(15 * time.Minute)

	pair, err := m.GenerateTokenPair(testUser, "session-1")
	require.NoError(t, err)

	// Parsing an access token as a refresh token yields empty session
	// claims, never a usable session id.
	claims, err := m.ValidateRefreshToken(pair.AccessToken)
	if err == nil {
		assert.Empty(t, claims.SessionID)
	}
}
