package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-token-tests"

func newTestManager() *TokenManager {
	return NewTokenManager(testSecret, 15*time.Minute, 7*24*time.Hour)
}

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	tm := newTestManager()

	token, err := tm.GenerateAccessToken("user123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.Equal(t, "user123", claims.UserID)
	assert.NotEmpty(t, claims.ID, "jti should be set")
}

func TestGenerateRefreshToken_RoundTrip(t *testing.T) {
	tm := newTestManager()

	token, err := tm.GenerateRefreshToken("user123")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
	assert.Equal(t, "user123", claims.UserID)

	// 7-day window, allow a little slack for test runtime
	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, 7*24*time.Hour-time.Minute)
	assert.LessOrEqual(t, remaining, 7*24*time.Hour)
}

func TestValidateToken_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, -1*time.Minute, 7*24*time.Hour)

	token, err := tm.GenerateAccessToken("user123")
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	tm := newTestManager()
	other := NewTokenManager("a-completely-different-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := tm.GenerateAccessToken("user123")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	tm := newTestManager()

	for _, input := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := tm.ValidateToken(input)
		assert.Error(t, err, "input %q should not validate", input)
	}
}

func TestGenerateToken_UniqueJTI(t *testing.T) {
	tm := newTestManager()

	t1, err := tm.GenerateRefreshToken("user123")
	require.NoError(t, err)
	t2, err := tm.GenerateRefreshToken("user123")
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2, "two refresh tokens for the same user must differ")
}
