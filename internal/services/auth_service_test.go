package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/proresume/server/internal/auth"
	"github.com/proresume/server/internal/models"
	pkgauth "github.com/proresume/server/pkg/auth"
	pkglogger "github.com/proresume/server/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-at-least-32-characters-long", 15*time.Minute, 7*24*time.Hour)
}

func newAuthServiceForTest(users *MockUserRepository, tokens *MockRefreshTokenRepository, verifier *MockVerificationIssuer) *AuthService {
	logger := slog.Default()
	return NewAuthService(users, tokens, newTestTokenManager(), verifier, logger, pkglogger.NewAuditLogger(logger))
}

// ============================================================================
// Signup Tests
// ============================================================================

func TestAuthService_Signup_Success(t *testing.T) {
	var createdUser *models.User
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "user123"
			user.CreatedAt = time.Now()
			user.UpdatedAt = user.CreatedAt
			createdUser = user
			return user, nil
		},
	}
	verificationIssued := false
	verifier := &MockVerificationIssuer{
		IssueVerificationTokenFunc: func(ctx context.Context, userID, email string) error {
			verificationIssued = true
			assert.Equal(t, "user123", userID)
			return nil
		},
	}

	svc := newAuthServiceForTest(mockUsers, &MockRefreshTokenRepository{}, verifier)

	resp, err := svc.Signup(context.Background(), "Jane Doe", "Jane@Example.com", "SecurePass123")

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "user123", resp.ID)
	assert.Equal(t, "jane@example.com", resp.Email)
	assert.False(t, resp.IsVerified)
	assert.True(t, verificationIssued)
	require.NotNil(t, createdUser)
	assert.False(t, createdUser.IsVerified)
	assert.True(t, createdUser.HasPassword())
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return NewTestUser("existing", email, "Existing User"), nil
		},
	}

	svc := newAuthServiceForTest(mockUsers, &MockRefreshTokenRepository{}, &MockVerificationIssuer{})

	resp, err := svc.Signup(context.Background(), "Jane Doe", "jane@example.com", "SecurePass123")

	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Nil(t, resp)
}

func TestAuthService_Signup_WeakPassword(t *testing.T) {
	svc := newAuthServiceForTest(&MockUserRepository{}, &MockRefreshTokenRepository{}, &MockVerificationIssuer{})

	_, err := svc.Signup(context.Background(), "Jane Doe", "jane@example.com", "short")

	var validationErr *pkgauth.PasswordValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestAuthService_Signup_EmailSendFailureRollsBack(t *testing.T) {
	deletedID := ""
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "user123"
			return user, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	verifier := &MockVerificationIssuer{
		IssueVerificationTokenFunc: func(ctx context.Context, userID, email string) error {
			return errors.New("ses unavailable")
		},
	}

	svc := newAuthServiceForTest(mockUsers, &MockRefreshTokenRepository{}, verifier)

	resp, err := svc.Signup(context.Background(), "Jane Doe", "jane@example.com", "SecurePass123")

	assert.ErrorIs(t, err, models.ErrInternalServer)
	assert.Nil(t, resp)
	assert.Equal(t, "user123", deletedID)
}

// ============================================================================
// Login Tests
// ============================================================================

func TestAuthService_Login_Success(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePass123")
	require.NoError(t, err)
	user := NewTestUserWithPassword("user123", "jane@example.com", "Jane Doe", hash)

	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	inserted := false
	mockTokens := &MockRefreshTokenRepository{
		InsertFunc: func(ctx context.Context, userID, token string, expiresAt time.Time) error {
			inserted = true
			assert.Equal(t, "user123", userID)
			assert.NotEmpty(t, token)
			assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)
			return nil
		},
	}

	svc := newAuthServiceForTest(mockUsers, mockTokens, &MockVerificationIssuer{})

	resp, err := svc.Login(context.Background(), "jane@example.com", "SecurePass123", "203.0.113.7", "test-agent")

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEqual(t, resp.AccessToken, resp.RefreshToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "user123", resp.User.ID)
	assert.True(t, inserted)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := newAuthServiceForTest(&MockUserRepository{}, &MockRefreshTokenRepository{}, &MockVerificationIssuer{})

	resp, err := svc.Login(context.Background(), "nobody@example.com", "SecurePass123", "203.0.113.7", "test-agent")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePass123")
	require.NoError(t, err)
	user := NewTestUserWithPassword("user123", "jane@example.com", "Jane Doe", hash)

	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newAuthServiceForTest(mockUsers, &MockRefreshTokenRepository{}, &MockVerificationIssuer{})

	resp, err := svc.Login(context.Background(), "jane@example.com", "WrongPass456", "203.0.113.7", "test-agent")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
}

func TestAuthService_Login_UnverifiedEmail(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePass123")
	require.NoError(t, err)
	user := NewTestUserWithPassword("user123", "jane@example.com", "Jane Doe", hash)
	user.IsVerified = false

	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newAuthServiceForTest(mockUsers, &MockRefreshTokenRepository{}, &MockVerificationIssuer{})

	resp, err := svc.Login(context.Background(), "jane@example.com", "SecurePass123", "203.0.113.7", "test-agent")

	assert.ErrorIs(t, err, models.ErrEmailNotVerified)
	assert.Nil(t, resp)
}

func TestAuthService_Login_OAuthOnlyAccount(t *testing.T) {
	user := NewTestOAuthUser("user123", "jane@example.com", "Jane Doe", models.ProviderGoogle, "google-sub-1")

	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newAuthServiceForTest(mockUsers, &MockRefreshTokenRepository{}, &MockVerificationIssuer{})

	resp, err := svc.Login(context.Background(), "jane@example.com", "SecurePass123", "203.0.113.7", "test-agent")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
}

// ============================================================================
// Refresh Tests
// ============================================================================

func TestAuthService_Refresh_Success(t *testing.T) {
	tm := newTestTokenManager()
	oldToken, err := tm.GenerateRefreshToken("user123")
	require.NoError(t, err)

	var rotatedOld, rotatedNew string
	mockTokens := &MockRefreshTokenRepository{
		RotateFunc: func(ctx context.Context, userID, old, newTok string, expiresAt time.Time) error {
			assert.Equal(t, "user123", userID)
			rotatedOld = old
			rotatedNew = newTok
			return nil
		},
	}

	logger := slog.Default()
	svc := NewAuthService(&MockUserRepository{}, mockTokens, tm, &MockVerificationIssuer{}, logger, pkglogger.NewAuditLogger(logger))

	resp, err := svc.Refresh(context.Background(), oldToken)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEqual(t, oldToken, resp.RefreshToken)
	assert.Equal(t, oldToken, rotatedOld)
	assert.Equal(t, resp.RefreshToken, rotatedNew)
	assert.Nil(t, resp.User)

	claims, err := tm.ValidateToken(resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user123", claims.UserID)
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	tm := newTestTokenManager()
	accessToken, err := tm.GenerateAccessToken("user123")
	require.NoError(t, err)

	logger := slog.Default()
	svc := NewAuthService(&MockUserRepository{}, &MockRefreshTokenRepository{}, tm, &MockVerificationIssuer{}, logger, pkglogger.NewAuditLogger(logger))

	resp, err := svc.Refresh(context.Background(), accessToken)

	assert.ErrorIs(t, err, models.ErrInvalidToken)
	assert.Nil(t, resp)
}

func TestAuthService_Refresh_RotatedTokenRejected(t *testing.T) {
	tm := newTestTokenManager()
	oldToken, err := tm.GenerateRefreshToken("user123")
	require.NoError(t, err)

	// Token signature is fine but the store no longer has it.
	mockTokens := &MockRefreshTokenRepository{
		RotateFunc: func(ctx context.Context, userID, old, newTok string, expiresAt time.Time) error {
			return models.ErrInvalidToken
		},
	}

	logger := slog.Default()
	svc := NewAuthService(&MockUserRepository{}, mockTokens, tm, &MockVerificationIssuer{}, logger, pkglogger.NewAuditLogger(logger))

	resp, err := svc.Refresh(context.Background(), oldToken)

	assert.ErrorIs(t, err, models.ErrInvalidToken)
	assert.Nil(t, resp)
}

func TestAuthService_Refresh_GarbageToken(t *testing.T) {
	svc := newAuthServiceForTest(&MockUserRepository{}, &MockRefreshTokenRepository{}, &MockVerificationIssuer{})

	resp, err := svc.Refresh(context.Background(), "not-a-jwt")

	assert.ErrorIs(t, err, models.ErrInvalidToken)
	assert.Nil(t, resp)
}

// ============================================================================
// Logout Tests
// ============================================================================

func TestAuthService_Logout_Success(t *testing.T) {
	tm := newTestTokenManager()
	refreshToken, err := tm.GenerateRefreshToken("user123")
	require.NoError(t, err)

	deleted := false
	mockTokens := &MockRefreshTokenRepository{
		DeleteFunc: func(ctx context.Context, userID, token string) error {
			deleted = true
			assert.Equal(t, "user123", userID)
			assert.Equal(t, refreshToken, token)
			return nil
		},
	}

	logger := slog.Default()
	svc := NewAuthService(&MockUserRepository{}, mockTokens, tm, &MockVerificationIssuer{}, logger, pkglogger.NewAuditLogger(logger))

	err = svc.Logout(context.Background(), refreshToken)

	assert.NoError(t, err)
	assert.True(t, deleted)
}

func TestAuthService_Logout_InvalidTokenIsIdempotent(t *testing.T) {
	deleteCalled := false
	mockTokens := &MockRefreshTokenRepository{
		DeleteFunc: func(ctx context.Context, userID, token string) error {
			deleteCalled = true
			return nil
		},
	}

	logger := slog.Default()
	svc := NewAuthService(&MockUserRepository{}, mockTokens, newTestTokenManager(), &MockVerificationIssuer{}, logger, pkglogger.NewAuditLogger(logger))

	assert.NoError(t, svc.Logout(context.Background(), "garbage"))
	assert.NoError(t, svc.Logout(context.Background(), ""))
	assert.False(t, deleteCalled)
}

func TestAuthService_LogoutAll(t *testing.T) {
	revokedUser := ""
	mockTokens := &MockRefreshTokenRepository{
		DeleteAllForUserFunc: func(ctx context.Context, userID string) error {
			revokedUser = userID
			return nil
		},
	}

	svc := newAuthServiceForTest(&MockUserRepository{}, mockTokens, &MockVerificationIssuer{})

	err := svc.LogoutAll(context.Background(), "user123")

	assert.NoError(t, err)
	assert.Equal(t, "user123", revokedUser)
}
