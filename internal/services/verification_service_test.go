package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/proresume/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerificationServiceForTest(users *MockUserRepository, tokens *MockRefreshTokenRepository, email *MockEmailService) *VerificationService {
	return NewVerificationService(users, tokens, email, slog.Default(), 24*time.Hour, 10*time.Minute)
}

func TestVerificationService_IssueVerificationToken_StoresHashNotPlaintext(t *testing.T) {
	var storedHash string
	var storedExpiry time.Time
	mockUsers := &MockUserRepository{
		SetVerificationTokenFunc: func(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
			storedHash = tokenHash
			storedExpiry = expiresAt
			return nil
		},
	}
	var mailedToken string
	mockEmail := &MockEmailService{
		SendVerificationEmailFunc: func(ctx context.Context, email, token string) error {
			mailedToken = token
			return nil
		},
	}

	svc := newVerificationServiceForTest(mockUsers, &MockRefreshTokenRepository{}, mockEmail)

	err := svc.IssueVerificationToken(context.Background(), "user123", "jane@example.com")

	require.NoError(t, err)
	assert.NotEmpty(t, mailedToken)
	assert.NotEmpty(t, storedHash)
	assert.NotEqual(t, mailedToken, storedHash)
	assert.Equal(t, hashToken(mailedToken), storedHash)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), storedExpiry, time.Minute)
}

func TestVerificationService_VerifyEmail_Success(t *testing.T) {
	plain, hash, err := newSecureToken()
	require.NoError(t, err)

	mockUsers := &MockUserRepository{
		ConsumeVerificationTokenFunc: func(ctx context.Context, tokenHash string) (*models.User, error) {
			if tokenHash == hash {
				return NewTestUser("user123", "jane@example.com", "Jane Doe"), nil
			}
			return nil, models.ErrNotFound
		},
	}

	svc := newVerificationServiceForTest(mockUsers, &MockRefreshTokenRepository{}, &MockEmailService{})

	user, err := svc.VerifyEmail(context.Background(), plain)

	require.NoError(t, err)
	assert.Equal(t, "user123", user.ID)
}

func TestVerificationService_VerifyEmail_UnknownOrExpiredToken(t *testing.T) {
	svc := newVerificationServiceForTest(&MockUserRepository{}, &MockRefreshTokenRepository{}, &MockEmailService{})

	_, err := svc.VerifyEmail(context.Background(), "bogus-token")
	assert.ErrorIs(t, err, models.ErrInvalidOrExpired)

	_, err = svc.VerifyEmail(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrInvalidOrExpired)
}

func TestVerificationService_ResendVerification_OverwritesToken(t *testing.T) {
	user := NewTestUserUnverified("user123", "jane@example.com", "Jane Doe")
	setCalls := 0
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		SetVerificationTokenFunc: func(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
			setCalls++
			return nil
		},
	}

	svc := newVerificationServiceForTest(mockUsers, &MockRefreshTokenRepository{}, &MockEmailService{})

	require.NoError(t, svc.ResendVerification(context.Background(), "jane@example.com"))
	require.NoError(t, svc.ResendVerification(context.Background(), "jane@example.com"))
	assert.Equal(t, 2, setCalls)
}

func TestVerificationService_ResendVerification_AlreadyVerified(t *testing.T) {
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return NewTestUser("user123", email, "Jane Doe"), nil
		},
	}

	svc := newVerificationServiceForTest(mockUsers, &MockRefreshTokenRepository{}, &MockEmailService{})

	err := svc.ResendVerification(context.Background(), "jane@example.com")
	assert.ErrorIs(t, err, models.ErrAlreadyVerified)
}

func TestVerificationService_ResendVerification_UnknownEmail(t *testing.T) {
	svc := newVerificationServiceForTest(&MockUserRepository{}, &MockRefreshTokenRepository{}, &MockEmailService{})

	err := svc.ResendVerification(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestVerificationService_ForgotPassword_Success(t *testing.T) {
	var storedExpiry time.Time
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return NewTestUser("user123", email, "Jane Doe"), nil
		},
		SetResetTokenFunc: func(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
			storedExpiry = expiresAt
			return nil
		},
	}
	mailed := false
	mockEmail := &MockEmailService{
		SendPasswordResetEmailFunc: func(ctx context.Context, email, token string) error {
			mailed = true
			return nil
		},
	}

	svc := newVerificationServiceForTest(mockUsers, &MockRefreshTokenRepository{}, mockEmail)

	err := svc.ForgotPassword(context.Background(), "jane@example.com")

	require.NoError(t, err)
	assert.True(t, mailed)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), storedExpiry, time.Minute)
}

func TestVerificationService_ForgotPassword_MailFailureClearsToken(t *testing.T) {
	cleared := false
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return NewTestUser("user123", email, "Jane Doe"), nil
		},
		ClearResetTokenFunc: func(ctx context.Context, id string) error {
			cleared = true
			assert.Equal(t, "user123", id)
			return nil
		},
	}
	mockEmail := &MockEmailService{
		SendPasswordResetEmailFunc: func(ctx context.Context, email, token string) error {
			return errors.New("ses unavailable")
		},
	}

	svc := newVerificationServiceForTest(mockUsers, &MockRefreshTokenRepository{}, mockEmail)

	err := svc.ForgotPassword(context.Background(), "jane@example.com")

	assert.ErrorIs(t, err, models.ErrInternalServer)
	assert.True(t, cleared)
}

func TestVerificationService_ForgotPassword_UnknownEmail(t *testing.T) {
	svc := newVerificationServiceForTest(&MockUserRepository{}, &MockRefreshTokenRepository{}, &MockEmailService{})

	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestVerificationService_ResetPassword_Success(t *testing.T) {
	plain, hash, err := newSecureToken()
	require.NoError(t, err)

	var installedHash string
	mockUsers := &MockUserRepository{
		ConsumeResetTokenFunc: func(ctx context.Context, tokenHash, newPasswordHash string) (*models.User, error) {
			if tokenHash != hash {
				return nil, models.ErrNotFound
			}
			installedHash = newPasswordHash
			return NewTestUser("user123", "jane@example.com", "Jane Doe"), nil
		},
	}
	revoked := false
	mockTokens := &MockRefreshTokenRepository{
		DeleteAllForUserFunc: func(ctx context.Context, userID string) error {
			revoked = true
			assert.Equal(t, "user123", userID)
			return nil
		},
	}

	svc := newVerificationServiceForTest(mockUsers, mockTokens, &MockEmailService{})

	err = svc.ResetPassword(context.Background(), plain, "NewSecurePass123")

	require.NoError(t, err)
	assert.NotEmpty(t, installedHash)
	assert.NotEqual(t, "NewSecurePass123", installedHash)
	assert.True(t, revoked)
}

func TestVerificationService_ResetPassword_SingleUse(t *testing.T) {
	plain, hash, err := newSecureToken()
	require.NoError(t, err)

	consumed := false
	mockUsers := &MockUserRepository{
		ConsumeResetTokenFunc: func(ctx context.Context, tokenHash, newPasswordHash string) (*models.User, error) {
			if tokenHash == hash && !consumed {
				consumed = true
				return NewTestUser("user123", "jane@example.com", "Jane Doe"), nil
			}
			return nil, models.ErrNotFound
		},
	}

	svc := newVerificationServiceForTest(mockUsers, &MockRefreshTokenRepository{}, &MockEmailService{})

	require.NoError(t, svc.ResetPassword(context.Background(), plain, "NewSecurePass123"))

	err = svc.ResetPassword(context.Background(), plain, "AnotherPass456")
	assert.ErrorIs(t, err, models.ErrInvalidOrExpired)
}

func TestVerificationService_ResetPassword_WeakPasswordRejectedBeforeConsume(t *testing.T) {
	consumeCalled := false
	mockUsers := &MockUserRepository{
		ConsumeResetTokenFunc: func(ctx context.Context, tokenHash, newPasswordHash string) (*models.User, error) {
			consumeCalled = true
			return NewTestUser("user123", "jane@example.com", "Jane Doe"), nil
		},
	}

	svc := newVerificationServiceForTest(mockUsers, &MockRefreshTokenRepository{}, &MockEmailService{})

	err := svc.ResetPassword(context.Background(), "some-token", "weak")

	assert.Error(t, err)
	assert.False(t, consumeCalled)
}
