package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/proresume/server/internal/models"
	pkgauth "github.com/proresume/server/pkg/auth"
	pkglogger "github.com/proresume/server/pkg/logger"
)

// VerificationService owns the two single-use token flows: email
// verification (24h window) and password reset (10min window). Only the
// sha256 hash of a token is ever stored; the plaintext goes out by email
// and comes back exactly once.
type VerificationService struct {
	users              UserRepository
	refreshTokens      RefreshTokenRepository
	emailService       EmailService
	logger             *slog.Logger
	verificationExpiry time.Duration
	resetExpiry        time.Duration
}

func NewVerificationService(
	users UserRepository,
	refreshTokens RefreshTokenRepository,
	emailService EmailService,
	logger *slog.Logger,
	verificationExpiry, resetExpiry time.Duration,
) *VerificationService {
	return &VerificationService{
		users:              users,
		refreshTokens:      refreshTokens,
		emailService:       emailService,
		logger:             logger,
		verificationExpiry: verificationExpiry,
		resetExpiry:        resetExpiry,
	}
}

// newSecureToken returns a random URL-safe token and its sha256 hex hash.
func newSecureToken() (plain, hash string, err error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	plain = base64.URLEncoding.EncodeToString(tokenBytes)
	return plain, hashToken(plain), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// IssueVerificationToken generates a fresh verification token for the user,
// overwriting any previously issued one, and mails the plaintext. A mail
// failure is returned to the caller so it can compensate.
func (s *VerificationService) IssueVerificationToken(ctx context.Context, userID, email string) error {
	plain, hash, err := newSecureToken()
	if err != nil {
		s.logger.Error("failed to generate verification token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	expiresAt := time.Now().Add(s.verificationExpiry)
	if err := s.users.SetVerificationToken(ctx, userID, hash, expiresAt); err != nil {
		s.logger.Error("failed to store verification token",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.emailService.SendVerificationEmail(ctx, email, plain); err != nil {
		s.logger.Error("failed to send verification email",
			slog.String("user_id", userID),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return err
	}

	s.logger.Info("verification email sent", slog.String("user_id", userID))
	return nil
}

// VerifyEmail consumes a verification token and marks the account verified.
// Missing user, hash mismatch and elapsed expiry are all the same
// ErrInvalidOrExpired to the caller.
func (s *VerificationService) VerifyEmail(ctx context.Context, plainToken string) (*models.User, error) {
	if plainToken == "" {
		return nil, models.ErrInvalidOrExpired
	}

	user, err := s.users.ConsumeVerificationToken(ctx, hashToken(plainToken))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("verification token not found or expired")
			return nil, models.ErrInvalidOrExpired
		}
		s.logger.Error("failed to consume verification token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("email verified", slog.String("user_id", user.ID))
	return user, nil
}

// ResendVerification regenerates the token for an unverified account.
// Unknown emails are NotFound here: the product tells the user to check
// the address they typed, unlike login which stays opaque.
func (s *VerificationService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to look up user for resend", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.IsVerified {
		return models.ErrAlreadyVerified
	}

	return s.IssueVerificationToken(ctx, user.ID, user.Email)
}

// ForgotPassword issues a short-lived reset token and mails it. If the
// mail cannot be sent the stored hash is cleared again so no orphaned
// token lingers.
func (s *VerificationService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to look up user for password reset", slog.Any("error", err))
		return models.ErrInternalServer
	}

	plain, hash, err := newSecureToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	expiresAt := time.Now().Add(s.resetExpiry)
	if err := s.users.SetResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		s.logger.Error("failed to store reset token",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.emailService.SendPasswordResetEmail(ctx, user.Email, plain); err != nil {
		s.logger.Error("failed to send reset email",
			slog.String("user_id", user.ID), slog.Any("error", err))
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error("failed to clear reset token after send failure",
				slog.String("user_id", user.ID), slog.Any("error", clearErr))
		}
		return models.ErrInternalServer
	}

	s.logger.Info("password reset email sent", slog.String("user_id", user.ID))
	return nil
}

// ResetPassword consumes a reset token and installs the new password, then
// clears every refresh token the account had.
func (s *VerificationService) ResetPassword(ctx context.Context, plainToken, newPassword string) error {
	if plainToken == "" {
		return models.ErrInvalidOrExpired
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	user, err := s.users.ConsumeResetToken(ctx, hashToken(plainToken), passwordHash)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("reset token not found or expired")
			return models.ErrInvalidOrExpired
		}
		s.logger.Error("failed to consume reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	// Password changed: every existing session is out.
	if err := s.refreshTokens.DeleteAllForUser(ctx, user.ID); err != nil {
		s.logger.Error("failed to revoke refresh tokens after reset",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset", slog.String("user_id", user.ID))
	return nil
}
