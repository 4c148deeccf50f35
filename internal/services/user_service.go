package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/proresume/server/internal/models"
	pkgauth "github.com/proresume/server/pkg/auth"
	pkglogger "github.com/proresume/server/pkg/logger"
)

// UserService covers the signed-in account surface: profile, preferences,
// password change and deletion.
type UserService struct {
	users         UserRepository
	refreshTokens RefreshTokenRepository
	verifier      VerificationIssuer
	logger        *slog.Logger
	auditLogger   *pkglogger.AuditLogger
}

func NewUserService(
	users UserRepository,
	refreshTokens RefreshTokenRepository,
	verifier VerificationIssuer,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *UserService {
	return &UserService{
		users:         users,
		refreshTokens: refreshTokens,
		verifier:      verifier,
		logger:        logger,
		auditLogger:   auditLogger,
	}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return userModelToResponse(user), nil
}

// UpdateProfile changes name and/or email. Changing the email drops the
// account back to unverified and sends a fresh verification link to the
// new address; the update itself stands even if that mail fails.
func (s *UserService) UpdateProfile(ctx context.Context, userID, name, email string) (*UserResponse, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, models.ErrBadRequest
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	emailChanged := email != user.Email
	if emailChanged {
		_, err := s.users.GetByEmail(ctx, email)
		if err == nil {
			return nil, models.ErrConflict
		}
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to check email availability", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	isVerified := user.IsVerified && !emailChanged
	updated, err := s.users.UpdateProfile(ctx, userID, name, email, isVerified)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to update profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if emailChanged {
		if err := s.verifier.IssueVerificationToken(ctx, updated.ID, updated.Email); err != nil {
			s.logger.Error("failed to send verification for new email",
				slog.String("user_id", updated.ID), slog.Any("error", err))
		}
		s.auditLogger.LogAccountAction("email_changed", updated.ID, nil)
	}

	s.logger.Info("profile updated", slog.String("user_id", userID))
	return userModelToResponse(updated), nil
}

// ChangePassword verifies the current password before installing the new
// one, then revokes every refresh token so other sessions drop off.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !user.HasPassword() {
		// OAuth-only account; password reset is the way to set one.
		return models.ErrBadRequest
	}

	if err := pkgauth.ComparePassword(*user.PasswordHash, currentPassword); err != nil {
		s.logger.Info("password change failed: wrong current password", slog.String("user_id", userID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "password_change_failed",
			UserID:        userID,
			FailureReason: "invalid_credentials",
		})
		return models.ErrUnauthorized
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.SetPassword(ctx, userID, newHash); err != nil {
		s.logger.Error("failed to set password", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.refreshTokens.DeleteAllForUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke refresh tokens after password change",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password changed", slog.String("user_id", userID))
	s.auditLogger.LogAccountAction("password_changed", userID, nil)
	return nil
}

func (s *UserService) GetPreferences(ctx context.Context, userID string) (*models.Preferences, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	prefs := user.Preferences
	return &prefs, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID string, prefs models.Preferences) (*models.Preferences, error) {
	if err := s.users.UpdatePreferences(ctx, userID, prefs); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update preferences", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return &prefs, nil
}

// DeleteAccount removes the user row; refresh tokens and resumes go with
// it by cascade.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete account", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("account deleted", slog.String("user_id", userID))
	s.auditLogger.LogAccountAction("account_deleted", userID, nil)
	return nil
}
