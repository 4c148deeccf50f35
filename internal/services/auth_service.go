package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/proresume/server/internal/auth"
	"github.com/proresume/server/internal/models"
	pkgauth "github.com/proresume/server/pkg/auth"
	pkglogger "github.com/proresume/server/pkg/logger"
)

// VerificationIssuer covers what AuthService needs from the verification
// flow during signup.
type VerificationIssuer interface {
	IssueVerificationToken(ctx context.Context, userID, email string) error
}

// AuthService handles signup, login and the refresh-token lifecycle.
type AuthService struct {
	users         UserRepository
	refreshTokens RefreshTokenRepository
	tm            *auth.TokenManager
	verifier      VerificationIssuer
	logger        *slog.Logger
	auditLogger   *pkglogger.AuditLogger
}

func NewAuthService(
	users UserRepository,
	refreshTokens RefreshTokenRepository,
	tm *auth.TokenManager,
	verifier VerificationIssuer,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:         users,
		refreshTokens: refreshTokens,
		tm:            tm,
		verifier:      verifier,
		logger:        logger,
		auditLogger:   auditLogger,
	}
}

// UserResponse represents a user in HTTP responses
type UserResponse struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	Provider    string             `json:"provider"`
	AvatarURL   string             `json:"avatar_url,omitempty"`
	IsVerified  bool               `json:"is_verified"`
	Preferences models.Preferences `json:"preferences"`
	CreatedAt   string             `json:"created_at"`
}

// AuthResponse is the result of any operation that mints a token pair.
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user,omitempty"`
}

// Signup creates an unverified local account and mails the verification
// link. If the mail cannot be sent, the just-created user is deleted again
// (compensating action, not a retry) so the address stays free.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*UserResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" || name == "" {
		return nil, models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("signup failed: email already registered")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	createdUser, err := s.users.Create(ctx, models.NewLocalUser(name, email, passwordHash))
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.verifier.IssueVerificationToken(ctx, createdUser.ID, createdUser.Email); err != nil {
		s.logger.Error("verification email failed, rolling back signup",
			slog.String("user_id", createdUser.ID), slog.Any("error", err))
		if delErr := s.users.Delete(ctx, createdUser.ID); delErr != nil {
			s.logger.Error("failed to roll back signup",
				slog.String("user_id", createdUser.ID), slog.Any("error", delErr))
		}
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user signed up", slog.String("user_id", createdUser.ID))
	s.auditLogger.LogAccountAction("user_registered", createdUser.ID, nil)

	return userModelToResponse(createdUser), nil
}

// Login authenticates with email+password and mints a token pair. Unknown
// email and wrong password are the same ErrUnauthorized; only a correct
// password against an unverified account gets ErrEmailNotVerified.
// The caller-supplied ipAddress and userAgent go into the audit trail.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     ipAddress,
				UserAgent:     userAgent,
				FailureReason: "invalid_credentials",
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// OAuth-only accounts have no password to check.
	if !user.HasPassword() {
		s.logger.Info("login failed: account has no password", slog.String("user_id", user.ID))
		return nil, models.ErrUnauthorized
	}

	if err := pkgauth.ComparePassword(*user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			UserAgent:     userAgent,
			FailureReason: "invalid_credentials",
		})
		return nil, models.ErrUnauthorized
	}

	if !user.IsVerified {
		s.logger.Info("login blocked: email not verified", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			UserAgent:     userAgent,
			FailureReason: "email_not_verified",
		})
		return nil, models.ErrEmailNotVerified
	}

	resp, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   true,
	})

	return resp, nil
}

// IssueTokenPair mints an access/refresh pair and persists the refresh
// token in the user's list (oldest entry evicted past the cap). Also used
// by the OAuth callback path.
func (s *AuthService) IssueTokenPair(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessToken, err := s.tm.GenerateAccessToken(user.ID)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user.ID)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	expiresAt := time.Now().Add(s.tm.RefreshTokenExpiry())
	if err := s.refreshTokens.Insert(ctx, user.ID, refreshToken, expiresAt); err != nil {
		s.logger.Error("failed to persist refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userModelToResponse(user),
	}, nil
}

// Refresh rotates a refresh token: the presented token must carry a valid
// signature, be unexpired, and still be in the persisted list. A token
// already rotated away fails with ErrInvalidToken even though its
// signature checks out.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, models.ErrInvalidToken
	}

	claims, err := s.tm.ValidateToken(refreshToken)
	if err != nil {
		s.logger.Info("refresh token validation failed", slog.Any("error", err))
		return nil, models.ErrInvalidToken
	}

	if claims.Type != auth.TokenTypeRefresh {
		s.logger.Warn("refresh attempt with non-refresh token", slog.String("user_id", claims.UserID))
		return nil, models.ErrInvalidToken
	}

	newAccessToken, err := s.tm.GenerateAccessToken(claims.UserID)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	newRefreshToken, err := s.tm.GenerateRefreshToken(claims.UserID)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	expiresAt := time.Now().Add(s.tm.RefreshTokenExpiry())
	err = s.refreshTokens.Rotate(ctx, claims.UserID, refreshToken, newRefreshToken, expiresAt)
	if err != nil {
		if errors.Is(err, models.ErrInvalidToken) {
			s.logger.Warn("refresh token reuse or revoked token", slog.String("user_id", claims.UserID))
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "refresh_failed",
				UserID:        claims.UserID,
				FailureReason: "token_not_in_list",
			})
			return nil, models.ErrInvalidToken
		}
		s.logger.Error("failed to rotate refresh token", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("token refreshed", slog.String("user_id", claims.UserID))

	return &AuthResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// Logout removes a single refresh token. An invalid or unknown token is
// treated as already logged out, never an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}

	claims, err := s.tm.ValidateToken(refreshToken)
	if err != nil || claims.Type != auth.TokenTypeRefresh {
		return nil
	}

	if err := s.refreshTokens.Delete(ctx, claims.UserID, refreshToken); err != nil {
		s.logger.Error("failed to delete refresh token", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out", slog.String("user_id", claims.UserID))
	return nil
}

// LogoutAll clears the user's whole refresh-token list.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.refreshTokens.DeleteAllForUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke all refresh tokens", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out from all devices", slog.String("user_id", userID))
	return nil
}

func userModelToResponse(user *models.User) *UserResponse {
	resp := &UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Provider:    user.Provider,
		IsVerified:  user.IsVerified,
		Preferences: user.Preferences,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
	if user.AvatarURL != nil {
		resp.AvatarURL = *user.AvatarURL
	}
	return resp
}
