package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/proresume/server/internal/models"
	pkglogger "github.com/proresume/server/pkg/logger"
)

// TokenPairIssuer is the slice of AuthService the OAuth callback needs.
type TokenPairIssuer interface {
	IssueTokenPair(ctx context.Context, user *models.User) (*AuthResponse, error)
}

// OAuthService resolves a provider profile to a local account and mints a
// token pair for it.
type OAuthService struct {
	users       UserRepository
	tokens      TokenPairIssuer
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewOAuthService(
	users UserRepository,
	tokens TokenPairIssuer,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *OAuthService {
	return &OAuthService{
		users:       users,
		tokens:      tokens,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// HandleCallback maps a verified provider profile onto an account in three
// steps: an existing (provider, external id) pair wins outright; otherwise
// a matching email links the provider onto that account and marks it
// verified, keeping any password it had; otherwise a new pre-verified
// account is created. Email matches are auto-linked on the strength of the
// provider having verified the address; a stricter flow would ask the
// signed-in owner to confirm before linking.
func (s *OAuthService) HandleCallback(ctx context.Context, provider string, profile *models.OAuthProfile) (*AuthResponse, error) {
	if profile == nil || profile.ExternalID == "" {
		return nil, models.ErrBadRequest
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		s.logger.Warn("oauth profile missing email", slog.String("provider", provider))
		return nil, models.ErrBadRequest
	}
	profile.Email = email

	user, err := s.users.GetByOAuthID(ctx, provider, profile.ExternalID)
	if err == nil {
		return s.issueFor(ctx, user, provider, "existing_link")
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up oauth link", slog.String("provider", provider), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		linked, err := s.users.LinkOAuthAccount(ctx, existing.ID, provider, profile.ExternalID, nilIfEmpty(profile.AvatarURL))
		if err != nil {
			s.logger.Error("failed to link oauth account",
				slog.String("user_id", existing.ID), slog.String("provider", provider), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		s.auditLogger.LogAccountAction("oauth_account_linked", linked.ID, map[string]string{
			"provider": provider,
		})
		return s.issueFor(ctx, linked, provider, "linked_by_email")
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.users.Create(ctx, models.NewOAuthUser(provider, profile))
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create oauth user", slog.String("provider", provider), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	s.auditLogger.LogAccountAction("user_registered", created.ID, map[string]string{
		"provider": provider,
	})
	return s.issueFor(ctx, created, provider, "created")
}

func (s *OAuthService) issueFor(ctx context.Context, user *models.User, provider, path string) (*AuthResponse, error) {
	resp, err := s.tokens.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("oauth login",
		slog.String("user_id", user.ID),
		slog.String("provider", provider),
		slog.String("path", path))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "oauth_login",
		UserID:    user.ID,
		Success:   true,
		Metadata:  map[string]string{"provider": provider},
	})

	return resp, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
