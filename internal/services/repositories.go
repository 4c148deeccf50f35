package services

import (
	"context"
	"time"

	"github.com/proresume/server/internal/models"
)

// UserRepository is the credential store contract the services depend on.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByOAuthID(ctx context.Context, provider, externalID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, id, name, email string, isVerified bool) (*models.User, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ConsumeVerificationToken(ctx context.Context, tokenHash string) (*models.User, error)
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (*models.User, error)
	LinkOAuthAccount(ctx context.Context, id, provider, externalID string, avatarURL *string) (*models.User, error)
	UpdatePreferences(ctx context.Context, id string, prefs models.Preferences) error
	Delete(ctx context.Context, id string) error
}

// RefreshTokenRepository is the persisted refresh-token list contract.
type RefreshTokenRepository interface {
	Insert(ctx context.Context, userID, token string, expiresAt time.Time) error
	Rotate(ctx context.Context, userID, oldToken, newToken string, expiresAt time.Time) error
	Delete(ctx context.Context, userID, token string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}
