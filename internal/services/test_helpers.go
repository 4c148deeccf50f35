package services

import (
	"context"
	"time"

	"github.com/proresume/server/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc                  func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc               func(ctx context.Context, email string) (*models.User, error)
	GetByOAuthIDFunc             func(ctx context.Context, provider, externalID string) (*models.User, error)
	CreateFunc                   func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfileFunc            func(ctx context.Context, id, name, email string, isVerified bool) (*models.User, error)
	SetPasswordFunc              func(ctx context.Context, id, passwordHash string) error
	SetVerificationTokenFunc     func(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ConsumeVerificationTokenFunc func(ctx context.Context, tokenHash string) (*models.User, error)
	SetResetTokenFunc            func(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ClearResetTokenFunc          func(ctx context.Context, id string) error
	ConsumeResetTokenFunc        func(ctx context.Context, tokenHash, newPasswordHash string) (*models.User, error)
	LinkOAuthAccountFunc         func(ctx context.Context, id, provider, externalID string, avatarURL *string) (*models.User, error)
	UpdatePreferencesFunc        func(ctx context.Context, id string, prefs models.Preferences) error
	DeleteFunc                   func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByOAuthID(ctx context.Context, provider, externalID string) (*models.User, error) {
	if m.GetByOAuthIDFunc != nil {
		return m.GetByOAuthIDFunc(ctx, provider, externalID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id, name, email string, isVerified bool) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, name, email, isVerified)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	if m.SetPasswordFunc != nil {
		return m.SetPasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	if m.SetVerificationTokenFunc != nil {
		return m.SetVerificationTokenFunc(ctx, id, tokenHash, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string) (*models.User, error) {
	if m.ConsumeVerificationTokenFunc != nil {
		return m.ConsumeVerificationTokenFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	if m.SetResetTokenFunc != nil {
		return m.SetResetTokenFunc(ctx, id, tokenHash, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) ClearResetToken(ctx context.Context, id string) error {
	if m.ClearResetTokenFunc != nil {
		return m.ClearResetTokenFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (*models.User, error) {
	if m.ConsumeResetTokenFunc != nil {
		return m.ConsumeResetTokenFunc(ctx, tokenHash, newPasswordHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) LinkOAuthAccount(ctx context.Context, id, provider, externalID string, avatarURL *string) (*models.User, error) {
	if m.LinkOAuthAccountFunc != nil {
		return m.LinkOAuthAccountFunc(ctx, id, provider, externalID, avatarURL)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePreferences(ctx context.Context, id string, prefs models.Preferences) error {
	if m.UpdatePreferencesFunc != nil {
		return m.UpdatePreferencesFunc(ctx, id, prefs)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockRefreshTokenRepository implements RefreshTokenRepository for testing
type MockRefreshTokenRepository struct {
	InsertFunc           func(ctx context.Context, userID, token string, expiresAt time.Time) error
	RotateFunc           func(ctx context.Context, userID, oldToken, newToken string, expiresAt time.Time) error
	DeleteFunc           func(ctx context.Context, userID, token string) error
	DeleteAllForUserFunc func(ctx context.Context, userID string) error
}

func (m *MockRefreshTokenRepository) Insert(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, userID, token, expiresAt)
	}
	return nil
}

func (m *MockRefreshTokenRepository) Rotate(ctx context.Context, userID, oldToken, newToken string, expiresAt time.Time) error {
	if m.RotateFunc != nil {
		return m.RotateFunc(ctx, userID, oldToken, newToken, expiresAt)
	}
	return nil
}

func (m *MockRefreshTokenRepository) Delete(ctx context.Context, userID, token string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, token)
	}
	return nil
}

func (m *MockRefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	if m.DeleteAllForUserFunc != nil {
		return m.DeleteAllForUserFunc(ctx, userID)
	}
	return nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendVerificationEmailFunc  func(ctx context.Context, email, token string) error
	SendPasswordResetEmailFunc func(ctx context.Context, email, token string) error
}

func (m *MockEmailService) SendVerificationEmail(ctx context.Context, email, token string) error {
	if m.SendVerificationEmailFunc != nil {
		return m.SendVerificationEmailFunc(ctx, email, token)
	}
	return nil
}

func (m *MockEmailService) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	if m.SendPasswordResetEmailFunc != nil {
		return m.SendPasswordResetEmailFunc(ctx, email, token)
	}
	return nil
}

// MockVerificationIssuer implements VerificationIssuer for testing
type MockVerificationIssuer struct {
	IssueVerificationTokenFunc func(ctx context.Context, userID, email string) error
}

func (m *MockVerificationIssuer) IssueVerificationToken(ctx context.Context, userID, email string) error {
	if m.IssueVerificationTokenFunc != nil {
		return m.IssueVerificationTokenFunc(ctx, userID, email)
	}
	return nil
}

// MockTokenPairIssuer implements TokenPairIssuer for testing
type MockTokenPairIssuer struct {
	IssueTokenPairFunc func(ctx context.Context, user *models.User) (*AuthResponse, error)
}

func (m *MockTokenPairIssuer) IssueTokenPair(ctx context.Context, user *models.User) (*AuthResponse, error) {
	if m.IssueTokenPairFunc != nil {
		return m.IssueTokenPairFunc(ctx, user)
	}
	return &AuthResponse{AccessToken: "access", RefreshToken: "refresh", User: userModelToResponse(user)}, nil
}

// NewTestUser creates a verified local-provider user
func NewTestUser(id, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:          id,
		Email:       email,
		Name:        name,
		Provider:    models.ProviderLocal,
		IsVerified:  true,
		Preferences: models.DefaultPreferences(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestUserWithPassword creates a user with a hashed password
func NewTestUserWithPassword(id, email, name, passwordHash string) *models.User {
	user := NewTestUser(id, email, name)
	user.PasswordHash = &passwordHash
	return user
}

// NewTestUserUnverified creates a user with an unverified email
func NewTestUserUnverified(id, email, name string) *models.User {
	user := NewTestUser(id, email, name)
	user.IsVerified = false
	return user
}

// NewTestOAuthUser creates a user backed by an external provider only
func NewTestOAuthUser(id, email, name, provider, externalID string) *models.User {
	user := NewTestUser(id, email, name)
	user.Provider = provider
	switch provider {
	case models.ProviderGoogle:
		user.GoogleID = &externalID
	case models.ProviderLinkedIn:
		user.LinkedInID = &externalID
	}
	return user
}
