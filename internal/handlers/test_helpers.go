package handlers

import (
	"context"

	"github.com/proresume/server/internal/models"
	"github.com/proresume/server/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	SignupFunc    func(ctx context.Context, name, email, password string) (*services.UserResponse, error)
	LoginFunc     func(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error)
	RefreshFunc   func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	LogoutFunc    func(ctx context.Context, refreshToken string) error
	LogoutAllFunc func(ctx context.Context, userID string) error
}

func (m *MockAuthService) Signup(ctx context.Context, name, email, password string) (*services.UserResponse, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, name, email, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, ipAddress, userAgent)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return nil, models.ErrInvalidToken
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, refreshToken)
	}
	return nil
}

func (m *MockAuthService) LogoutAll(ctx context.Context, userID string) error {
	if m.LogoutAllFunc != nil {
		return m.LogoutAllFunc(ctx, userID)
	}
	return nil
}

// MockVerificationService implements VerificationServiceInterface for testing
type MockVerificationService struct {
	VerifyEmailFunc        func(ctx context.Context, plainToken string) (*models.User, error)
	ResendVerificationFunc func(ctx context.Context, email string) error
	ForgotPasswordFunc     func(ctx context.Context, email string) error
	ResetPasswordFunc      func(ctx context.Context, plainToken, newPassword string) error
}

func (m *MockVerificationService) VerifyEmail(ctx context.Context, plainToken string) (*models.User, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, plainToken)
	}
	return nil, models.ErrInvalidOrExpired
}

func (m *MockVerificationService) ResendVerification(ctx context.Context, email string) error {
	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, email)
	}
	return nil
}

func (m *MockVerificationService) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return nil
}

func (m *MockVerificationService) ResetPassword(ctx context.Context, plainToken, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, plainToken, newPassword)
	}
	return nil
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	GetProfileFunc        func(ctx context.Context, userID string) (*services.UserResponse, error)
	UpdateProfileFunc     func(ctx context.Context, userID, name, email string) (*services.UserResponse, error)
	ChangePasswordFunc    func(ctx context.Context, userID, currentPassword, newPassword string) error
	GetPreferencesFunc    func(ctx context.Context, userID string) (*models.Preferences, error)
	UpdatePreferencesFunc func(ctx context.Context, userID string, prefs models.Preferences) (*models.Preferences, error)
	DeleteAccountFunc     func(ctx context.Context, userID string) error
}

func (m *MockUserService) GetProfile(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID, name, email string) (*services.UserResponse, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, name, email)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword)
	}
	return nil
}

func (m *MockUserService) GetPreferences(ctx context.Context, userID string) (*models.Preferences, error) {
	if m.GetPreferencesFunc != nil {
		return m.GetPreferencesFunc(ctx, userID)
	}
	prefs := models.DefaultPreferences()
	return &prefs, nil
}

func (m *MockUserService) UpdatePreferences(ctx context.Context, userID string, prefs models.Preferences) (*models.Preferences, error) {
	if m.UpdatePreferencesFunc != nil {
		return m.UpdatePreferencesFunc(ctx, userID, prefs)
	}
	return &prefs, nil
}

func (m *MockUserService) DeleteAccount(ctx context.Context, userID string) error {
	if m.DeleteAccountFunc != nil {
		return m.DeleteAccountFunc(ctx, userID)
	}
	return nil
}

// MockOAuthService implements OAuthServiceInterface for testing
type MockOAuthService struct {
	HandleCallbackFunc func(ctx context.Context, provider string, profile *models.OAuthProfile) (*services.AuthResponse, error)
}

func (m *MockOAuthService) HandleCallback(ctx context.Context, provider string, profile *models.OAuthProfile) (*services.AuthResponse, error) {
	if m.HandleCallbackFunc != nil {
		return m.HandleCallbackFunc(ctx, provider, profile)
	}
	return nil, models.ErrInternalServer
}

// MockOAuthProvider implements OAuthProvider for testing
type MockOAuthProvider struct {
	ProviderName     string
	AuthCodeURLFunc  func(state string) string
	FetchProfileFunc func(ctx context.Context, code string) (*models.OAuthProfile, error)
}

func (m *MockOAuthProvider) Name() string {
	return m.ProviderName
}

func (m *MockOAuthProvider) AuthCodeURL(state string) string {
	if m.AuthCodeURLFunc != nil {
		return m.AuthCodeURLFunc(state)
	}
	return "https://provider.example.com/auth?state=" + state
}

func (m *MockOAuthProvider) FetchProfile(ctx context.Context, code string) (*models.OAuthProfile, error) {
	if m.FetchProfileFunc != nil {
		return m.FetchProfileFunc(ctx, code)
	}
	return nil, models.ErrInternalServer
}
