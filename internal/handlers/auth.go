package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/proresume/server/internal/auth"
	"github.com/proresume/server/internal/models"
	"github.com/proresume/server/internal/services"
	pkgauth "github.com/proresume/server/pkg/auth"
	pkghttp "github.com/proresume/server/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, name, email, password string) (*services.UserResponse, error)
	Login(ctx context.Context, email, password, ipAddress, userAgent string) (*services.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) error
}

// VerificationServiceInterface defines the interface for the email
// verification and password reset flows
type VerificationServiceInterface interface {
	VerifyEmail(ctx context.Context, plainToken string) (*models.User, error)
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, plainToken, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service      AuthServiceInterface
	verification VerificationServiceInterface
	ipConfig     *pkghttp.IPConfig
}

func NewAuthHandler(service AuthServiceInterface, verification VerificationServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:      service,
		verification: verification,
		ipConfig:     ipConfig,
	}
}

// Request DTOs

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest represents the request body for logout
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// EmailRequest carries a bare email (resend verification, forgot password)
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents the request body for password reset
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// Signup handles user registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var passwordErr *pkgauth.PasswordValidationError
		switch {
		case errors.As(err, &passwordErr):
			pkghttp.WriteBadRequest(w, passwordErr.Error())
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Email already registered")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid request")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Account created. Please check your email to verify your address.",
		"user":    user,
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	// Client IP and User-Agent feed the audit trail.
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	authResp, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress, userAgent)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid email or password")
		case errors.Is(err, models.ErrEmailNotVerified):
			pkghttp.WriteForbidden(w, "Please verify your email before logging in")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, authResp)
}

// Refresh handles refresh token rotation
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authResp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, models.ErrInvalidToken) {
			pkghttp.WriteUnauthorized(w, "Invalid or expired refresh token")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, authResp)
}

// Logout revokes a single refresh token. Unknown or malformed tokens get
// the same success response as valid ones.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// LogoutAll revokes every refresh token of the authenticated user
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	if err := h.service.LogoutAll(r.Context(), claims.UserID); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out from all devices"})
}

// VerifyEmail consumes a verification token from the URL path
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	user, err := h.verification.VerifyEmail(r.Context(), token)
	if err != nil {
		if errors.Is(err, models.ErrInvalidOrExpired) {
			pkghttp.WriteBadRequest(w, "Invalid or expired verification token")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Email verified successfully",
		"email":   user.Email,
	})
}

// ResendVerification regenerates and re-sends the verification email
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.verification.ResendVerification(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "No account found for that email")
		case errors.Is(err, models.ErrAlreadyVerified):
			pkghttp.WriteBadRequest(w, "Email is already verified")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Verification email sent"})
}

// ForgotPassword issues a password reset token and mails it
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.verification.ForgotPassword(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "No account found for that email")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent"})
}

// ResetPassword consumes a reset token from the URL path and installs the
// new password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.verification.ResetPassword(r.Context(), token, req.Password)
	if err != nil {
		var passwordErr *pkgauth.PasswordValidationError
		switch {
		case errors.As(err, &passwordErr):
			pkghttp.WriteBadRequest(w, passwordErr.Error())
		case errors.Is(err, models.ErrInvalidOrExpired):
			pkghttp.WriteBadRequest(w, "Invalid or expired reset token")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}
