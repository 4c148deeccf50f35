package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/proresume/server/internal/auth"
	"github.com/proresume/server/internal/models"
	"github.com/proresume/server/internal/services"
	pkgauth "github.com/proresume/server/pkg/auth"
	pkghttp "github.com/proresume/server/pkg/http"
)

// UserServiceInterface defines the interface for account management
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*services.UserResponse, error)
	UpdateProfile(ctx context.Context, userID, name, email string) (*services.UserResponse, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	GetPreferences(ctx context.Context, userID string) (*models.Preferences, error)
	UpdatePreferences(ctx context.Context, userID string, prefs models.Preferences) (*models.Preferences, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// UserHandler handles the signed-in account surface
type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// UpdateProfileRequest represents the request body for profile updates
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Email string `json:"email" validate:"required,email"`
}

// ChangePasswordRequest represents the request body for password changes
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// GetProfile returns the authenticated user's profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// UpdateProfile updates name and email. An email change drops the account
// back to unverified.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), claims.UserID, req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Email already in use")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid request")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// ChangePassword verifies the current password and installs a new one
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		var passwordErr *pkgauth.PasswordValidationError
		switch {
		case errors.As(err, &passwordErr):
			pkghttp.WriteBadRequest(w, passwordErr.Error())
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Current password is incorrect")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Account has no password; use password reset instead")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// GetPreferences returns the user's notification preferences
func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	prefs, err := h.service.GetPreferences(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences replaces the user's notification preferences
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	updated, err := h.service.UpdatePreferences(r.Context(), claims.UserID, prefs)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, updated)
}

// DeleteAccount removes the account and everything attached to it
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), claims.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}
