package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proresume/server/internal/models"
	"github.com/proresume/server/internal/services"
)

func TestUserHandler_GetProfile(t *testing.T) {
	mockService := &MockUserService{
		GetProfileFunc: func(ctx context.Context, userID string) (*services.UserResponse, error) {
			return &services.UserResponse{ID: userID, Email: "jane@example.com", Name: "Jane Doe"}, nil
		},
	}
	h := NewUserHandler(mockService)

	r := withClaims(httptest.NewRequest(http.MethodGet, "/api/user/profile", nil), "user123")
	w := httptest.NewRecorder()
	h.GetProfile(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp services.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user123", resp.ID)
}

func TestUserHandler_GetProfile_NoClaims(t *testing.T) {
	h := NewUserHandler(&MockUserService{})

	r := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	w := httptest.NewRecorder()
	h.GetProfile(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_UpdateProfile_EmailTaken(t *testing.T) {
	mockService := &MockUserService{
		UpdateProfileFunc: func(ctx context.Context, userID, name, email string) (*services.UserResponse, error) {
			return nil, models.ErrConflict
		},
	}
	h := NewUserHandler(mockService)

	payload, err := json.Marshal(UpdateProfileRequest{Name: "Jane Doe", Email: "taken@example.com"})
	require.NoError(t, err)
	r := withClaims(httptest.NewRequest(http.MethodPut, "/api/user/profile", bytes.NewReader(payload)), "user123")
	w := httptest.NewRecorder()
	h.UpdateProfile(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUserHandler_ChangePassword_WrongCurrent(t *testing.T) {
	mockService := &MockUserService{
		ChangePasswordFunc: func(ctx context.Context, userID, currentPassword, newPassword string) error {
			return models.ErrUnauthorized
		},
	}
	h := NewUserHandler(mockService)

	payload, err := json.Marshal(ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "NewSecurePass456"})
	require.NoError(t, err)
	r := withClaims(httptest.NewRequest(http.MethodPut, "/api/user/change-password", bytes.NewReader(payload)), "user123")
	w := httptest.NewRecorder()
	h.ChangePassword(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Current password is incorrect")
}

func TestUserHandler_ChangePassword_Success(t *testing.T) {
	var gotUserID string
	mockService := &MockUserService{
		ChangePasswordFunc: func(ctx context.Context, userID, currentPassword, newPassword string) error {
			gotUserID = userID
			return nil
		},
	}
	h := NewUserHandler(mockService)

	payload, err := json.Marshal(ChangePasswordRequest{CurrentPassword: "CurrentPass123", NewPassword: "NewSecurePass456"})
	require.NoError(t, err)
	r := withClaims(httptest.NewRequest(http.MethodPut, "/api/user/change-password", bytes.NewReader(payload)), "user123")
	w := httptest.NewRecorder()
	h.ChangePassword(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user123", gotUserID)
}

func TestUserHandler_Preferences_RoundTrip(t *testing.T) {
	var saved models.Preferences
	mockService := &MockUserService{
		UpdatePreferencesFunc: func(ctx context.Context, userID string, prefs models.Preferences) (*models.Preferences, error) {
			saved = prefs
			return &prefs, nil
		},
	}
	h := NewUserHandler(mockService)

	payload := []byte(`{"email_notifications":false,"marketing_emails":true,"resume_reminders":false}`)
	r := withClaims(httptest.NewRequest(http.MethodPut, "/api/user/preferences", bytes.NewReader(payload)), "user123")
	w := httptest.NewRecorder()
	h.UpdatePreferences(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, saved.EmailNotifications)
	assert.True(t, saved.MarketingEmails)
	assert.False(t, saved.ResumeReminders)
}

func TestUserHandler_DeleteAccount(t *testing.T) {
	deletedID := ""
	mockService := &MockUserService{
		DeleteAccountFunc: func(ctx context.Context, userID string) error {
			deletedID = userID
			return nil
		},
	}
	h := NewUserHandler(mockService)

	r := withClaims(httptest.NewRequest(http.MethodDelete, "/api/user/account", nil), "user123")
	w := httptest.NewRecorder()
	h.DeleteAccount(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user123", deletedID)
}
