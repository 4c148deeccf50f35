package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/proresume/server/internal/models"
	"github.com/proresume/server/internal/services"
	pkghttp "github.com/proresume/server/pkg/http"
)

const oauthStateCookie = "oauth_state"

// OAuthProvider is the provider client contract the handler needs
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*models.OAuthProfile, error)
}

// OAuthServiceInterface maps a provider profile onto a local account
type OAuthServiceInterface interface {
	HandleCallback(ctx context.Context, provider string, profile *models.OAuthProfile) (*services.AuthResponse, error)
}

// OAuthHandler drives the browser through the authorization-code flow and
// hands the resulting token pair back to the client app via redirect.
type OAuthHandler struct {
	providers map[string]OAuthProvider
	service   OAuthServiceInterface
	clientURL string
	logger    *slog.Logger
}

func NewOAuthHandler(providers []OAuthProvider, service OAuthServiceInterface, clientURL string, logger *slog.Logger) *OAuthHandler {
	byName := make(map[string]OAuthProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &OAuthHandler{
		providers: byName,
		service:   service,
		clientURL: clientURL,
		logger:    logger,
	}
}

// Start redirects the browser to the provider's consent screen, pinning a
// CSRF state value in a short-lived cookie.
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		pkghttp.WriteNotFound(w, "Unknown provider")
		return
	}

	state, err := newStateToken()
	if err != nil {
		h.logger.Error("failed to generate oauth state", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback completes the flow: state check, code exchange, account linking,
// then a redirect carrying the token pair to the client app. Failures
// redirect to the client login page rather than rendering JSON, since the
// browser is mid-navigation.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	provider, ok := h.providers[providerName]
	if !ok {
		pkghttp.WriteNotFound(w, "Unknown provider")
		return
	}

	// Cookie is single-use regardless of outcome.
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth flow denied at provider",
			slog.String("provider", providerName), slog.String("error", errParam))
		h.redirectFailure(w, r)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		h.logger.Warn("oauth state mismatch", slog.String("provider", providerName))
		h.redirectFailure(w, r)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectFailure(w, r)
		return
	}

	profile, err := provider.FetchProfile(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth profile fetch failed",
			slog.String("provider", providerName), slog.Any("error", err))
		h.redirectFailure(w, r)
		return
	}

	authResp, err := h.service.HandleCallback(r.Context(), providerName, profile)
	if err != nil {
		h.logger.Error("oauth callback handling failed",
			slog.String("provider", providerName), slog.Any("error", err))
		h.redirectFailure(w, r)
		return
	}

	redirect := fmt.Sprintf("%s/oauth-callback?accessToken=%s&refreshToken=%s",
		h.clientURL,
		url.QueryEscape(authResp.AccessToken),
		url.QueryEscape(authResp.RefreshToken))
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) redirectFailure(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, fmt.Sprintf("%s/login?error=oauth_failed", h.clientURL), http.StatusTemporaryRedirect)
}

func newStateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
