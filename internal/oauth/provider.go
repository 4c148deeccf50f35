package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/linkedin"

	"github.com/proresume/server/internal/models"
)

const maxUserInfoBody = 1 << 20

// Provider wraps one OAuth2 identity provider: the authorization-code
// config plus a userinfo fetch that maps the provider's payload onto an
// OAuthProfile.
type Provider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	parse       func([]byte) (*models.OAuthProfile, error)
}

// NewGoogleProvider configures Google sign-in. The callback path must match
// what is registered in the Google console.
func NewGoogleProvider(clientID, clientSecret, callbackBaseURL string) *Provider {
	return &Provider{
		name: models.ProviderGoogle,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/auth/google/callback", callbackBaseURL),
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		parse:       parseGoogleProfile,
	}
}

// NewLinkedInProvider configures LinkedIn sign-in via its OIDC userinfo
// endpoint.
func NewLinkedInProvider(clientID, clientSecret, callbackBaseURL string) *Provider {
	return &Provider{
		name: models.ProviderLinkedIn,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/auth/linkedin/callback", callbackBaseURL),
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     linkedin.Endpoint,
		},
		userInfoURL: "https://api.linkedin.com/v2/userinfo",
		parse:       parseLinkedInProfile,
	}
}

func (p *Provider) Name() string {
	return p.name
}

// AuthCodeURL returns the provider's consent-screen URL carrying the CSRF
// state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// FetchProfile exchanges the authorization code and fetches the user's
// profile from the provider.
func (p *Provider) FetchProfile(ctx context.Context, code string) (*models.OAuthProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code with %s: %w", p.name, err)
	}

	client := p.config.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s userinfo: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s userinfo returned status %d", p.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s userinfo: %w", p.name, err)
	}

	profile, err := p.parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s userinfo: %w", p.name, err)
	}
	if profile.ExternalID == "" {
		return nil, fmt.Errorf("%s userinfo missing subject id", p.name)
	}
	return profile, nil
}

func parseGoogleProfile(body []byte) (*models.OAuthProfile, error) {
	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return &models.OAuthProfile{
		ExternalID:  payload.ID,
		Email:       payload.Email,
		DisplayName: payload.Name,
		AvatarURL:   payload.Picture,
	}, nil
}

func parseLinkedInProfile(body []byte) (*models.OAuthProfile, error) {
	var payload struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return &models.OAuthProfile{
		ExternalID:  payload.Sub,
		Email:       payload.Email,
		DisplayName: payload.Name,
		AvatarURL:   payload.Picture,
	}, nil
}
