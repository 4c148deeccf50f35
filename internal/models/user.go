package models

import (
	"time"
)

// Auth providers. Provider is set at account creation and never reassigned;
// an OAuth-created account has no password hash, a local account always does.
const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderLinkedIn = "linkedin"
)

type User struct {
	ID           string
	Email        string
	PasswordHash *string // nil for OAuth-only users
	Name         string
	Provider     string
	GoogleID     *string // sparse unique
	LinkedInID   *string // sparse unique
	AvatarURL    *string
	IsVerified   bool

	// Single pending email-verification token (sha256 hash + absolute expiry).
	// Regenerating overwrites, consuming clears.
	VerificationTokenHash      *string
	VerificationTokenExpiresAt *time.Time

	// Single pending password-reset token, same shape, 10-minute window.
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time

	Preferences Preferences

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Preferences are per-user notification flags, each independently defaulted.
type Preferences struct {
	EmailNotifications bool `json:"email_notifications"`
	MarketingEmails    bool `json:"marketing_emails"`
	ResumeReminders    bool `json:"resume_reminders"`
}

// DefaultPreferences returns the flags a freshly created account gets.
func DefaultPreferences() Preferences {
	return Preferences{
		EmailNotifications: true,
		MarketingEmails:    false,
		ResumeReminders:    true,
	}
}

// NewLocalUser builds an unverified password-backed account. The hash must
// already be computed; keeping construction here enforces the
// one-of-password-or-external-id invariant structurally.
func NewLocalUser(name, email, passwordHash string) *User {
	return &User{
		Email:        email,
		PasswordHash: &passwordHash,
		Name:         name,
		Provider:     ProviderLocal,
		IsVerified:   false,
		Preferences:  DefaultPreferences(),
	}
}

// NewOAuthUser builds a pre-verified account for a trusted provider
// assertion. No password hash is set.
func NewOAuthUser(provider string, profile *OAuthProfile) *User {
	u := &User{
		Email:       profile.Email,
		Name:        profile.DisplayName,
		Provider:    provider,
		IsVerified:  true,
		Preferences: DefaultPreferences(),
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		u.AvatarURL = &avatar
	}
	externalID := profile.ExternalID
	switch provider {
	case ProviderGoogle:
		u.GoogleID = &externalID
	case ProviderLinkedIn:
		u.LinkedInID = &externalID
	}
	return u
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// ExternalID returns the linked external identity key for the given
// provider, or empty if none is linked.
func (u *User) ExternalID(provider string) string {
	switch provider {
	case ProviderGoogle:
		if u.GoogleID != nil {
			return *u.GoogleID
		}
	case ProviderLinkedIn:
		if u.LinkedInID != nil {
			return *u.LinkedInID
		}
	}
	return ""
}
