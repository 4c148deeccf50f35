package models

import "time"

// MaxRefreshTokensPerUser caps the persisted refresh-token list. Insertion
// evicts the oldest entries first (strict insertion order, never touch-on-use).
const MaxRefreshTokensPerUser = 5

// RefreshToken is one entry of a user's persisted refresh-token list. A
// refresh token is only honored while its row exists and expires_at is in
// the future; rotation deletes the row and inserts a replacement.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the token's absolute expiry has elapsed.
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}
