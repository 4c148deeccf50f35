package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims are the JWT claims carried by both token types. The Type
// claim keeps refresh tokens out of the API surface and access tokens out
// of the rotation endpoint.
type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager mints and validates HS256-signed bearer tokens. Access
// tokens are stateless: validity derives purely from signature and expiry.
// Refresh tokens additionally live in the persisted per-user list, which is
// what makes rotation single-use.
type TokenManager struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             []byte(secret),
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

// RefreshTokenExpiry exposes the refresh validity window so the store can
// set matching row expiries.
func (tm *TokenManager) RefreshTokenExpiry() time.Duration {
	return tm.refreshTokenExpiry
}

// GenerateAccessToken creates a short-lived access token for the user.
func (tm *TokenManager) GenerateAccessToken(userID string) (string, error) {
	return tm.generate(TokenTypeAccess, userID, tm.accessTokenExpiry)
}

// GenerateRefreshToken creates a long-lived refresh token for the user.
func (tm *TokenManager) GenerateRefreshToken(userID string) (string, error) {
	return tm.generate(TokenTypeRefresh, userID, tm.refreshTokenExpiry)
}

func (tm *TokenManager) generate(tokenType, userID string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		Type:   tokenType,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// ValidateToken verifies signature and expiry and returns the claims.
func (tm *TokenManager) ValidateToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.Type != TokenTypeAccess && claims.Type != TokenTypeRefresh {
		return nil, fmt.Errorf("invalid token: missing type")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("invalid token: missing user id")
	}

	return claims, nil
}
