package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is a custom type for context keys
type contextKey string

// UserContextKey is the key for storing user claims in context
const UserContextKey contextKey = "user"

// Middleware is the per-request session gate: it extracts the bearer access
// token, validates signature and expiry, and injects the claims into the
// request context. Missing, malformed, and expired tokens are all the same
// 401 to the caller. No store lookup happens here.
func Middleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(parts[1])
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// Refresh tokens are only good for the rotation endpoint.
			if claims.Type != TokenTypeAccess {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) *TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
