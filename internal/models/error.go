package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Login is blocked until the local account's email is confirmed.
	ErrEmailNotVerified = errors.New("email address not verified")

	// Refresh rotation: bad signature, expired, or not in the persisted
	// list (already rotated or revoked). Never distinguished to the caller.
	ErrInvalidToken = errors.New("invalid refresh token")

	// Verification/reset consumption: missing user, hash mismatch, and
	// elapsed expiry all collapse into this one error (anti-enumeration).
	ErrInvalidOrExpired = errors.New("invalid or expired token")

	ErrAlreadyVerified = errors.New("email is already verified")
)
