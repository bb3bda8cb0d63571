package auth

import "errors"

var (
	ErrEmailAlreadyExists  = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailNotVerified    = errors.New("email is not verified")
	ErrAccountLocked       = errors.New("account temporarily locked")
	ErrInvalidCode         = errors.New("invalid or expired code")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

	// ErrTokenReused means the presented refresh token's JTI was already
	// blacklisted: either a replayed token or the detectable signal that
	// a stolen token was used. Callers should terminate the session.
	ErrTokenReused = errors.New("refresh token already used")
)
