package auth

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrAccountLocked       = errors.New("account is temporarily locked after repeated failed logins")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrRefreshTokenRevoked = errors.New("refresh token has been revoked")
	ErrRefreshTokenMissing = errors.New("refresh token is required")
	ErrMFARequired         = errors.New("one-time code is required")
	ErrInvalidMFACode      = errors.New("invalid one-time code")
	ErrMFAAlreadyEnabled   = errors.New("multi-factor authentication is already enabled")
	ErrMFANotInitiated     = errors.New("multi-factor authentication setup has not been started")
)
