package auth

import "context"

// RefreshTokenRepository - interface for refresh_tokens table. Tokens are stored hashed.
type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, userID string, token string, expiresAt int64, session SessionTrackingRequest) error
	// IsRefreshTokenRevoked locks the token row and reports its owner. It
	// returns ErrInvalidToken for tokens that were never issued.
	IsRefreshTokenRevoked(ctx context.Context, token string) (userID string, revoked bool, err error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

// LoginAttemptRepository - interface for login_attempts table
type LoginAttemptRepository interface {
	RecordLoginAttempt(ctx context.Context, attempt LoginAttempt) error
}
