package user

import (
	"context"
	"time"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, newUser User) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// RecordFailedLogin increments the failure counter and locks the account
	// until lockUntil once the counter reaches maxAttempts.
	RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (User, error)
	ResetFailedLogins(ctx context.Context, id string) error
	SetMFASecret(ctx context.Context, id string, secret string) error
	EnableMFA(ctx context.Context, id string) error
}
