package auth

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
)

type passthroughTransactor struct{}

func (passthroughTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *memUserRepo) RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		u.LockedUntil = &lockUntil
	}
	r.users[id] = u
	return u, nil
}

func (r *memUserRepo) ResetFailedLogins(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	r.users[id] = u
	return nil
}

func (r *memUserRepo) SetMFASecret(ctx context.Context, id string, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.MFAEnabled {
		return user.ErrUserNotFound
	}
	u.MFASecret = &secret
	r.users[id] = u
	return nil
}

func (r *memUserRepo) EnableMFA(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.MFASecret == nil {
		return user.ErrUserNotFound
	}
	u.MFAEnabled = true
	r.users[id] = u
	return nil
}

type storedRefreshToken struct {
	userID  string
	revoked bool
	session auth.SessionTrackingRequest
}

type memRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*storedRefreshToken
}

func newMemRefreshTokenRepo() *memRefreshTokenRepo {
	return &memRefreshTokenRepo{tokens: make(map[string]*storedRefreshToken)}
}

func (r *memRefreshTokenRepo) CreateRefreshToken(ctx context.Context, userID string, token string, expiresAt int64, session auth.SessionTrackingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = &storedRefreshToken{userID: userID, session: session}
	return nil
}

func (r *memRefreshTokenRepo) IsRefreshTokenRevoked(ctx context.Context, token string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tokens[token]
	if !ok {
		return "", false, auth.ErrInvalidToken
	}
	return stored.userID, stored.revoked, nil
}

func (r *memRefreshTokenRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tokens[token]
	if !ok {
		return auth.ErrInvalidToken
	}
	stored.revoked = true
	return nil
}

func (r *memRefreshTokenRepo) revoked(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tokens[token]
	return ok && stored.revoked
}

type memLoginAttemptRepo struct {
	mu       sync.Mutex
	attempts []auth.LoginAttempt
}

func (r *memLoginAttemptRepo) RecordLoginAttempt(ctx context.Context, attempt auth.LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *memLoginAttemptRepo) outcomes() []auth.LoginOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.LoginOutcome, 0, len(r.attempts))
	for _, a := range r.attempts {
		out = append(out, a.Outcome)
	}
	return out
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *memAuditRepo) Record(ctx context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memAuditRepo) List(ctx context.Context, filter audit.AuditFilter) ([]audit.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Entry(nil), r.entries...), int64(len(r.entries)), nil
}
