package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
)

type loginAttemptRepositoryImpl struct {
	db *database.DB
}

func NewLoginAttemptRepository(db *database.DB) auth.LoginAttemptRepository {
	return &loginAttemptRepositoryImpl{db: db}
}

// RecordLoginAttempt implements auth.LoginAttemptRepository.
func (r *loginAttemptRepositoryImpl) RecordLoginAttempt(ctx context.Context, attempt auth.LoginAttempt) error {
	q := GetQuerier(ctx, r.db)

	id, err := newID("login attempt")
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO login_attempts (id, email, user_id, outcome, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		id, attempt.Email, attempt.UserID, attempt.Outcome, attempt.IPAddress, attempt.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}
