package auth

import "time"

type LoginOutcome string

const (
	LoginSucceeded LoginOutcome = "success"
	LoginFailed    LoginOutcome = "failed"
	LoginLocked    LoginOutcome = "locked"
)

// LoginAttempt is one row of the login history, kept for unknown emails too.
type LoginAttempt struct {
	ID        string
	Email     string
	UserID    *string
	Outcome   LoginOutcome
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// Policy configures lockout and MFA enrolment.
type Policy struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	MFAIssuer        string
}
