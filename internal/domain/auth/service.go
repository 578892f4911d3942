package auth

import (
	"context"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
)

type AuthService interface {
	Login(ctx context.Context, req LoginRequest, session SessionTrackingRequest) (TokenResponse, error)
	// RefreshToken rotates a refresh token: the presented one is revoked and a new pair is issued.
	RefreshToken(ctx context.Context, refreshToken string, session SessionTrackingRequest) (TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, caller user.Caller) (user.UserResponse, error)
	CreateUser(ctx context.Context, caller user.Caller, req user.CreateUserRequest) (user.UserResponse, error)
	SetupMFA(ctx context.Context, caller user.Caller, req MFASetupRequest) (MFASetupResponse, error)
	VerifyMFA(ctx context.Context, caller user.Caller, req MFAVerifyRequest) error
	// EnsureAdmin creates an admin account when no user owns the email yet.
	EnsureAdmin(ctx context.Context, email, password string) error
}
