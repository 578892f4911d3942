package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	txManager database.Transactor
	user.UserRepository
	employee.EmployeeRepository
	auth.RefreshTokenRepository
	auth.LoginAttemptRepository
	auditRepo audit.AuditRepository
	jwt.Service
	policy auth.Policy
	now    func() time.Time
}

func NewAuthService(
	txManager database.Transactor,
	userRepository user.UserRepository,
	employeeRepository employee.EmployeeRepository,
	refreshTokenRepository auth.RefreshTokenRepository,
	loginAttemptRepository auth.LoginAttemptRepository,
	auditRepository audit.AuditRepository,
	jwtService jwt.Service,
	policy auth.Policy,
) auth.AuthService {
	return &AuthServiceImpl{
		txManager:              txManager,
		UserRepository:         userRepository,
		EmployeeRepository:     employeeRepository,
		RefreshTokenRepository: refreshTokenRepository,
		LoginAttemptRepository: loginAttemptRepository,
		auditRepo:              auditRepository,
		Service:                jwtService,
		policy:                 policy,
		now:                    time.Now,
	}
}

func (a *AuthServiceImpl) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	attempt := auth.LoginAttempt{Email: req.Email, IPAddress: session.IPAddress, UserAgent: session.UserAgent}

	userData, err := a.UserRepository.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			a.recordAttempt(ctx, attempt, auth.LoginFailed)
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	attempt.UserID = &userData.ID

	if userData.IsLocked(a.now()) {
		a.recordAttempt(ctx, attempt, auth.LoginLocked)
		return auth.TokenResponse{}, auth.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userData.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, a.failLogin(ctx, userData, attempt, auth.ErrInvalidCredentials)
	}

	if !userData.IsActive {
		a.recordAttempt(ctx, attempt, auth.LoginFailed)
		return auth.TokenResponse{}, auth.ErrAccountInactive
	}

	if userData.MFAEnabled && userData.MFASecret != nil {
		if req.OTPCode == "" {
			return auth.TokenResponse{}, auth.ErrMFARequired
		}
		if !totp.Validate(req.OTPCode, *userData.MFASecret) {
			return auth.TokenResponse{}, a.failLogin(ctx, userData, attempt, auth.ErrInvalidMFACode)
		}
	}

	var tokens auth.TokenResponse
	err = a.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := a.UserRepository.ResetFailedLogins(txCtx, userData.ID); err != nil {
			return err
		}
		tokens, err = a.issueTokens(txCtx, userData, session)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}

	a.recordAttempt(ctx, attempt, auth.LoginSucceeded)
	return tokens, nil
}

// failLogin counts a failed login against the account and returns cause.
func (a *AuthServiceImpl) failLogin(ctx context.Context, userData user.User, attempt auth.LoginAttempt, cause error) error {
	updated, err := a.UserRepository.RecordFailedLogin(ctx, userData.ID, a.policy.MaxLoginAttempts, a.now().Add(a.policy.LockoutDuration))
	if err != nil {
		return err
	}
	a.recordAttempt(ctx, attempt, auth.LoginFailed)

	if updated.IsLocked(a.now()) {
		slog.Warn("account locked after failed logins",
			"user_id", updated.ID,
			"attempts", updated.FailedLoginAttempts,
			"locked_until", updated.LockedUntil,
		)
	}
	return cause
}

func (a *AuthServiceImpl) recordAttempt(ctx context.Context, attempt auth.LoginAttempt, outcome auth.LoginOutcome) {
	attempt.Outcome = outcome
	if err := a.LoginAttemptRepository.RecordLoginAttempt(ctx, attempt); err != nil {
		slog.Error("failed to record login attempt", "email", attempt.Email, "outcome", outcome, "error", err)
	}
}

// issueTokens creates an access and refresh token pair and stores the refresh token.
func (a *AuthServiceImpl) issueTokens(ctx context.Context, userData user.User, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	var tokens auth.TokenResponse
	var err error

	tokens.AccessToken, tokens.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(userData.ID, userData.Email, userData.EmployeeID, userData.Role)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	tokens.RefreshToken, tokens.RefreshTokenExpiresIn, err = a.Service.GenerateRefreshToken(userData.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}
	if err := a.RefreshTokenRepository.CreateRefreshToken(ctx, userData.ID, tokens.RefreshToken, tokens.RefreshTokenExpiresIn, session); err != nil {
		return auth.TokenResponse{}, err
	}

	tokens.TokenType = "Bearer"
	return tokens, nil
}

// RefreshToken implements auth.AuthService.
func (a *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if refreshToken == "" {
		return auth.TokenResponse{}, auth.ErrRefreshTokenMissing
	}

	token, err := jwtauth.VerifyToken(a.JWTAuth(), refreshToken)
	if err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidToken
	}
	claims, err := token.AsMap(ctx)
	if err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != "refresh" {
		return auth.TokenResponse{}, auth.ErrInvalidToken
	}

	var tokens auth.TokenResponse
	err = a.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		userID, revoked, err := a.RefreshTokenRepository.IsRefreshTokenRevoked(txCtx, refreshToken)
		if err != nil {
			return err
		}
		if revoked {
			return auth.ErrRefreshTokenRevoked
		}

		userData, err := a.UserRepository.GetByID(txCtx, userID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return auth.ErrInvalidToken
			}
			return err
		}
		if !userData.IsActive {
			return auth.ErrAccountInactive
		}

		if err := a.RefreshTokenRepository.RevokeRefreshToken(txCtx, refreshToken); err != nil {
			return err
		}
		tokens, err = a.issueTokens(txCtx, userData, session)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}
	return tokens, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return auth.ErrRefreshTokenMissing
	}

	return a.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		_, revoked, err := a.RefreshTokenRepository.IsRefreshTokenRevoked(txCtx, refreshToken)
		if err != nil {
			return err
		}
		if revoked {
			return nil
		}
		return a.RefreshTokenRepository.RevokeRefreshToken(txCtx, refreshToken)
	})
}

// Me implements auth.AuthService.
func (a *AuthServiceImpl) Me(ctx context.Context, caller user.Caller) (user.UserResponse, error) {
	userData, err := a.UserRepository.GetByID(ctx, caller.UserID)
	if err != nil {
		return user.UserResponse{}, err
	}
	return mapUserToResponse(userData), nil
}

// CreateUser implements auth.AuthService.
func (a *AuthServiceImpl) CreateUser(ctx context.Context, caller user.Caller, req user.CreateUserRequest) (user.UserResponse, error) {
	if !caller.Can(user.PermissionUserManage) {
		return user.UserResponse{}, user.ErrInsufficientPermissions
	}

	if req.EmployeeID != nil {
		if _, err := a.EmployeeRepository.GetByID(ctx, *req.EmployeeID); err != nil {
			return user.UserResponse{}, err
		}
	}

	hash, err := a.hashPassword(req.Password)
	if err != nil {
		return user.UserResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	var created user.User
	err = a.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		created, err = a.UserRepository.Create(txCtx, user.User{
			Email:        req.Email,
			PasswordHash: hash,
			Role:         user.Role(req.Role),
			EmployeeID:   req.EmployeeID,
		})
		if err != nil {
			return err
		}
		return a.auditRepo.Record(txCtx, audit.NewEntry(caller, audit.ActionUserCreate, "user", created.ID, map[string]any{
			"email": created.Email,
			"role":  string(created.Role),
		}))
	})
	if err != nil {
		return user.UserResponse{}, err
	}

	slog.Info("user created", "user_id", created.ID, "role", created.Role, "created_by", caller.UserID)
	return mapUserToResponse(created), nil
}

// SetupMFA implements auth.AuthService. The secret stays pending until VerifyMFA confirms a code.
func (a *AuthServiceImpl) SetupMFA(ctx context.Context, caller user.Caller, req auth.MFASetupRequest) (auth.MFASetupResponse, error) {
	userData, err := a.UserRepository.GetByID(ctx, caller.UserID)
	if err != nil {
		return auth.MFASetupResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(userData.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return auth.MFASetupResponse{}, auth.ErrInvalidCredentials
	}
	if userData.MFAEnabled {
		return auth.MFASetupResponse{}, auth.ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.policy.MFAIssuer,
		AccountName: userData.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return auth.MFASetupResponse{}, fmt.Errorf("failed to generate mfa secret: %w", err)
	}

	if err := a.UserRepository.SetMFASecret(ctx, userData.ID, key.Secret()); err != nil {
		return auth.MFASetupResponse{}, err
	}

	return auth.MFASetupResponse{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// VerifyMFA implements auth.AuthService.
func (a *AuthServiceImpl) VerifyMFA(ctx context.Context, caller user.Caller, req auth.MFAVerifyRequest) error {
	userData, err := a.UserRepository.GetByID(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if userData.MFAEnabled {
		return auth.ErrMFAAlreadyEnabled
	}
	if userData.MFASecret == nil {
		return auth.ErrMFANotInitiated
	}
	if !totp.Validate(req.Code, *userData.MFASecret) {
		return auth.ErrInvalidMFACode
	}

	return a.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := a.UserRepository.EnableMFA(txCtx, userData.ID); err != nil {
			return err
		}
		return a.auditRepo.Record(txCtx, audit.NewEntry(caller, audit.ActionMFAEnable, "user", userData.ID, nil))
	})
}

// EnsureAdmin implements auth.AuthService.
func (a *AuthServiceImpl) EnsureAdmin(ctx context.Context, email, password string) error {
	exists, err := a.UserRepository.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := a.hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := a.UserRepository.Create(ctx, user.User{
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, user.ErrUserEmailExists) {
			return nil
		}
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	slog.Info("seeded admin user", "user_id", created.ID, "email", created.Email)
	return nil
}

func mapUserToResponse(u user.User) user.UserResponse {
	return user.UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Role:       string(u.Role),
		EmployeeID: u.EmployeeID,
		IsActive:   u.IsActive,
		MFAEnabled: u.MFAEnabled,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  u.UpdatedAt.Format(time.RFC3339),
	}
}
