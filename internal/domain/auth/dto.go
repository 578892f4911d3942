package auth

import (
	"strings"

	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTPCode  string `json:"otp_code,omitempty"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	// Email
	if validator.IsEmpty(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if len(r.Email) > 254 {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must not exceed 254 characters",
		})
	} else if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must be a valid email address",
		})
	}

	// Password
	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	}

	r.OTPCode = strings.TrimSpace(r.OTPCode)
	if r.OTPCode != "" && !isOTPCode(r.OTPCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "otp_code",
			Message: "otp_code must be 6 digits",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func isOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// SessionTrackingRequest carries the client details stored with a refresh token.
type SessionTrackingRequest struct {
	UserAgent string
	IPAddress string
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type MFASetupRequest struct {
	CurrentPassword string `json:"current_password"`
}

func (r *MFASetupRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.CurrentPassword) {
		errs.Add("current_password", "current_password is required")
	}
	return errs.Err()
}

type MFAVerifyRequest struct {
	Code string `json:"code"`
}

func (r *MFAVerifyRequest) Validate() error {
	var errs validator.ValidationErrors
	r.Code = strings.TrimSpace(r.Code)
	if !isOTPCode(r.Code) {
		errs.Add("code", "code must be 6 digits")
	}
	return errs.Err()
}

type MFASetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

type TokenResponse struct {
	AccessToken           string `json:"access_token"`
	AccessTokenExpiresIn  int64  `json:"access_token_expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	TokenType             string `json:"token_type"`
}
