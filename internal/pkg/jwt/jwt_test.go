package jwt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

func decodeClaims(t *testing.T, svc Service, token string) map[string]interface{} {
	t.Helper()
	parsed, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := parsed.AsMap(context.Background())
	require.NoError(t, err)
	return claims
}

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService(testSecret, "1h", "168h", false)
	employeeID := "0196b1a4-7a11-7c2e-9d7e-4f3b2a1c0d9e"

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "hr@example.com", &employeeID, user.RoleHRManager)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotZero(t, expiresAt)

	caller, err := CallerFromClaims(decodeClaims(t, svc, token))
	require.NoError(t, err)
	assert.Equal(t, "user-1", caller.UserID)
	assert.Equal(t, "hr@example.com", caller.Email)
	assert.Equal(t, user.RoleHRManager, caller.Role)
	require.NotNil(t, caller.EmployeeID)
	assert.Equal(t, employeeID, *caller.EmployeeID)
}

func TestGenerateAccessToken_WithoutEmployee(t *testing.T) {
	svc := NewJWTService(testSecret, "1h", "168h", false)

	token, _, err := svc.GenerateAccessToken("admin-1", "admin@example.com", nil, user.RoleAdmin)
	require.NoError(t, err)

	caller, err := CallerFromClaims(decodeClaims(t, svc, token))
	require.NoError(t, err)
	assert.Nil(t, caller.EmployeeID)
	assert.True(t, caller.IsPrivileged())
}

func TestGenerateAccessToken_InvalidExpiration(t *testing.T) {
	svc := NewJWTService(testSecret, "soon", "168h", false)

	_, _, err := svc.GenerateAccessToken("user-1", "a@example.com", nil, user.RoleEmployee)
	assert.Error(t, err)
}

func TestDecode_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService(testSecret, "1h", "168h", false).GenerateAccessToken("user-1", "a@example.com", nil, user.RoleEmployee)
	require.NoError(t, err)

	_, err = NewJWTService("another-secret", "1h", "168h", false).JWTAuth().Decode(token)
	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	svc := NewJWTService(testSecret, "1h", "168h", true)

	first, expiresAt, err := svc.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	second, _, err := svc.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "tokens issued back to back must differ")

	claims := decodeClaims(t, svc, first)
	assert.Equal(t, "refresh", claims["type"])
	assert.Equal(t, "user-1", claims["user_id"])

	_, err = CallerFromClaims(claims)
	assert.ErrorIs(t, err, ErrMissingClaims, "a refresh token never authenticates a request")

	cookie := svc.RefreshTokenCookie(first, expiresAt)
	assert.Equal(t, "refresh_token", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(cookie)
	assert.Equal(t, first, RefreshTokenFromRequest(req))
	assert.Empty(t, RefreshTokenFromRequest(httptest.NewRequest(http.MethodPost, "/", nil)))

	assert.Equal(t, -1, svc.ClearRefreshTokenCookie().MaxAge)
}

func TestCallerFromClaims_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]interface{}
	}{
		{"refresh token", map[string]interface{}{"type": "refresh", "user_id": "u", "role": "admin"}},
		{"missing type", map[string]interface{}{"user_id": "u", "role": "admin"}},
		{"missing user", map[string]interface{}{"type": "access", "role": "admin"}},
		{"unknown role", map[string]interface{}{"type": "access", "user_id": "u", "role": "owner"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CallerFromClaims(tt.claims)
			assert.ErrorIs(t, err, ErrMissingClaims)
		})
	}
}

func TestCallerFromContext_NoToken(t *testing.T) {
	_, err := CallerFromContext(context.Background())
	assert.Error(t, err)
}
