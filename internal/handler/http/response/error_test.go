package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/master/department"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/master/designation"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", validator.ValidationErrors{{Field: "email", Message: "email is required"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"configuration", payroll.NewConfigurationError(payroll.ErrNoTaxSlabs, ""), http.StatusUnprocessableEntity, "CONFIGURATION_ERROR"},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"inactive account", auth.ErrAccountInactive, http.StatusForbidden, "FORBIDDEN"},
		{"locked account", auth.ErrAccountLocked, http.StatusForbidden, "FORBIDDEN"},
		{"revoked refresh token", auth.ErrRefreshTokenRevoked, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"mfa required", auth.ErrMFARequired, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"mfa already enabled", auth.ErrMFAAlreadyEnabled, http.StatusConflict, "CONFLICT"},
		{"insufficient permissions", user.ErrInsufficientPermissions, http.StatusForbidden, "FORBIDDEN"},
		{"not own employee", employee.ErrUnauthorized, http.StatusForbidden, "FORBIDDEN"},
		{"leave without employee record", leave.ErrNoEmployeeRecord, http.StatusForbidden, "FORBIDDEN"},
		{"payroll without employee record", payroll.ErrNoEmployeeRecord, http.StatusForbidden, "FORBIDDEN"},
		{"employee not found", employee.ErrEmployeeNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"leave request not found", leave.ErrLeaveRequestNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"payslip not found", payroll.ErrPayslipNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"insufficient balance", leave.ErrInsufficientBalance, http.StatusConflict, "CONFLICT"},
		{"already processed", leave.ErrLeaveRequestAlreadyProcessed, http.StatusConflict, "CONFLICT"},
		{"payslip exists", payroll.ErrPayslipAlreadyExists, http.StatusConflict, "CONFLICT"},
		{"run completed", payroll.ErrPayrollRunCompleted, http.StatusConflict, "CONFLICT"},
		{"run exists", payroll.ErrPayrollRunExists, http.StatusConflict, "CONFLICT"},
		{"already clocked in", attendance.ErrAlreadyClockedIn, http.StatusConflict, "CONFLICT"},
		{"correction pending", attendance.ErrCorrectionPending, http.StatusConflict, "CONFLICT"},
		{"correction self review", attendance.ErrSelfReview, http.StatusForbidden, "FORBIDDEN"},
		{"correction not found", attendance.ErrCorrectionNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"correction date mismatch", attendance.ErrCorrectionDateMismatch, http.StatusUnprocessableEntity, "CORRECTION_DATE_MISMATCH"},
		{"department not found", department.ErrDepartmentNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"department name exists", department.ErrDepartmentNameExists, http.StatusConflict, "CONFLICT"},
		{"designation title exists", designation.ErrDesignationTitleExists, http.StatusConflict, "CONFLICT"},
		{"wrapped sentinel", fmt.Errorf("approve: %w", leave.ErrInsufficientBalance), http.StatusConflict, "CONFLICT"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestHandleError_ValidationDetails(t *testing.T) {
	var errs validator.ValidationErrors
	errs.Add("duration_days", "insufficient leave balance")

	rec := httptest.NewRecorder()
	HandleError(rec, errs.Err())

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "insufficient leave balance", body.Error.Details["duration_days"])
}

func TestHandleError_UnknownErrorDoesNotLeak(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.New("pq: password authentication failed"))

	assert.NotContains(t, rec.Body.String(), "password authentication")
}
