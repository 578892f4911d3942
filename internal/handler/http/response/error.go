package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/master/department"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/master/designation"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var configErr *payroll.ConfigurationError
	if errors.As(err, &configErr) {
		UnprocessableEntity(w, "CONFIGURATION_ERROR", configErr.Error())
		return
	}

	switch {
	// Auth & user domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrAccountInactive):
		Forbidden(w, "Account is inactive")
	case errors.Is(err, auth.ErrAccountLocked):
		Forbidden(w, "Account is temporarily locked after repeated failed logins")
	case errors.Is(err, auth.ErrRefreshTokenRevoked):
		Unauthorized(w, "Refresh token has been revoked")
	case errors.Is(err, auth.ErrRefreshTokenMissing):
		Unauthorized(w, "Refresh token is missing")
	case errors.Is(err, auth.ErrMFARequired):
		Unauthorized(w, "Two-factor code required")
	case errors.Is(err, auth.ErrInvalidMFACode):
		Unauthorized(w, "Invalid two-factor code")
	case errors.Is(err, auth.ErrMFAAlreadyEnabled):
		Conflict(w, "Two-factor authentication already enabled")
	case errors.Is(err, auth.ErrMFANotInitiated):
		Conflict(w, "Two-factor setup has not been started")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, user.ErrEmployeeLinkTaken):
		Conflict(w, "Employee already linked to another user")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, employee.ErrUnauthorized):
		Forbidden(w, "Unauthorized to access this employee")

	// Leave domain errors
	case errors.Is(err, leave.ErrNoEmployeeRecord):
		Forbidden(w, "Caller is not linked to an employee record")
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		NotFound(w, "Leave type not found")
	case errors.Is(err, leave.ErrBalanceNotFound):
		NotFound(w, "Leave balance not found")
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrLeaveTypeNameExists):
		Conflict(w, "Leave type name already exists")
	case errors.Is(err, leave.ErrPolicyWindowExists):
		Conflict(w, "Policy window already exists")
	case errors.Is(err, leave.ErrBalanceExists):
		Conflict(w, "Leave balance already exists")
	case errors.Is(err, leave.ErrInsufficientBalance):
		Conflict(w, "Insufficient leave balance")
	case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed):
		Conflict(w, "Leave request already processed")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrNoEmployeeRecord):
		Forbidden(w, "Caller is not linked to an employee record")
	case errors.Is(err, payroll.ErrSalaryComponentNotFound):
		NotFound(w, "Salary component not found")
	case errors.Is(err, payroll.ErrSalaryStructureNotFound):
		NotFound(w, "Salary structure not found")
	case errors.Is(err, payroll.ErrPayrollRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payroll.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, payroll.ErrSalaryComponentNameExists):
		Conflict(w, "Salary component name already exists")
	case errors.Is(err, payroll.ErrPayrollRunExists):
		Conflict(w, "Payroll run already exists for this month")
	case errors.Is(err, payroll.ErrPayrollRunCompleted):
		Conflict(w, "Payroll run already completed")
	case errors.Is(err, payroll.ErrPayslipAlreadyExists):
		Conflict(w, "Payslip already exists")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrNoEmployeeRecord),
		errors.Is(err, attendance.ErrUnauthorized),
		errors.Is(err, attendance.ErrSelfReview):
		Forbidden(w, err.Error())
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrCorrectionNotFound):
		NotFound(w, "Attendance correction not found")
	case errors.Is(err, attendance.ErrSummaryNotFound):
		NotFound(w, "Attendance summary not found")
	case errors.Is(err, attendance.ErrAlreadyClockedIn),
		errors.Is(err, attendance.ErrNotClockedIn),
		errors.Is(err, attendance.ErrAlreadyClockedOut),
		errors.Is(err, attendance.ErrCorrectionPending),
		errors.Is(err, attendance.ErrCorrectionAlreadyProcessed):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrCorrectionDateMismatch):
		UnprocessableEntity(w, "CORRECTION_DATE_MISMATCH", err.Error())

	// Master data errors
	case errors.Is(err, department.ErrDepartmentNotFound):
		NotFound(w, "Department not found")
	case errors.Is(err, department.ErrDepartmentNameExists):
		Conflict(w, "Department name already exists")
	case errors.Is(err, designation.ErrDesignationNotFound):
		NotFound(w, "Designation not found")
	case errors.Is(err, designation.ErrDesignationTitleExists):
		Conflict(w, "Designation title already exists")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
