package leave

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type CreateLeaveTypeRequest struct {
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	MaxDaysPerYear int     `json:"max_days_per_year"`
	DeductionType  string  `json:"deduction_type,omitempty"`
}

func (r *CreateLeaveTypeRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	} else if len(r.Name) > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not exceed 100 characters",
		})
	}

	if r.MaxDaysPerYear < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "max_days_per_year",
			Message: "max_days_per_year must not be negative",
		})
	}

	if r.DeductionType == "" {
		r.DeductionType = string(DeductionWorkingDays)
	} else if !DeductionType(r.DeductionType).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "deduction_type",
			Message: "deduction_type must be working_days or calendar_days",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CreatePolicyWindowRequest struct {
	LeaveTypeID       string           `json:"-"`
	StartDate         string           `json:"start_date"`
	EndDate           string           `json:"end_date"`
	CarryForwardLimit *decimal.Decimal `json:"carry_forward_limit,omitempty"`
}

func (r *CreatePolicyWindowRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.LeaveTypeID) {
		errs.Add("leave_type_id", "leave_type_id must be a valid UUID")
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if startOK && endOK && start.After(end) {
		errs.Add("end_date", "end_date must not be before start_date")
	}

	if r.CarryForwardLimit != nil {
		if r.CarryForwardLimit.IsNegative() {
			errs.Add("carry_forward_limit", "carry_forward_limit must not be negative")
		} else if !validator.HasMaxPlaces(*r.CarryForwardLimit, 1) {
			errs.Add("carry_forward_limit", "carry_forward_limit must have at most 1 decimal place")
		}
	}

	return errs.Err()
}

// Range returns the parsed window dates. Call after Validate.
func (r *CreatePolicyWindowRequest) Range() (time.Time, time.Time) {
	start, _ := time.Parse(dateLayout, r.StartDate)
	end, _ := time.Parse(dateLayout, r.EndDate)
	return start, end
}

type CreateLeaveBalanceRequest struct {
	EmployeeID    string          `json:"employee_id"`
	LeaveTypeID   string          `json:"leave_type_id"`
	Year          int             `json:"year"`
	AvailableDays decimal.Decimal `json:"available_days"`
}

func (r *CreateLeaveBalanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if !validator.IsValidUUID(r.LeaveTypeID) {
		errs.Add("leave_type_id", "leave_type_id must be a valid UUID")
	}
	if r.Year < 1900 || r.Year > 9999 {
		errs.Add("year", "year must be between 1900 and 9999")
	}
	if r.AvailableDays.IsNegative() {
		errs.Add("available_days", "available_days must not be negative")
	} else if !validator.HasMaxPlaces(r.AvailableDays, 1) {
		errs.Add("available_days", "available_days must have at most 1 decimal place")
	}

	return errs.Err()
}

type CreateLeaveRequestRequest struct {
	// EmployeeID defaults to the caller's own employee record.
	EmployeeID   *string         `json:"employee_id,omitempty"`
	LeaveTypeID  string          `json:"leave_type_id"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	DurationDays decimal.Decimal `json:"duration_days"`
	Reason       *string         `json:"reason,omitempty"`
}

func (r *CreateLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID != nil && !validator.IsValidUUID(*r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if !validator.IsValidUUID(r.LeaveTypeID) {
		errs.Add("leave_type_id", "leave_type_id must be a valid UUID")
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if startOK && endOK && start.After(end) {
		errs.Add("end_date", "end_date must not be before start_date")
	}

	if !r.DurationDays.IsPositive() {
		errs.Add("duration_days", "duration_days must be greater than 0")
	} else if !validator.HasMaxPlaces(r.DurationDays, 1) {
		errs.Add("duration_days", "duration_days must have at most 1 decimal place")
	}

	if r.Reason != nil && len(*r.Reason) > 1000 {
		errs.Add("reason", "reason must not exceed 1000 characters")
	}

	return errs.Err()
}

// Range returns the parsed request dates. Call after Validate.
func (r *CreateLeaveRequestRequest) Range() (time.Time, time.Time) {
	start, _ := time.Parse(dateLayout, r.StartDate)
	end, _ := time.Parse(dateLayout, r.EndDate)
	return start, end
}

type RejectLeaveRequestRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (r *RejectLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Reason != nil && len(*r.Reason) > 1000 {
		errs.Add("reason", "reason must not exceed 1000 characters")
	}
	return errs.Err()
}

type LeaveRequestFilter struct {
	EmployeeID  *string
	LeaveTypeID *string
	Status      *string
	Page        int
	Limit       int
}

func (f *LeaveRequestFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !LeaveRequestStatus(*f.Status).IsValid() {
		errs.Add("status", "status must be pending, approved or rejected")
	}
	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if f.LeaveTypeID != nil && !validator.IsValidUUID(*f.LeaveTypeID) {
		errs.Add("leave_type_id", "leave_type_id must be a valid UUID")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	return errs.Err()
}

// ========== RESPONSES ==========

type LeaveTypeResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	MaxDaysPerYear int     `json:"max_days_per_year"`
	DeductionType  string  `json:"deduction_type"`
}

type PolicyWindowResponse struct {
	ID                string `json:"id"`
	LeaveTypeID       string `json:"leave_type_id"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	CarryForwardLimit string `json:"carry_forward_limit"`
}

type LeaveBalanceResponse struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	LeaveTypeID   string  `json:"leave_type_id"`
	LeaveTypeName *string `json:"leave_type_name,omitempty"`
	Year          int     `json:"year"`
	AvailableDays string  `json:"available_days"`
	UsedDays      string  `json:"used_days"`
}

type LeaveRequestResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	EmployeeName    *string `json:"employee_name,omitempty"`
	LeaveTypeID     string  `json:"leave_type_id"`
	LeaveTypeName   *string `json:"leave_type_name,omitempty"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	DurationDays    string  `json:"duration_days"`
	Reason          *string `json:"reason,omitempty"`
	Status          string  `json:"status"`
	DecidedBy       *string `json:"decided_by,omitempty"`
	DecidedAt       *string `json:"decided_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type ListLeaveRequestResponse struct {
	TotalCount int64                  `json:"total_count"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
	Requests   []LeaveRequestResponse `json:"requests"`
}

func NewLeaveTypeResponse(t LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		MaxDaysPerYear: t.MaxDaysPerYear,
		DeductionType:  string(t.DeductionType),
	}
}

func NewPolicyWindowResponse(w LeavePolicyWindow) PolicyWindowResponse {
	return PolicyWindowResponse{
		ID:                w.ID,
		LeaveTypeID:       w.LeaveTypeID,
		StartDate:         w.StartDate.Format(dateLayout),
		EndDate:           w.EndDate.Format(dateLayout),
		CarryForwardLimit: w.CarryForwardLimit.StringFixed(1),
	}
}

func NewLeaveBalanceResponse(b LeaveBalance) LeaveBalanceResponse {
	return LeaveBalanceResponse{
		ID:            b.ID,
		EmployeeID:    b.EmployeeID,
		LeaveTypeID:   b.LeaveTypeID,
		LeaveTypeName: b.LeaveTypeName,
		Year:          b.Year,
		AvailableDays: b.AvailableDays.StringFixed(1),
		UsedDays:      b.UsedDays.StringFixed(1),
	}
}

func NewLeaveRequestResponse(r LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		EmployeeName:    r.EmployeeName,
		LeaveTypeID:     r.LeaveTypeID,
		LeaveTypeName:   r.LeaveTypeName,
		StartDate:       r.StartDate.Format(dateLayout),
		EndDate:         r.EndDate.Format(dateLayout),
		DurationDays:    r.DurationDays.StringFixed(1),
		Reason:          r.Reason,
		Status:          string(r.Status),
		DecidedBy:       r.DecidedBy,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
	if r.DecidedAt != nil {
		decidedAt := r.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &decidedAt
	}
	return resp
}
