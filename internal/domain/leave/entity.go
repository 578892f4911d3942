package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeductionType decides how many days a request over a date range may claim.
type DeductionType string

const (
	DeductionWorkingDays  DeductionType = "working_days"
	DeductionCalendarDays DeductionType = "calendar_days"
)

func (d DeductionType) IsValid() bool {
	return d == DeductionWorkingDays || d == DeductionCalendarDays
}

// LeaveType entity
type LeaveType struct {
	ID             string
	Name           string
	Description    *string
	MaxDaysPerYear int
	DeductionType  DeductionType
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LeavePolicyWindow is a date range in which a leave type may be taken.
type LeavePolicyWindow struct {
	ID                string
	LeaveTypeID       string
	StartDate         time.Time
	EndDate           time.Time
	CarryForwardLimit decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Contains reports whether [start, end] lies fully inside the window.
func (w LeavePolicyWindow) Contains(start, end time.Time) bool {
	return !start.Before(w.StartDate) && !end.After(w.EndDate)
}

// LeaveBalance is the ledger row for (employee, leave type, year).
type LeaveBalance struct {
	ID            string
	EmployeeID    string
	LeaveTypeID   string
	Year          int
	AvailableDays decimal.Decimal
	UsedDays      decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Relationships (for responses)
	LeaveTypeName *string
}

// CanCover reports whether the balance has at least days available.
func (b LeaveBalance) CanCover(days decimal.Decimal) bool {
	return b.AvailableDays.GreaterThanOrEqual(days)
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending  LeaveRequestStatus = "pending"
	LeaveRequestStatusApproved LeaveRequestStatus = "approved"
	LeaveRequestStatusRejected LeaveRequestStatus = "rejected"
)

func (s LeaveRequestStatus) IsValid() bool {
	switch s {
	case LeaveRequestStatusPending, LeaveRequestStatusApproved, LeaveRequestStatusRejected:
		return true
	}
	return false
}

// LeaveRequest entity
type LeaveRequest struct {
	ID           string
	EmployeeID   string
	LeaveTypeID  string
	StartDate    time.Time
	EndDate      time.Time
	DurationDays decimal.Decimal
	Reason       *string

	Status          LeaveRequestStatus // 'pending', 'approved', 'rejected'
	DecidedBy       *string
	DecidedAt       *time.Time
	RejectionReason *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships (for responses)
	LeaveTypeName *string
	EmployeeName  *string
}

// IsPending reports whether the request still awaits a decision.
func (r LeaveRequest) IsPending() bool {
	return r.Status == LeaveRequestStatusPending
}
