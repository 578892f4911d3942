package leave

import (
	"context"

	"github.com/shopspring/decimal"
)

// LeaveTypeRepository - interface for leave_types table
type LeaveTypeRepository interface {
	Create(ctx context.Context, leaveType LeaveType) (LeaveType, error)
	GetByID(ctx context.Context, id string) (LeaveType, error)
	List(ctx context.Context) ([]LeaveType, error)
}

// LeavePolicyWindowRepository - interface for leave_policy_windows table
type LeavePolicyWindowRepository interface {
	Create(ctx context.Context, window LeavePolicyWindow) (LeavePolicyWindow, error)
	ListByLeaveType(ctx context.Context, leaveTypeID string) ([]LeavePolicyWindow, error)
}

// LeaveBalanceRepository - interface for leave_balances table
type LeaveBalanceRepository interface {
	Create(ctx context.Context, balance LeaveBalance) (LeaveBalance, error)
	Get(ctx context.Context, employeeID, leaveTypeID string, year int) (LeaveBalance, error)
	// GetForUpdate locks the balance row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (LeaveBalance, error)
	ListByEmployee(ctx context.Context, employeeID string, year *int) ([]LeaveBalance, error)
	// Debit moves days from available to used. It fails with ErrInsufficientBalance
	// instead of letting available_days go negative.
	Debit(ctx context.Context, balanceID string, days decimal.Decimal) error
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	// GetByIDForUpdate locks the request row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (LeaveRequest, error)
	List(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, int64, error)
	UpdateStatus(ctx context.Context, req UpdateStatusParams) error
}

// UpdateStatusParams records a decision on a pending request.
type UpdateStatusParams struct {
	ID              string
	Status          LeaveRequestStatus
	DecidedBy       string
	RejectionReason *string
}
