package leave

import (
	"context"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
)

type LeaveService interface {
	// Leave Type
	CreateLeaveType(ctx context.Context, caller user.Caller, req CreateLeaveTypeRequest) (LeaveTypeResponse, error)
	ListLeaveTypes(ctx context.Context) ([]LeaveTypeResponse, error)

	// Policy Window
	CreatePolicyWindow(ctx context.Context, caller user.Caller, req CreatePolicyWindowRequest) (PolicyWindowResponse, error)
	ListPolicyWindows(ctx context.Context, leaveTypeID string) ([]PolicyWindowResponse, error)

	// Balance
	CreateLeaveBalance(ctx context.Context, caller user.Caller, req CreateLeaveBalanceRequest) (LeaveBalanceResponse, error)
	GetMyLeaveBalances(ctx context.Context, caller user.Caller, year *int) ([]LeaveBalanceResponse, error)
	GetEmployeeLeaveBalances(ctx context.Context, caller user.Caller, employeeID string, year *int) ([]LeaveBalanceResponse, error)

	// Request
	CreateLeaveRequest(ctx context.Context, caller user.Caller, req CreateLeaveRequestRequest) (LeaveRequestResponse, error)
	GetLeaveRequest(ctx context.Context, caller user.Caller, requestID string) (LeaveRequestResponse, error)
	ListLeaveRequests(ctx context.Context, caller user.Caller, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	ApproveLeaveRequest(ctx context.Context, caller user.Caller, requestID string) (LeaveRequestResponse, error)
	RejectLeaveRequest(ctx context.Context, caller user.Caller, requestID string, req RejectLeaveRequestRequest) (LeaveRequestResponse, error)
}
