package leave

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

type LeaveServiceImpl struct {
	leave.LeaveTypeRepository
	leave.LeavePolicyWindowRepository
	leave.LeaveBalanceRepository
	leave.LeaveRequestRepository
	employee.EmployeeRepository
	requestService *RequestService
}

func NewLeaveService(
	leaveTypeRepository leave.LeaveTypeRepository,
	policyWindowRepository leave.LeavePolicyWindowRepository,
	leaveBalanceRepository leave.LeaveBalanceRepository,
	leaveRequestRepository leave.LeaveRequestRepository,
	employeeRepository employee.EmployeeRepository,
	requestService *RequestService,
) leave.LeaveService {
	return &LeaveServiceImpl{
		LeaveTypeRepository:         leaveTypeRepository,
		LeavePolicyWindowRepository: policyWindowRepository,
		LeaveBalanceRepository:      leaveBalanceRepository,
		LeaveRequestRepository:      leaveRequestRepository,
		EmployeeRepository:          employeeRepository,
		requestService:              requestService,
	}
}

// ========== LEAVE TYPES ==========

// CreateLeaveType implements leave.LeaveService.
func (l *LeaveServiceImpl) CreateLeaveType(ctx context.Context, caller user.Caller, req leave.CreateLeaveTypeRequest) (leave.LeaveTypeResponse, error) {
	if !caller.Can(user.PermissionLeaveManageTypes) {
		return leave.LeaveTypeResponse{}, user.ErrInsufficientPermissions
	}

	created, err := l.LeaveTypeRepository.Create(ctx, leave.LeaveType{
		Name:           req.Name,
		Description:    req.Description,
		MaxDaysPerYear: req.MaxDaysPerYear,
		DeductionType:  leave.DeductionType(req.DeductionType),
	})
	if err != nil {
		return leave.LeaveTypeResponse{}, err
	}
	return leave.NewLeaveTypeResponse(created), nil
}

// ListLeaveTypes implements leave.LeaveService.
func (l *LeaveServiceImpl) ListLeaveTypes(ctx context.Context) ([]leave.LeaveTypeResponse, error) {
	types, err := l.LeaveTypeRepository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}

	responses := make([]leave.LeaveTypeResponse, 0, len(types))
	for _, t := range types {
		responses = append(responses, leave.NewLeaveTypeResponse(t))
	}
	return responses, nil
}

// ========== POLICY WINDOWS ==========

// CreatePolicyWindow implements leave.LeaveService.
func (l *LeaveServiceImpl) CreatePolicyWindow(ctx context.Context, caller user.Caller, req leave.CreatePolicyWindowRequest) (leave.PolicyWindowResponse, error) {
	if !caller.Can(user.PermissionLeaveManageTypes) {
		return leave.PolicyWindowResponse{}, user.ErrInsufficientPermissions
	}

	if _, err := l.LeaveTypeRepository.GetByID(ctx, req.LeaveTypeID); err != nil {
		return leave.PolicyWindowResponse{}, err
	}

	start, end := req.Range()
	window := leave.LeavePolicyWindow{
		LeaveTypeID:       req.LeaveTypeID,
		StartDate:         start,
		EndDate:           end,
		CarryForwardLimit: decimal.Zero,
	}
	if req.CarryForwardLimit != nil {
		window.CarryForwardLimit = *req.CarryForwardLimit
	}

	created, err := l.LeavePolicyWindowRepository.Create(ctx, window)
	if err != nil {
		return leave.PolicyWindowResponse{}, err
	}
	return leave.NewPolicyWindowResponse(created), nil
}

// ListPolicyWindows implements leave.LeaveService.
func (l *LeaveServiceImpl) ListPolicyWindows(ctx context.Context, leaveTypeID string) ([]leave.PolicyWindowResponse, error) {
	if _, err := l.LeaveTypeRepository.GetByID(ctx, leaveTypeID); err != nil {
		return nil, err
	}

	windows, err := l.LeavePolicyWindowRepository.ListByLeaveType(ctx, leaveTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list policy windows: %w", err)
	}

	responses := make([]leave.PolicyWindowResponse, 0, len(windows))
	for _, w := range windows {
		responses = append(responses, leave.NewPolicyWindowResponse(w))
	}
	return responses, nil
}

// ========== BALANCES ==========

// CreateLeaveBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) CreateLeaveBalance(ctx context.Context, caller user.Caller, req leave.CreateLeaveBalanceRequest) (leave.LeaveBalanceResponse, error) {
	if !caller.Can(user.PermissionLeaveManageLedger) {
		return leave.LeaveBalanceResponse{}, user.ErrInsufficientPermissions
	}

	if _, err := l.EmployeeRepository.GetByID(ctx, req.EmployeeID); err != nil {
		return leave.LeaveBalanceResponse{}, err
	}
	leaveType, err := l.LeaveTypeRepository.GetByID(ctx, req.LeaveTypeID)
	if err != nil {
		return leave.LeaveBalanceResponse{}, err
	}

	created, err := l.LeaveBalanceRepository.Create(ctx, leave.LeaveBalance{
		EmployeeID:    req.EmployeeID,
		LeaveTypeID:   req.LeaveTypeID,
		Year:          req.Year,
		AvailableDays: req.AvailableDays,
		UsedDays:      decimal.Zero,
	})
	if err != nil {
		return leave.LeaveBalanceResponse{}, err
	}
	created.LeaveTypeName = &leaveType.Name

	slog.Info("leave balance created",
		"balance_id", created.ID,
		"employee_id", created.EmployeeID,
		"year", created.Year,
		"available_days", created.AvailableDays.String(),
		"created_by", caller.UserID,
	)
	return leave.NewLeaveBalanceResponse(created), nil
}

// GetMyLeaveBalances implements leave.LeaveService.
func (l *LeaveServiceImpl) GetMyLeaveBalances(ctx context.Context, caller user.Caller, year *int) ([]leave.LeaveBalanceResponse, error) {
	if caller.EmployeeID == nil {
		return nil, leave.ErrNoEmployeeRecord
	}
	return l.listBalances(ctx, *caller.EmployeeID, year)
}

// GetEmployeeLeaveBalances implements leave.LeaveService.
func (l *LeaveServiceImpl) GetEmployeeLeaveBalances(ctx context.Context, caller user.Caller, employeeID string, year *int) ([]leave.LeaveBalanceResponse, error) {
	if !caller.CanAccessEmployee(employeeID) {
		return nil, user.ErrInsufficientPermissions
	}
	if _, err := l.EmployeeRepository.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}
	return l.listBalances(ctx, employeeID, year)
}

func (l *LeaveServiceImpl) listBalances(ctx context.Context, employeeID string, year *int) ([]leave.LeaveBalanceResponse, error) {
	balances, err := l.LeaveBalanceRepository.ListByEmployee(ctx, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave balances: %w", err)
	}

	responses := make([]leave.LeaveBalanceResponse, 0, len(balances))
	for _, b := range balances {
		responses = append(responses, leave.NewLeaveBalanceResponse(b))
	}
	return responses, nil
}

// ========== REQUESTS ==========

// CreateLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) CreateLeaveRequest(ctx context.Context, caller user.Caller, req leave.CreateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if !caller.Can(user.PermissionLeaveCreate) {
		return leave.LeaveRequestResponse{}, user.ErrInsufficientPermissions
	}

	var employeeID string
	switch {
	case req.EmployeeID == nil:
		if caller.EmployeeID == nil {
			return leave.LeaveRequestResponse{}, leave.ErrNoEmployeeRecord
		}
		employeeID = *caller.EmployeeID
	case caller.CanAccessEmployee(*req.EmployeeID):
		employeeID = *req.EmployeeID
	default:
		return leave.LeaveRequestResponse{}, user.ErrInsufficientPermissions
	}

	if _, err := l.EmployeeRepository.GetByID(ctx, employeeID); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	created, err := l.requestService.CreateRequest(ctx, employeeID, req)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	return l.GetLeaveRequest(ctx, caller, created.ID)
}

// GetLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeaveRequest(ctx context.Context, caller user.Caller, requestID string) (leave.LeaveRequestResponse, error) {
	request, err := l.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	if !caller.Can(user.PermissionLeaveViewAll) && !caller.OwnsEmployee(request.EmployeeID) {
		return leave.LeaveRequestResponse{}, user.ErrInsufficientPermissions
	}

	return leave.NewLeaveRequestResponse(request), nil
}

// ListLeaveRequests implements leave.LeaveService.
func (l *LeaveServiceImpl) ListLeaveRequests(ctx context.Context, caller user.Caller, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	if !caller.Can(user.PermissionLeaveViewAll) {
		if !caller.Can(user.PermissionLeaveViewOwn) {
			return leave.ListLeaveRequestResponse{}, user.ErrInsufficientPermissions
		}
		if caller.EmployeeID == nil {
			return leave.ListLeaveRequestResponse{}, leave.ErrNoEmployeeRecord
		}
		filter.EmployeeID = caller.EmployeeID
	}

	requests, total, err := l.LeaveRequestRepository.List(ctx, filter)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, leave.NewLeaveRequestResponse(r))
	}

	return leave.ListLeaveRequestResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Requests:   responses,
	}, nil
}

// ApproveLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) ApproveLeaveRequest(ctx context.Context, caller user.Caller, requestID string) (leave.LeaveRequestResponse, error) {
	if !caller.Can(user.PermissionLeaveApprove) {
		return leave.LeaveRequestResponse{}, user.ErrInsufficientPermissions
	}

	if err := l.requestService.Approve(ctx, requestID, caller); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	return l.GetLeaveRequest(ctx, caller, requestID)
}

// RejectLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) RejectLeaveRequest(ctx context.Context, caller user.Caller, requestID string, req leave.RejectLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if !caller.Can(user.PermissionLeaveApprove) {
		return leave.LeaveRequestResponse{}, user.ErrInsufficientPermissions
	}

	if err := l.requestService.Reject(ctx, requestID, caller, req.Reason); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	return l.GetLeaveRequest(ctx, caller, requestID)
}
