package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
)

type RequestService struct {
	txManager database.Transactor
	leave.LeaveTypeRepository
	leave.LeavePolicyWindowRepository
	leave.LeaveRequestRepository
	ledger    *BalanceLedger
	auditRepo audit.AuditRepository
}

func NewRequestService(txManager database.Transactor, leaveTypeRepository leave.LeaveTypeRepository, policyWindowRepository leave.LeavePolicyWindowRepository, leaveRequestRepository leave.LeaveRequestRepository, ledger *BalanceLedger, auditRepo audit.AuditRepository) *RequestService {
	return &RequestService{
		txManager:                   txManager,
		LeaveTypeRepository:         leaveTypeRepository,
		LeavePolicyWindowRepository: policyWindowRepository,
		LeaveRequestRepository:      leaveRequestRepository,
		ledger:                      ledger,
		auditRepo:                   auditRepo,
	}
}

// CreateRequest stores a pending request for employeeID once every creation check passes.
func (r *RequestService) CreateRequest(ctx context.Context, employeeID string, req leave.CreateLeaveRequestRequest) (leave.LeaveRequest, error) {
	if err := r.checkRequest(ctx, employeeID, req); err != nil {
		return leave.LeaveRequest{}, err
	}

	start, end := req.Range()
	created, err := r.LeaveRequestRepository.Create(ctx, leave.LeaveRequest{
		EmployeeID:   employeeID,
		LeaveTypeID:  req.LeaveTypeID,
		StartDate:    start,
		EndDate:      end,
		DurationDays: req.DurationDays,
		Reason:       req.Reason,
		Status:       leave.LeaveRequestStatusPending,
	})
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}

	return created, nil
}

func (r *RequestService) checkRequest(ctx context.Context, employeeID string, req leave.CreateLeaveRequestRequest) error {
	var errs validator.ValidationErrors
	start, end := req.Range()
	leaveTypeID := req.LeaveTypeID

	leaveType, err := r.LeaveTypeRepository.GetByID(ctx, leaveTypeID)
	if err != nil {
		if errors.Is(err, leave.ErrLeaveTypeNotFound) {
			errs.Add("leave_type_id", "leave type does not exist")
			return errs
		}
		return fmt.Errorf("failed to get leave type: %w", err)
	}

	bound := leave.MaxDuration(leaveType.DeductionType, start, end)
	if req.DurationDays.GreaterThan(bound) {
		errs.Add("duration_days", fmt.Sprintf("duration_days must not exceed %s for the requested dates", bound.String()))
	}

	windows, err := r.LeavePolicyWindowRepository.ListByLeaveType(ctx, leaveTypeID)
	if err != nil {
		return fmt.Errorf("failed to get policy windows: %w", err)
	}
	covered := false
	for _, w := range windows {
		if w.Contains(start, end) {
			covered = true
			break
		}
	}
	if !covered {
		errs.Add("start_date", "no leave policy window covers the requested dates")
	}

	balance, err := r.ledger.Available(ctx, employeeID, leaveTypeID, start.Year())
	switch {
	case errors.Is(err, leave.ErrBalanceNotFound):
		errs.Add("leave_type_id", fmt.Sprintf("no leave balance for %d", start.Year()))
	case err != nil:
		return fmt.Errorf("failed to get leave balance: %w", err)
	case !balance.CanCover(req.DurationDays):
		errs.Add("duration_days", fmt.Sprintf("insufficient leave balance: %s days available", balance.AvailableDays.StringFixed(1)))
	}

	return errs.Err()
}

// Approve debits the balance, marks the request approved and records the
// decision in the audit trail, all in one transaction.
func (r *RequestService) Approve(ctx context.Context, requestID string, approver user.Caller) error {
	return r.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		request, err := r.LeaveRequestRepository.GetByIDForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if !request.IsPending() {
			return leave.ErrLeaveRequestAlreadyProcessed
		}

		balance, err := r.ledger.Debit(txCtx, request.EmployeeID, request.LeaveTypeID, request.StartDate.Year(), request.DurationDays)
		if err != nil {
			return err
		}

		if err := r.LeaveRequestRepository.UpdateStatus(txCtx, leave.UpdateStatusParams{
			ID:        request.ID,
			Status:    leave.LeaveRequestStatusApproved,
			DecidedBy: approver.UserID,
		}); err != nil {
			return err
		}

		if err := r.auditRepo.Record(txCtx, audit.NewEntry(approver, audit.ActionLeaveApprove, "leave_request", request.ID, map[string]any{
			"employee_id":   request.EmployeeID,
			"leave_type_id": request.LeaveTypeID,
			"duration_days": request.DurationDays.String(),
		})); err != nil {
			return err
		}

		slog.Info("leave request approved",
			"request_id", request.ID,
			"employee_id", request.EmployeeID,
			"duration_days", request.DurationDays.String(),
			"available_days", balance.AvailableDays.String(),
			"decided_by", approver.UserID,
		)
		return nil
	})
}

// Reject marks a pending request rejected. Balances are untouched.
func (r *RequestService) Reject(ctx context.Context, requestID string, approver user.Caller, reason *string) error {
	return r.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		request, err := r.LeaveRequestRepository.GetByIDForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if !request.IsPending() {
			return leave.ErrLeaveRequestAlreadyProcessed
		}

		if err := r.LeaveRequestRepository.UpdateStatus(txCtx, leave.UpdateStatusParams{
			ID:              request.ID,
			Status:          leave.LeaveRequestStatusRejected,
			DecidedBy:       approver.UserID,
			RejectionReason: reason,
		}); err != nil {
			return err
		}

		details := map[string]any{"employee_id": request.EmployeeID}
		if reason != nil {
			details["reason"] = *reason
		}
		return r.auditRepo.Record(txCtx, audit.NewEntry(approver, audit.ActionLeaveReject, "leave_request", request.ID, details))
	})
}
