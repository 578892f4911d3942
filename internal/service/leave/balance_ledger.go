package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/leave"
	"github.com/shopspring/decimal"
)

// BalanceLedger owns every change to leave_balances.
type BalanceLedger struct {
	leave.LeaveBalanceRepository
}

func NewBalanceLedger(leaveBalanceRepository leave.LeaveBalanceRepository) *BalanceLedger {
	return &BalanceLedger{LeaveBalanceRepository: leaveBalanceRepository}
}

// Debit moves days from available to used on the (employee, leave type, year) balance.
// ctx must carry a transaction: the balance row stays locked until it ends.
func (b *BalanceLedger) Debit(ctx context.Context, employeeID, leaveTypeID string, year int, days decimal.Decimal) (leave.LeaveBalance, error) {
	balance, err := b.LeaveBalanceRepository.GetForUpdate(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, leave.ErrBalanceNotFound) {
			return leave.LeaveBalance{}, leave.ErrInsufficientBalance
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to lock leave balance: %w", err)
	}

	if !balance.CanCover(days) {
		slog.Warn("leave balance debit refused",
			"balance_id", balance.ID,
			"available_days", balance.AvailableDays.String(),
			"requested_days", days.String(),
		)
		return leave.LeaveBalance{}, leave.ErrInsufficientBalance
	}

	if err := b.LeaveBalanceRepository.Debit(ctx, balance.ID, days); err != nil {
		return leave.LeaveBalance{}, err
	}

	balance.AvailableDays = balance.AvailableDays.Sub(days)
	balance.UsedDays = balance.UsedDays.Add(days)
	return balance, nil
}

// Available returns the balance row without locking it.
func (b *BalanceLedger) Available(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	return b.LeaveBalanceRepository.Get(ctx, employeeID, leaveTypeID, year)
}
