package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.LeaveBalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

const leaveBalanceColumns = `lb.id, lb.employee_id, lb.leave_type_id, lb.year, lb.available_days, lb.used_days, lb.created_at, lb.updated_at`

func scanLeaveBalance(row pgx.Row) (leave.LeaveBalance, error) {
	var b leave.LeaveBalance
	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.LeaveTypeID, &b.Year, &b.AvailableDays, &b.UsedDays,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// Create implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) Create(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to generate leave balance id: %w", err)
	}

	query := `
		INSERT INTO leave_balances AS lb (id, employee_id, leave_type_id, year, available_days, used_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, NOW(), NOW())
		RETURNING ` + leaveBalanceColumns

	created, err := scanLeaveBalance(q.QueryRow(ctx, query,
		id.String(), balance.EmployeeID, balance.LeaveTypeID, balance.Year, balance.AvailableDays,
	))
	if err != nil {
		switch {
		case isUniqueViolation(err, "uk_leave_balance"):
			return leave.LeaveBalance{}, leave.ErrBalanceExists
		case isForeignKeyViolation(err):
			return leave.LeaveBalance{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to create leave balance: %w", err)
	}
	return created, nil
}

// Get implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	return r.get(ctx, employeeID, leaveTypeID, year, "")
}

// GetForUpdate implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	return r.get(ctx, employeeID, leaveTypeID, year, " FOR UPDATE")
}

func (r *leaveBalanceRepositoryImpl) get(ctx context.Context, employeeID, leaveTypeID string, year int, lock string) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + leaveBalanceColumns + `
		FROM leave_balances lb
		WHERE lb.employee_id = $1 AND lb.leave_type_id = $2 AND lb.year = $3` + lock

	b, err := scanLeaveBalance(q.QueryRow(ctx, query, employeeID, leaveTypeID, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, leave.ErrBalanceNotFound
		}
		return leave.LeaveBalance{}, err
	}
	return b, nil
}

// ListByEmployee implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, year *int) ([]leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + leaveBalanceColumns + `, lt.name
		FROM leave_balances lb
		JOIN leave_types lt ON lt.id = lb.leave_type_id
		WHERE lb.employee_id = $1 AND ($2::int IS NULL OR lb.year = $2)
		ORDER BY lb.year DESC, lt.name`

	rows, err := q.Query(ctx, query, employeeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make([]leave.LeaveBalance, 0)
	for rows.Next() {
		var b leave.LeaveBalance
		var typeName string
		if err := rows.Scan(
			&b.ID, &b.EmployeeID, &b.LeaveTypeID, &b.Year, &b.AvailableDays, &b.UsedDays,
			&b.CreatedAt, &b.UpdatedAt, &typeName,
		); err != nil {
			return nil, err
		}
		b.LeaveTypeName = &typeName
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// Debit implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) Debit(ctx context.Context, balanceID string, days decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET available_days = available_days - $2,
			used_days = used_days + $2,
			updated_at = NOW()
		WHERE id = $1 AND available_days >= $2`

	tag, err := q.Exec(ctx, query, balanceID, days)
	if err != nil {
		return fmt.Errorf("failed to debit leave balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrInsufficientBalance
	}
	return nil
}
