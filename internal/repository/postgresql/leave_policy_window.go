package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type leavePolicyWindowRepositoryImpl struct {
	db *database.DB
}

func NewLeavePolicyWindowRepository(db *database.DB) leave.LeavePolicyWindowRepository {
	return &leavePolicyWindowRepositoryImpl{db: db}
}

const policyWindowColumns = `id, leave_type_id, start_date, end_date, carry_forward_limit, created_at, updated_at`

func scanPolicyWindow(row pgx.Row) (leave.LeavePolicyWindow, error) {
	var w leave.LeavePolicyWindow
	err := row.Scan(
		&w.ID, &w.LeaveTypeID, &w.StartDate, &w.EndDate, &w.CarryForwardLimit,
		&w.CreatedAt, &w.UpdatedAt,
	)
	return w, err
}

// Create implements leave.LeavePolicyWindowRepository.
func (r *leavePolicyWindowRepositoryImpl) Create(ctx context.Context, window leave.LeavePolicyWindow) (leave.LeavePolicyWindow, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return leave.LeavePolicyWindow{}, fmt.Errorf("failed to generate policy window id: %w", err)
	}

	query := `
		INSERT INTO leave_policy_windows (id, leave_type_id, start_date, end_date, carry_forward_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + policyWindowColumns

	created, err := scanPolicyWindow(q.QueryRow(ctx, query,
		id.String(), window.LeaveTypeID, window.StartDate, window.EndDate, window.CarryForwardLimit,
	))
	if err != nil {
		switch {
		case isUniqueViolation(err, "uk_policy_window"):
			return leave.LeavePolicyWindow{}, leave.ErrPolicyWindowExists
		case isForeignKeyViolation(err):
			return leave.LeavePolicyWindow{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeavePolicyWindow{}, fmt.Errorf("failed to create policy window: %w", err)
	}
	return created, nil
}

// ListByLeaveType implements leave.LeavePolicyWindowRepository.
func (r *leavePolicyWindowRepositoryImpl) ListByLeaveType(ctx context.Context, leaveTypeID string) ([]leave.LeavePolicyWindow, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + policyWindowColumns + ` FROM leave_policy_windows WHERE leave_type_id = $1 ORDER BY start_date`

	rows, err := q.Query(ctx, query, leaveTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]leave.LeavePolicyWindow, 0)
	for rows.Next() {
		w, err := scanPolicyWindow(rows)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}
