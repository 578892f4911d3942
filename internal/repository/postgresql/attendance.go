package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

// ==================== LOGS ====================

const attendanceLogColumns = `al.id, al.employee_id, al.work_date, al.clock_in, al.clock_out, al.clock_in_ip,
	al.clock_out_ip, al.status, al.late_minutes, al.work_minutes, al.created_at, al.updated_at`

func attendanceLogDest(l *attendance.AttendanceLog) []any {
	return []any{
		&l.ID,
		&l.EmployeeID,
		&l.WorkDate,
		&l.ClockIn,
		&l.ClockOut,
		&l.ClockInIP,
		&l.ClockOutIP,
		&l.Status,
		&l.LateMinutes,
		&l.WorkMinutes,
		&l.CreatedAt,
		&l.UpdatedAt,
	}
}

// CreateLog implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) CreateLog(ctx context.Context, log attendance.AttendanceLog) (attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID("attendance log")
	if err != nil {
		return attendance.AttendanceLog{}, err
	}

	query := `
		INSERT INTO attendance_logs AS al (id, employee_id, work_date, clock_in, clock_in_ip, status, late_minutes, work_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NOW(), NOW())
		RETURNING ` + attendanceLogColumns

	var created attendance.AttendanceLog
	err = q.QueryRow(ctx, query,
		id, log.EmployeeID, log.WorkDate, log.ClockIn, log.ClockInIP, log.Status, log.LateMinutes,
	).Scan(attendanceLogDest(&created)...)
	if err != nil {
		if isUniqueViolation(err, "uk_attendance_employee_date") {
			return attendance.AttendanceLog{}, attendance.ErrAlreadyClockedIn
		}
		if isForeignKeyViolation(err) {
			return attendance.AttendanceLog{}, employee.ErrEmployeeNotFound
		}
		return attendance.AttendanceLog{}, fmt.Errorf("failed to create attendance log: %w", err)
	}
	return created, nil
}

// GetLogByID implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetLogByID(ctx context.Context, id string) (attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceLogColumns + `, e.full_name
		FROM attendance_logs al
		JOIN employees e ON e.id = al.employee_id
		WHERE al.id = $1`

	var l attendance.AttendanceLog
	var employeeName string
	if err := q.QueryRow(ctx, query, id).Scan(append(attendanceLogDest(&l), &employeeName)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceLog{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceLog{}, err
	}
	l.EmployeeName = &employeeName
	return l, nil
}

// GetLogForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetLogForUpdate(ctx context.Context, employeeID string, workDate time.Time) (attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceLogColumns + ` FROM attendance_logs al WHERE al.employee_id = $1 AND al.work_date = $2 FOR UPDATE`

	var l attendance.AttendanceLog
	if err := q.QueryRow(ctx, query, employeeID, workDate).Scan(attendanceLogDest(&l)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceLog{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceLog{}, err
	}
	return l, nil
}

// GetLogByIDForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetLogByIDForUpdate(ctx context.Context, id string) (attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceLogColumns + ` FROM attendance_logs al WHERE al.id = $1 FOR UPDATE`

	var l attendance.AttendanceLog
	if err := q.QueryRow(ctx, query, id).Scan(attendanceLogDest(&l)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceLog{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceLog{}, err
	}
	return l, nil
}

// UpdateLog implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) UpdateLog(ctx context.Context, log attendance.AttendanceLog) (attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_logs AS al
		SET clock_in = $2, clock_out = $3, clock_out_ip = COALESCE($4, al.clock_out_ip),
			status = $5, late_minutes = $6, work_minutes = $7, updated_at = NOW()
		WHERE al.id = $1
		RETURNING ` + attendanceLogColumns

	var updated attendance.AttendanceLog
	err := q.QueryRow(ctx, query,
		log.ID, log.ClockIn, log.ClockOut, log.ClockOutIP, log.Status, log.LateMinutes, log.WorkMinutes,
	).Scan(attendanceLogDest(&updated)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceLog{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceLog{}, fmt.Errorf("failed to update attendance log: %w", err)
	}
	return updated, nil
}

// ListLogs implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListLogs(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceLog, int64, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []any
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("al.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("al.work_date >= $%d", argIdx))
		args = append(args, *filter.FromDate)
		argIdx++
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("al.work_date <= $%d", argIdx))
		args = append(args, *filter.ToDate)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("al.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_logs al `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance logs: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT %s, e.full_name
		FROM attendance_logs al
		JOIN employees e ON e.id = al.employee_id
		%s
		ORDER BY al.work_date DESC, e.full_name
		LIMIT $%d OFFSET $%d`, attendanceLogColumns, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance logs: %w", err)
	}
	defer rows.Close()

	logs := make([]attendance.AttendanceLog, 0)
	for rows.Next() {
		var l attendance.AttendanceLog
		var employeeName string
		if err := rows.Scan(append(attendanceLogDest(&l), &employeeName)...); err != nil {
			return nil, 0, err
		}
		l.EmployeeName = &employeeName
		logs = append(logs, l)
	}

	return logs, total, rows.Err()
}

// ListLogsInRange implements attendance.AttendanceRepository. The range is [from, to).
func (r *attendanceRepositoryImpl) ListLogsInRange(ctx context.Context, from, to time.Time) ([]attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+attendanceLogColumns+`
		FROM attendance_logs al
		WHERE al.work_date >= $1 AND al.work_date < $2
		ORDER BY al.employee_id, al.work_date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance logs: %w", err)
	}
	defer rows.Close()

	logs := make([]attendance.AttendanceLog, 0)
	for rows.Next() {
		var l attendance.AttendanceLog
		if err := rows.Scan(attendanceLogDest(&l)...); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

// ==================== CORRECTIONS ====================

const correctionColumns = `id, attendance_id, employee_id, requested_clock_in, requested_clock_out, reason,
	status, reviewed_by, reviewed_at, review_notes, created_at, updated_at`

func correctionDest(c *attendance.Correction) []any {
	return []any{
		&c.ID,
		&c.AttendanceID,
		&c.EmployeeID,
		&c.RequestedClockIn,
		&c.RequestedClockOut,
		&c.Reason,
		&c.Status,
		&c.ReviewedBy,
		&c.ReviewedAt,
		&c.ReviewNotes,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}

// CreateCorrection implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) CreateCorrection(ctx context.Context, correction attendance.Correction) (attendance.Correction, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID("attendance correction")
	if err != nil {
		return attendance.Correction{}, err
	}

	query := `
		INSERT INTO attendance_corrections (id, attendance_id, employee_id, requested_clock_in, requested_clock_out, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', NOW(), NOW())
		RETURNING ` + correctionColumns

	var created attendance.Correction
	err = q.QueryRow(ctx, query,
		id, correction.AttendanceID, correction.EmployeeID, correction.RequestedClockIn,
		correction.RequestedClockOut, correction.Reason,
	).Scan(correctionDest(&created)...)
	if err != nil {
		if isUniqueViolation(err, "uk_attendance_correction_pending") {
			return attendance.Correction{}, attendance.ErrCorrectionPending
		}
		if isForeignKeyViolation(err) {
			return attendance.Correction{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Correction{}, fmt.Errorf("failed to create attendance correction: %w", err)
	}
	return created, nil
}

// GetCorrectionForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetCorrectionForUpdate(ctx context.Context, id string) (attendance.Correction, error) {
	q := GetQuerier(ctx, r.db)

	var c attendance.Correction
	err := q.QueryRow(ctx, `SELECT `+correctionColumns+` FROM attendance_corrections WHERE id = $1 FOR UPDATE`, id).
		Scan(correctionDest(&c)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Correction{}, attendance.ErrCorrectionNotFound
		}
		return attendance.Correction{}, err
	}
	return c, nil
}

// UpdateCorrectionStatus implements attendance.AttendanceRepository. Only pending corrections change.
func (r *attendanceRepositoryImpl) UpdateCorrectionStatus(ctx context.Context, correction attendance.Correction) (attendance.Correction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_corrections
		SET status = $2, reviewed_by = $3, reviewed_at = NOW(), review_notes = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + correctionColumns

	var updated attendance.Correction
	err := q.QueryRow(ctx, query, correction.ID, correction.Status, correction.ReviewedBy, correction.ReviewNotes).
		Scan(correctionDest(&updated)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Correction{}, attendance.ErrCorrectionAlreadyProcessed
		}
		return attendance.Correction{}, fmt.Errorf("failed to update attendance correction: %w", err)
	}
	return updated, nil
}

// ListCorrections implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListCorrections(ctx context.Context, filter attendance.CorrectionFilter) ([]attendance.Correction, int64, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []any
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_corrections `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance corrections: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`SELECT %s FROM attendance_corrections %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		correctionColumns, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance corrections: %w", err)
	}
	defer rows.Close()

	corrections := make([]attendance.Correction, 0)
	for rows.Next() {
		var c attendance.Correction
		if err := rows.Scan(correctionDest(&c)...); err != nil {
			return nil, 0, err
		}
		corrections = append(corrections, c)
	}

	return corrections, total, rows.Err()
}

// ==================== SUMMARIES ====================

// UpsertSummary implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) UpsertSummary(ctx context.Context, s attendance.Summary) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO attendance_summaries (employee_id, period_month, present_days, late_days, half_days, absent_days, work_minutes, late_minutes, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (employee_id, period_month) DO UPDATE
		SET present_days = EXCLUDED.present_days,
			late_days = EXCLUDED.late_days,
			half_days = EXCLUDED.half_days,
			absent_days = EXCLUDED.absent_days,
			work_minutes = EXCLUDED.work_minutes,
			late_minutes = EXCLUDED.late_minutes,
			computed_at = EXCLUDED.computed_at`,
		s.EmployeeID, s.PeriodMonth, s.PresentDays, s.LateDays, s.HalfDays, s.AbsentDays, s.WorkMinutes, s.LateMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert attendance summary: %w", err)
	}
	return nil
}

// GetSummary implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetSummary(ctx context.Context, employeeID string, month time.Time) (attendance.Summary, error) {
	q := GetQuerier(ctx, r.db)

	var s attendance.Summary
	err := q.QueryRow(ctx, `
		SELECT employee_id, period_month, present_days, late_days, half_days, absent_days, work_minutes, late_minutes, computed_at
		FROM attendance_summaries
		WHERE employee_id = $1 AND period_month = $2`, employeeID, month).Scan(
		&s.EmployeeID, &s.PeriodMonth, &s.PresentDays, &s.LateDays, &s.HalfDays,
		&s.AbsentDays, &s.WorkMinutes, &s.LateMinutes, &s.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Summary{}, attendance.ErrSummaryNotFound
		}
		return attendance.Summary{}, err
	}
	return s, nil
}
