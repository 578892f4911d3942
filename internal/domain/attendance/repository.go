package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// CreateLog returns ErrAlreadyClockedIn when the employee already has a log for the work date.
	CreateLog(ctx context.Context, log AttendanceLog) (AttendanceLog, error)
	GetLogByID(ctx context.Context, id string) (AttendanceLog, error)
	// GetLogForUpdate locks the employee's log for workDate until the transaction ends.
	GetLogForUpdate(ctx context.Context, employeeID string, workDate time.Time) (AttendanceLog, error)
	GetLogByIDForUpdate(ctx context.Context, id string) (AttendanceLog, error)
	// UpdateLog overwrites clock times and the derived classification.
	UpdateLog(ctx context.Context, log AttendanceLog) (AttendanceLog, error)
	ListLogs(ctx context.Context, filter AttendanceFilter) ([]AttendanceLog, int64, error)
	ListLogsInRange(ctx context.Context, from, to time.Time) ([]AttendanceLog, error)

	// CreateCorrection returns ErrCorrectionPending while another correction for the log is pending.
	CreateCorrection(ctx context.Context, correction Correction) (Correction, error)
	GetCorrectionForUpdate(ctx context.Context, id string) (Correction, error)
	UpdateCorrectionStatus(ctx context.Context, correction Correction) (Correction, error)
	ListCorrections(ctx context.Context, filter CorrectionFilter) ([]Correction, int64, error)

	UpsertSummary(ctx context.Context, summary Summary) error
	GetSummary(ctx context.Context, employeeID string, month time.Time) (Summary, error)
}
