package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
)

type AttendanceService interface {
	ClockIn(ctx context.Context, caller user.Caller) (AttendanceLogResponse, error)
	ClockOut(ctx context.Context, caller user.Caller) (AttendanceLogResponse, error)
	// ListLogs restricts non-privileged callers to their own logs.
	ListLogs(ctx context.Context, caller user.Caller, filter AttendanceFilter) (ListAttendanceResponse, error)

	CreateCorrection(ctx context.Context, caller user.Caller, req CreateCorrectionRequest) (CorrectionResponse, error)
	ListCorrections(ctx context.Context, caller user.Caller, filter CorrectionFilter) (ListCorrectionResponse, error)
	// ApproveCorrection rewrites the log with the requested times and reclassifies it.
	ApproveCorrection(ctx context.Context, caller user.Caller, id string, req ReviewCorrectionRequest) (CorrectionResponse, error)
	RejectCorrection(ctx context.Context, caller user.Caller, id string, req ReviewCorrectionRequest) (CorrectionResponse, error)

	GetSummary(ctx context.Context, caller user.Caller, employeeID string, month string) (SummaryResponse, error)
	// RecomputeSummaries rebuilds every active employee's summary for the month
	// containing month. Days from asOf onwards do not count as absences yet.
	RecomputeSummaries(ctx context.Context, month, asOf time.Time) (int, error)
}
