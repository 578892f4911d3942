package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/google/uuid"
)

type passthroughTransactor struct{}

func (passthroughTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memAttendanceRepo struct {
	mu          sync.Mutex
	logs        map[string]attendance.AttendanceLog
	corrections map[string]attendance.Correction
	summaries   map[string]attendance.Summary
}

func newMemAttendanceRepo() *memAttendanceRepo {
	return &memAttendanceRepo{
		logs:        make(map[string]attendance.AttendanceLog),
		corrections: make(map[string]attendance.Correction),
		summaries:   make(map[string]attendance.Summary),
	}
}

func summaryKey(employeeID string, month time.Time) string {
	return employeeID + "/" + month.Format("2006-01")
}

func (r *memAttendanceRepo) CreateLog(ctx context.Context, log attendance.AttendanceLog) (attendance.AttendanceLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.EmployeeID == log.EmployeeID && l.WorkDate.Equal(log.WorkDate) {
			return attendance.AttendanceLog{}, attendance.ErrAlreadyClockedIn
		}
	}
	log.ID = uuid.Must(uuid.NewV7()).String()
	log.CreatedAt = time.Now()
	log.UpdatedAt = log.CreatedAt
	r.logs[log.ID] = log
	return log, nil
}

func (r *memAttendanceRepo) GetLogByID(ctx context.Context, id string) (attendance.AttendanceLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return attendance.AttendanceLog{}, attendance.ErrAttendanceNotFound
	}
	return l, nil
}

func (r *memAttendanceRepo) GetLogForUpdate(ctx context.Context, employeeID string, workDate time.Time) (attendance.AttendanceLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.EmployeeID == employeeID && l.WorkDate.Equal(workDate) {
			return l, nil
		}
	}
	return attendance.AttendanceLog{}, attendance.ErrAttendanceNotFound
}

func (r *memAttendanceRepo) GetLogByIDForUpdate(ctx context.Context, id string) (attendance.AttendanceLog, error) {
	return r.GetLogByID(ctx, id)
}

func (r *memAttendanceRepo) UpdateLog(ctx context.Context, log attendance.AttendanceLog) (attendance.AttendanceLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.logs[log.ID]
	if !ok {
		return attendance.AttendanceLog{}, attendance.ErrAttendanceNotFound
	}
	if log.ClockOutIP == nil {
		log.ClockOutIP = existing.ClockOutIP
	}
	log.UpdatedAt = time.Now()
	r.logs[log.ID] = log
	return log, nil
}

func (r *memAttendanceRepo) ListLogs(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]attendance.AttendanceLog, 0)
	for _, l := range r.logs {
		if filter.EmployeeID != nil && l.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(l.Status) != *filter.Status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkDate.After(out[j].WorkDate) })
	return out, int64(len(out)), nil
}

func (r *memAttendanceRepo) ListLogsInRange(ctx context.Context, from, to time.Time) ([]attendance.AttendanceLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]attendance.AttendanceLog, 0)
	for _, l := range r.logs {
		if !l.WorkDate.Before(from) && l.WorkDate.Before(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memAttendanceRepo) CreateCorrection(ctx context.Context, correction attendance.Correction) (attendance.Correction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[correction.AttendanceID]; !ok {
		return attendance.Correction{}, attendance.ErrAttendanceNotFound
	}
	for _, c := range r.corrections {
		if c.AttendanceID == correction.AttendanceID && c.Status == attendance.CorrectionPending {
			return attendance.Correction{}, attendance.ErrCorrectionPending
		}
	}
	correction.ID = uuid.Must(uuid.NewV7()).String()
	correction.Status = attendance.CorrectionPending
	correction.CreatedAt = time.Now()
	correction.UpdatedAt = correction.CreatedAt
	r.corrections[correction.ID] = correction
	return correction, nil
}

func (r *memAttendanceRepo) GetCorrectionForUpdate(ctx context.Context, id string) (attendance.Correction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.corrections[id]
	if !ok {
		return attendance.Correction{}, attendance.ErrCorrectionNotFound
	}
	return c, nil
}

func (r *memAttendanceRepo) UpdateCorrectionStatus(ctx context.Context, correction attendance.Correction) (attendance.Correction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.corrections[correction.ID]
	if !ok || existing.Status != attendance.CorrectionPending {
		return attendance.Correction{}, attendance.ErrCorrectionAlreadyProcessed
	}
	now := time.Now()
	existing.Status = correction.Status
	existing.ReviewedBy = correction.ReviewedBy
	existing.ReviewedAt = &now
	existing.ReviewNotes = correction.ReviewNotes
	r.corrections[correction.ID] = existing
	return existing, nil
}

func (r *memAttendanceRepo) ListCorrections(ctx context.Context, filter attendance.CorrectionFilter) ([]attendance.Correction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]attendance.Correction, 0)
	for _, c := range r.corrections {
		if filter.EmployeeID != nil && c.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(c.Status) != *filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *memAttendanceRepo) UpsertSummary(ctx context.Context, summary attendance.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary.ComputedAt = time.Now()
	r.summaries[summaryKey(summary.EmployeeID, summary.PeriodMonth)] = summary
	return nil
}

func (r *memAttendanceRepo) GetSummary(ctx context.Context, employeeID string, month time.Time) (attendance.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.summaries[summaryKey(employeeID, month)]
	if !ok {
		return attendance.Summary{}, attendance.ErrSummaryNotFound
	}
	return s, nil
}

type memEmployeeRepo struct {
	employee.EmployeeRepository
	active []employee.Employee
}

func (r memEmployeeRepo) GetActive(ctx context.Context) ([]employee.Employee, error) {
	return r.active, nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *memAuditRepo) Record(ctx context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memAuditRepo) List(ctx context.Context, filter audit.AuditFilter) ([]audit.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Entry(nil), r.entries...), int64(len(r.entries)), nil
}
