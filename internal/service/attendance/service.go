package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	txManager      database.Transactor
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	auditRepo      audit.AuditRepository
	policy         attendance.Policy
	now            func() time.Time
}

func NewAttendanceService(
	txManager database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	auditRepo audit.AuditRepository,
	policy attendance.Policy,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		txManager:      txManager,
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		auditRepo:      auditRepo,
		policy:         policy,
		now:            time.Now,
	}
}

func ownEmployeeID(caller user.Caller) (string, error) {
	if caller.EmployeeID == nil || *caller.EmployeeID == "" {
		return "", attendance.ErrNoEmployeeRecord
	}
	return *caller.EmployeeID, nil
}

func clientIP(caller user.Caller) *string {
	if caller.IPAddress == "" {
		return nil
	}
	ip := caller.IPAddress
	return &ip
}

// ClockIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, caller user.Caller) (attendance.AttendanceLogResponse, error) {
	if !caller.Can(user.PermissionAttendanceClock) {
		return attendance.AttendanceLogResponse{}, user.ErrInsufficientPermissions
	}
	employeeID, err := ownEmployeeID(caller)
	if err != nil {
		return attendance.AttendanceLogResponse{}, err
	}

	now := s.now()
	workDate := s.policy.WorkDate(now)
	status, lateMinutes, _ := s.policy.Classify(workDate, now, nil)

	created, err := s.attendanceRepo.CreateLog(ctx, attendance.AttendanceLog{
		EmployeeID:  employeeID,
		WorkDate:    workDate,
		ClockIn:     now,
		ClockInIP:   clientIP(caller),
		Status:      status,
		LateMinutes: lateMinutes,
	})
	if err != nil {
		return attendance.AttendanceLogResponse{}, err
	}

	slog.Info("clocked in", "employee_id", employeeID, "work_date", workDate.Format(time.DateOnly), "status", status)
	return attendance.NewAttendanceLogResponse(created), nil
}

// ClockOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, caller user.Caller) (attendance.AttendanceLogResponse, error) {
	if !caller.Can(user.PermissionAttendanceClock) {
		return attendance.AttendanceLogResponse{}, user.ErrInsufficientPermissions
	}
	employeeID, err := ownEmployeeID(caller)
	if err != nil {
		return attendance.AttendanceLogResponse{}, err
	}

	now := s.now()
	workDate := s.policy.WorkDate(now)

	var updated attendance.AttendanceLog
	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		log, err := s.attendanceRepo.GetLogForUpdate(txCtx, employeeID, workDate)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return attendance.ErrNotClockedIn
			}
			return err
		}
		if !log.IsOpen() {
			return attendance.ErrAlreadyClockedOut
		}

		log.ClockOut = &now
		log.ClockOutIP = clientIP(caller)
		log.Status, log.LateMinutes, log.WorkMinutes = s.policy.Classify(log.WorkDate, log.ClockIn, log.ClockOut)

		updated, err = s.attendanceRepo.UpdateLog(txCtx, log)
		return err
	})
	if err != nil {
		return attendance.AttendanceLogResponse{}, err
	}

	slog.Info("clocked out", "employee_id", employeeID, "work_minutes", updated.WorkMinutes, "status", updated.Status)
	return attendance.NewAttendanceLogResponse(updated), nil
}

// ListLogs implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListLogs(ctx context.Context, caller user.Caller, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if !caller.Can(user.PermissionAttendanceViewAll) {
		employeeID, err := ownEmployeeID(caller)
		if err != nil {
			return attendance.ListAttendanceResponse{}, err
		}
		if filter.EmployeeID != nil && *filter.EmployeeID != employeeID {
			return attendance.ListAttendanceResponse{}, attendance.ErrUnauthorized
		}
		filter.EmployeeID = &employeeID
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	logs, total, err := s.attendanceRepo.ListLogs(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	responses := make([]attendance.AttendanceLogResponse, 0, len(logs))
	for _, l := range logs {
		responses = append(responses, attendance.NewAttendanceLogResponse(l))
	}

	return attendance.ListAttendanceResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Logs:       responses,
	}, nil
}

// CreateCorrection implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CreateCorrection(ctx context.Context, caller user.Caller, req attendance.CreateCorrectionRequest) (attendance.CorrectionResponse, error) {
	if !caller.Can(user.PermissionAttendanceClock) {
		return attendance.CorrectionResponse{}, user.ErrInsufficientPermissions
	}
	employeeID, err := ownEmployeeID(caller)
	if err != nil {
		return attendance.CorrectionResponse{}, err
	}

	log, err := s.attendanceRepo.GetLogByID(ctx, req.AttendanceID)
	if err != nil {
		return attendance.CorrectionResponse{}, err
	}
	if log.EmployeeID != employeeID {
		return attendance.CorrectionResponse{}, attendance.ErrUnauthorized
	}
	if err := s.checkSameWorkDate(log, req.ClockIn, req.ClockOut); err != nil {
		return attendance.CorrectionResponse{}, err
	}

	created, err := s.attendanceRepo.CreateCorrection(ctx, attendance.Correction{
		AttendanceID:      log.ID,
		EmployeeID:        employeeID,
		RequestedClockIn:  req.ClockIn,
		RequestedClockOut: req.ClockOut,
		Reason:            req.Reason,
	})
	if err != nil {
		return attendance.CorrectionResponse{}, err
	}

	slog.Info("attendance correction requested", "correction_id", created.ID, "attendance_id", log.ID)
	return attendance.NewCorrectionResponse(created), nil
}

// checkSameWorkDate rejects corrections that would move a log onto another date.
func (s *AttendanceServiceImpl) checkSameWorkDate(log attendance.AttendanceLog, clockIn time.Time, clockOut *time.Time) error {
	if !s.policy.WorkDate(clockIn).Equal(log.WorkDate) {
		return attendance.ErrCorrectionDateMismatch
	}
	if clockOut != nil && clockOut.Sub(clockIn) > 24*time.Hour {
		return attendance.ErrCorrectionDateMismatch
	}
	return nil
}

// ListCorrections implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListCorrections(ctx context.Context, caller user.Caller, filter attendance.CorrectionFilter) (attendance.ListCorrectionResponse, error) {
	if !caller.Can(user.PermissionAttendanceReview) {
		employeeID, err := ownEmployeeID(caller)
		if err != nil {
			return attendance.ListCorrectionResponse{}, err
		}
		filter.EmployeeID = &employeeID
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListCorrectionResponse{}, err
	}

	corrections, total, err := s.attendanceRepo.ListCorrections(ctx, filter)
	if err != nil {
		return attendance.ListCorrectionResponse{}, err
	}

	responses := make([]attendance.CorrectionResponse, 0, len(corrections))
	for _, c := range corrections {
		responses = append(responses, attendance.NewCorrectionResponse(c))
	}

	return attendance.ListCorrectionResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		Corrections: responses,
	}, nil
}

// ApproveCorrection implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ApproveCorrection(ctx context.Context, caller user.Caller, id string, req attendance.ReviewCorrectionRequest) (attendance.CorrectionResponse, error) {
	return s.review(ctx, caller, id, req, attendance.CorrectionApproved)
}

// RejectCorrection implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RejectCorrection(ctx context.Context, caller user.Caller, id string, req attendance.ReviewCorrectionRequest) (attendance.CorrectionResponse, error) {
	return s.review(ctx, caller, id, req, attendance.CorrectionRejected)
}

// review settles a pending correction. The correction row and its log are
// locked together, so an approval and a concurrent clock-out cannot interleave.
func (s *AttendanceServiceImpl) review(ctx context.Context, caller user.Caller, id string, req attendance.ReviewCorrectionRequest, decision attendance.CorrectionStatus) (attendance.CorrectionResponse, error) {
	if !caller.Can(user.PermissionAttendanceReview) {
		return attendance.CorrectionResponse{}, user.ErrInsufficientPermissions
	}

	var reviewed attendance.Correction
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		correction, err := s.attendanceRepo.GetCorrectionForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if correction.Status != attendance.CorrectionPending {
			return attendance.ErrCorrectionAlreadyProcessed
		}
		if caller.OwnsEmployee(correction.EmployeeID) {
			return attendance.ErrSelfReview
		}

		details := map[string]any{"attendance_id": correction.AttendanceID, "employee_id": correction.EmployeeID}
		action := audit.ActionCorrectionReject

		if decision == attendance.CorrectionApproved {
			log, err := s.attendanceRepo.GetLogByIDForUpdate(txCtx, correction.AttendanceID)
			if err != nil {
				return err
			}
			if err := s.checkSameWorkDate(log, correction.RequestedClockIn, correction.RequestedClockOut); err != nil {
				return err
			}

			details["previous_status"] = string(log.Status)
			log.ClockIn = correction.RequestedClockIn
			if correction.RequestedClockOut != nil {
				log.ClockOut = correction.RequestedClockOut
			}
			if log.ClockOut != nil && log.ClockOut.Before(log.ClockIn) {
				return attendance.ErrCorrectionDateMismatch
			}
			log.Status, log.LateMinutes, log.WorkMinutes = s.policy.Classify(log.WorkDate, log.ClockIn, log.ClockOut)
			if _, err := s.attendanceRepo.UpdateLog(txCtx, log); err != nil {
				return err
			}
			details["status"] = string(log.Status)
			action = audit.ActionCorrectionApprove
		}

		reviewerID := caller.UserID
		correction.Status = decision
		correction.ReviewedBy = &reviewerID
		correction.ReviewNotes = req.Notes
		reviewed, err = s.attendanceRepo.UpdateCorrectionStatus(txCtx, correction)
		if err != nil {
			return err
		}

		if req.Notes != nil {
			details["notes"] = *req.Notes
		}
		return s.auditRepo.Record(txCtx, audit.NewEntry(caller, action, "attendance_correction", correction.ID, details))
	})
	if err != nil {
		return attendance.CorrectionResponse{}, err
	}

	slog.Info("attendance correction reviewed", "correction_id", reviewed.ID, "status", reviewed.Status, "reviewed_by", caller.UserID)
	return attendance.NewCorrectionResponse(reviewed), nil
}

// GetSummary implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetSummary(ctx context.Context, caller user.Caller, employeeID string, month string) (attendance.SummaryResponse, error) {
	if !caller.Can(user.PermissionAttendanceViewAll) && !caller.OwnsEmployee(employeeID) {
		return attendance.SummaryResponse{}, attendance.ErrUnauthorized
	}

	if !validator.IsValidMonth(month) {
		var errs validator.ValidationErrors
		errs.Add("month", "month must be in YYYY-MM format")
		return attendance.SummaryResponse{}, errs.Err()
	}
	period, _ := time.Parse("2006-01", month)

	summary, err := s.attendanceRepo.GetSummary(ctx, employeeID, period)
	if err != nil {
		return attendance.SummaryResponse{}, err
	}
	return attendance.NewSummaryResponse(summary), nil
}

// RecomputeSummaries implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecomputeSummaries(ctx context.Context, month, asOf time.Time) (int, error) {
	today := s.policy.WorkDate(asOf)
	month = attendance.MonthStart(s.policy.WorkDate(month))

	employees, err := s.employeeRepo.GetActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active employees: %w", err)
	}
	logs, err := s.attendanceRepo.ListLogsInRange(ctx, month, month.AddDate(0, 1, 0))
	if err != nil {
		return 0, err
	}

	byEmployee := make(map[string][]attendance.AttendanceLog)
	for _, l := range logs {
		byEmployee[l.EmployeeID] = append(byEmployee[l.EmployeeID], l)
	}

	updated := 0
	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		y, m, d := emp.HireDate.Date()
		hired := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		summary := attendance.Summarize(emp.ID, month, hired, today, byEmployee[emp.ID])
		if err := s.attendanceRepo.UpsertSummary(ctx, summary); err != nil {
			return updated, err
		}
		updated++
	}

	slog.Info("attendance summaries recomputed", "month", month.Format("2006-01"), "employees", updated)
	return updated, nil
}
