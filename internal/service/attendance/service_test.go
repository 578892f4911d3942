package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc       *AttendanceServiceImpl
	repo      *memAttendanceRepo
	audit     *memAuditRepo
	clock     time.Time
	employees []employee.Employee
}

func newFixture(t *testing.T, employees ...employee.Employee) *fixture {
	t.Helper()
	f := &fixture{
		repo:      newMemAttendanceRepo(),
		audit:     &memAuditRepo{},
		employees: employees,
	}
	policy := attendance.Policy{
		WorkStartHour: 9,
		LateGrace:     15 * time.Minute,
		FullDay:       8 * time.Hour,
		Location:      time.UTC,
	}
	f.svc = NewAttendanceService(passthroughTransactor{}, f.repo, memEmployeeRepo{active: employees}, f.audit, policy).(*AttendanceServiceImpl)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.March, day, hour, minute, 0, 0, time.UTC)
}

func employeeCaller(employeeID string) user.Caller {
	return user.Caller{
		UserID:     uuid.Must(uuid.NewV7()).String(),
		EmployeeID: &employeeID,
		Role:       user.RoleEmployee,
		IPAddress:  "192.0.2.44",
	}
}

func hrCaller() user.Caller {
	return user.Caller{UserID: uuid.Must(uuid.NewV7()).String(), Role: user.RoleHRManager, IPAddress: "192.0.2.10"}
}

func newEmployeeID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func TestClockInAndOut(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name        string
		in, out     time.Time
		wantStatus  attendance.Status
		wantLate    int
		wantMinutes int
	}{
		{"on time", at(4, 9, 5), at(4, 17, 30), attendance.StatusPresent, 0, 505},
		{"within grace", at(4, 9, 15), at(4, 17, 15), attendance.StatusPresent, 0, 480},
		{"late", at(4, 9, 40), at(4, 18, 0), attendance.StatusLate, 40, 500},
		{"half day", at(4, 9, 0), at(4, 12, 0), attendance.StatusHalfDay, 0, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			caller := employeeCaller(newEmployeeID())

			f.clock = tt.in
			opened, err := f.svc.ClockIn(ctx, caller)
			require.NoError(t, err)
			assert.Equal(t, "2026-03-04", opened.WorkDate)
			assert.Nil(t, opened.ClockOut)

			f.clock = tt.out
			closed, err := f.svc.ClockOut(ctx, caller)
			require.NoError(t, err)
			assert.Equal(t, string(tt.wantStatus), closed.Status)
			assert.Equal(t, tt.wantLate, closed.LateMinutes)
			assert.Equal(t, tt.wantMinutes, closed.WorkMinutes)
			require.NotNil(t, closed.ClockOut)

			stored := f.repo.logs[closed.ID]
			require.NotNil(t, stored.ClockInIP)
			assert.Equal(t, "192.0.2.44", *stored.ClockInIP)
		})
	}
}

func TestClockIn_OncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := employeeCaller(newEmployeeID())

	f.clock = at(4, 9, 0)
	_, err := f.svc.ClockIn(ctx, caller)
	require.NoError(t, err)

	f.clock = at(4, 13, 0)
	_, err = f.svc.ClockIn(ctx, caller)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)

	f.clock = at(5, 9, 0)
	_, err = f.svc.ClockIn(ctx, caller)
	assert.NoError(t, err, "a new work date opens a new log")
}

func TestClockIn_ConcurrentRequestsCreateOneLog(t *testing.T) {
	f := newFixture(t)
	f.clock = at(4, 9, 0)
	caller := employeeCaller(newEmployeeID())

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, duplicates := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ClockIn(context.Background(), caller)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, duplicates)
	assert.Len(t, f.repo.logs, 1)
}

func TestClockOut_Refusals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := employeeCaller(newEmployeeID())

	f.clock = at(4, 17, 0)
	_, err := f.svc.ClockOut(ctx, caller)
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)

	f.clock = at(4, 9, 0)
	_, err = f.svc.ClockIn(ctx, caller)
	require.NoError(t, err)

	f.clock = at(4, 17, 0)
	_, err = f.svc.ClockOut(ctx, caller)
	require.NoError(t, err)

	_, err = f.svc.ClockOut(ctx, caller)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedOut)

	_, err = f.svc.ClockIn(ctx, hrCaller())
	assert.ErrorIs(t, err, attendance.ErrNoEmployeeRecord)

	applicant := user.Caller{UserID: "applicant-1", Role: user.RoleApplicant}
	_, err = f.svc.ClockIn(ctx, applicant)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestListLogs_EmployeesSeeOnlyTheirOwn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := newEmployeeID(), newEmployeeID()

	f.clock = at(4, 9, 0)
	_, err := f.svc.ClockIn(ctx, employeeCaller(alice))
	require.NoError(t, err)
	_, err = f.svc.ClockIn(ctx, employeeCaller(bob))
	require.NoError(t, err)

	own, err := f.svc.ListLogs(ctx, employeeCaller(alice), attendance.AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, own.Logs, 1)
	assert.Equal(t, alice, own.Logs[0].EmployeeID)
	assert.Equal(t, 20, own.Limit)

	_, err = f.svc.ListLogs(ctx, employeeCaller(alice), attendance.AttendanceFilter{EmployeeID: &bob})
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)

	all, err := f.svc.ListLogs(ctx, hrCaller(), attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalCount)

	bad := "sometimes"
	_, err = f.svc.ListLogs(ctx, hrCaller(), attendance.AttendanceFilter{Status: &bad})
	var validationErrs validator.ValidationErrors
	assert.ErrorAs(t, err, &validationErrs)
}

func lateDay(t *testing.T, f *fixture, caller user.Caller) attendance.AttendanceLogResponse {
	t.Helper()
	ctx := context.Background()
	f.clock = at(4, 9, 50)
	_, err := f.svc.ClockIn(ctx, caller)
	require.NoError(t, err)
	f.clock = at(4, 18, 0)
	closed, err := f.svc.ClockOut(ctx, caller)
	require.NoError(t, err)
	require.Equal(t, string(attendance.StatusLate), closed.Status)
	return closed
}

func correctionRequest(attendanceID string, in time.Time, out *time.Time) attendance.CreateCorrectionRequest {
	req := attendance.CreateCorrectionRequest{
		AttendanceID:     attendanceID,
		RequestedClockIn: in.Format(time.RFC3339),
		Reason:           "badge reader was offline",
	}
	if out != nil {
		s := out.Format(time.RFC3339)
		req.RequestedClockOut = &s
	}
	return req
}

func submitCorrection(t *testing.T, f *fixture, caller user.Caller, req attendance.CreateCorrectionRequest) attendance.CorrectionResponse {
	t.Helper()
	require.NoError(t, req.Validate())
	created, err := f.svc.CreateCorrection(context.Background(), caller, req)
	require.NoError(t, err)
	return created
}

func TestApproveCorrection_ReclassifiesLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	employeeID := newEmployeeID()
	caller := employeeCaller(employeeID)
	log := lateDay(t, f, caller)

	correction := submitCorrection(t, f, caller, correctionRequest(log.ID, at(4, 8, 58), nil))
	assert.Equal(t, string(attendance.CorrectionPending), correction.Status)

	_, err := f.svc.CreateCorrection(ctx, caller, func() attendance.CreateCorrectionRequest {
		req := correctionRequest(log.ID, at(4, 8, 55), nil)
		require.NoError(t, req.Validate())
		return req
	}())
	assert.ErrorIs(t, err, attendance.ErrCorrectionPending)

	reviewer := hrCaller()
	notes := "confirmed with security desk"
	approved, err := f.svc.ApproveCorrection(ctx, reviewer, correction.ID, attendance.ReviewCorrectionRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, string(attendance.CorrectionApproved), approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, reviewer.UserID, *approved.ReviewedBy)

	stored := f.repo.logs[log.ID]
	assert.Equal(t, attendance.StatusPresent, stored.Status)
	assert.Zero(t, stored.LateMinutes)
	assert.Equal(t, 542, stored.WorkMinutes)

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, audit.ActionCorrectionApprove, entry.Action)
	assert.Equal(t, "late", entry.Details["previous_status"])
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "192.0.2.10", *entry.IPAddress)

	_, err = f.svc.RejectCorrection(ctx, reviewer, correction.ID, attendance.ReviewCorrectionRequest{})
	assert.ErrorIs(t, err, attendance.ErrCorrectionAlreadyProcessed)
	assert.Len(t, f.audit.entries, 1)
}

func TestRejectCorrection_LeavesLogUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := employeeCaller(newEmployeeID())
	log := lateDay(t, f, caller)

	correction := submitCorrection(t, f, caller, correctionRequest(log.ID, at(4, 8, 58), nil))

	rejected, err := f.svc.RejectCorrection(ctx, hrCaller(), correction.ID, attendance.ReviewCorrectionRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(attendance.CorrectionRejected), rejected.Status)
	assert.Equal(t, attendance.StatusLate, f.repo.logs[log.ID].Status)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, audit.ActionCorrectionReject, f.audit.entries[0].Action)

	again := submitCorrection(t, f, caller, correctionRequest(log.ID, at(4, 9, 1), nil))
	assert.NotEqual(t, correction.ID, again.ID, "a settled correction frees the log for a new one")
}

func TestCorrection_Refusals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	employeeID := newEmployeeID()
	caller := employeeCaller(employeeID)
	log := lateDay(t, f, caller)

	t.Run("different work date", func(t *testing.T) {
		req := correctionRequest(log.ID, at(5, 9, 0), nil)
		require.NoError(t, req.Validate())
		_, err := f.svc.CreateCorrection(ctx, caller, req)
		assert.ErrorIs(t, err, attendance.ErrCorrectionDateMismatch)
	})

	t.Run("someone else's log", func(t *testing.T) {
		req := correctionRequest(log.ID, at(4, 9, 0), nil)
		require.NoError(t, req.Validate())
		_, err := f.svc.CreateCorrection(ctx, employeeCaller(newEmployeeID()), req)
		assert.ErrorIs(t, err, attendance.ErrUnauthorized)
	})

	t.Run("clock out before clock in", func(t *testing.T) {
		out := at(4, 8, 0)
		req := correctionRequest(log.ID, at(4, 9, 0), &out)
		var validationErrs validator.ValidationErrors
		assert.ErrorAs(t, req.Validate(), &validationErrs)
	})

	t.Run("reviewing own correction", func(t *testing.T) {
		correction := submitCorrection(t, f, caller, correctionRequest(log.ID, at(4, 9, 0), nil))

		selfReviewer := caller
		selfReviewer.Role = user.RoleHRManager
		_, err := f.svc.ApproveCorrection(ctx, selfReviewer, correction.ID, attendance.ReviewCorrectionRequest{})
		assert.ErrorIs(t, err, attendance.ErrSelfReview)

		_, err = f.svc.ApproveCorrection(ctx, caller, correction.ID, attendance.ReviewCorrectionRequest{})
		assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
		assert.Empty(t, f.audit.entries)
	})
}

func TestRecomputeSummaries(t *testing.T) {
	veteran := employee.Employee{ID: newEmployeeID(), HireDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), IsActive: true}
	newcomer := employee.Employee{ID: newEmployeeID(), HireDate: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), IsActive: true}
	f := newFixture(t, veteran, newcomer)
	ctx := context.Background()
	caller := employeeCaller(veteran.ID)

	days := []struct {
		day     int
		in, out [2]int
	}{
		{2, [2]int{9, 0}, [2]int{17, 0}},
		{3, [2]int{9, 30}, [2]int{17, 30}},
		{4, [2]int{9, 0}, [2]int{11, 0}},
	}
	for _, d := range days {
		f.clock = at(d.day, d.in[0], d.in[1])
		_, err := f.svc.ClockIn(ctx, caller)
		require.NoError(t, err)
		f.clock = at(d.day, d.out[0], d.out[1])
		_, err = f.svc.ClockOut(ctx, caller)
		require.NoError(t, err)
	}

	updated, err := f.svc.RecomputeSummaries(ctx, at(6, 10, 0), at(6, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	summary, err := f.svc.GetSummary(ctx, caller, veteran.ID, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PresentDays)
	assert.Equal(t, 1, summary.LateDays)
	assert.Equal(t, 1, summary.HalfDays)
	assert.Equal(t, 1, summary.AbsentDays, "thursday has no log; friday is still in progress")
	assert.Equal(t, int64(480+480+120), summary.WorkMinutes)
	assert.Equal(t, int64(30), summary.LateMinutes)

	fresh, err := f.svc.GetSummary(ctx, hrCaller(), newcomer.ID, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.AbsentDays, "only weekdays since the hire date count")

	_, err = f.svc.GetSummary(ctx, caller, newcomer.ID, "2026-03")
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)

	_, err = f.svc.GetSummary(ctx, caller, veteran.ID, "March")
	var validationErrs validator.ValidationErrors
	assert.ErrorAs(t, err, &validationErrs)

	_, err = f.svc.GetSummary(ctx, caller, veteran.ID, "2026-02")
	assert.ErrorIs(t, err, attendance.ErrSummaryNotFound)

	// Closing the month once it is over counts every remaining weekday.
	_, err = f.svc.RecomputeSummaries(ctx, at(31, 12, 0), time.Date(2026, time.April, 1, 0, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	closed, err := f.svc.GetSummary(ctx, caller, veteran.ID, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 22-3, closed.AbsentDays)
}
