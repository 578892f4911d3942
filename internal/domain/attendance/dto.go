package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
)

const dateLayout = "2006-01-02"

type AttendanceFilter struct {
	EmployeeID *string
	From       *string
	To         *string
	Status     *string
	Page       int
	Limit      int

	FromDate *time.Time
	ToDate   *time.Time
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if f.From != nil {
		if d, ok := validator.IsValidDate(*f.From); ok {
			f.FromDate = &d
		} else {
			errs.Add("from", "from must be in YYYY-MM-DD format")
		}
	}
	if f.To != nil {
		if d, ok := validator.IsValidDate(*f.To); ok {
			f.ToDate = &d
		} else {
			errs.Add("to", "to must be in YYYY-MM-DD format")
		}
	}
	if f.FromDate != nil && f.ToDate != nil && f.FromDate.After(*f.ToDate) {
		errs.Add("to", "to must not be before from")
	}
	if f.Status != nil && !validator.IsInSlice(*f.Status, []string{
		string(StatusPresent), string(StatusLate), string(StatusHalfDay), string(StatusAbsent),
	}) {
		errs.Add("status", "status must be present, late, half_day or absent")
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	return errs.Err()
}

type CorrectionFilter struct {
	EmployeeID *string
	Status     *string
	Page       int
	Limit      int
}

func (f *CorrectionFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if f.Status != nil && !validator.IsInSlice(*f.Status, []string{
		string(CorrectionPending), string(CorrectionApproved), string(CorrectionRejected),
	}) {
		errs.Add("status", "status must be pending, approved or rejected")
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	return errs.Err()
}

type CreateCorrectionRequest struct {
	AttendanceID      string  `json:"attendance_id"`
	RequestedClockIn  string  `json:"requested_clock_in"`
	RequestedClockOut *string `json:"requested_clock_out,omitempty"`
	Reason            string  `json:"reason"`

	ClockIn  time.Time  `json:"-"`
	ClockOut *time.Time `json:"-"`
}

func (r *CreateCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.AttendanceID) {
		errs.Add("attendance_id", "attendance_id must be a valid UUID")
	}

	clockIn, err := time.Parse(time.RFC3339, r.RequestedClockIn)
	if err != nil {
		errs.Add("requested_clock_in", "requested_clock_in must be an RFC 3339 timestamp")
	} else {
		r.ClockIn = clockIn
	}

	if r.RequestedClockOut != nil {
		clockOut, err := time.Parse(time.RFC3339, *r.RequestedClockOut)
		if err != nil {
			errs.Add("requested_clock_out", "requested_clock_out must be an RFC 3339 timestamp")
		} else {
			r.ClockOut = &clockOut
			if !r.ClockIn.IsZero() && clockOut.Before(r.ClockIn) {
				errs.Add("requested_clock_out", "requested_clock_out must not be before requested_clock_in")
			}
		}
	}

	r.Reason = strings.TrimSpace(r.Reason)
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	} else if len(r.Reason) > 1000 {
		errs.Add("reason", "reason must not exceed 1000 characters")
	}

	return errs.Err()
}

type ReviewCorrectionRequest struct {
	Notes *string `json:"notes,omitempty"`
}

func (r *ReviewCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Notes != nil && len(*r.Notes) > 1000 {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}
	return errs.Err()
}

type AttendanceLogResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName *string `json:"employee_name,omitempty"`
	WorkDate     string  `json:"work_date"`
	ClockIn      string  `json:"clock_in"`
	ClockOut     *string `json:"clock_out,omitempty"`
	Status       string  `json:"status"`
	LateMinutes  int     `json:"late_minutes"`
	WorkMinutes  int     `json:"work_minutes"`
}

func NewAttendanceLogResponse(l AttendanceLog) AttendanceLogResponse {
	resp := AttendanceLogResponse{
		ID:           l.ID,
		EmployeeID:   l.EmployeeID,
		EmployeeName: l.EmployeeName,
		WorkDate:     l.WorkDate.Format(dateLayout),
		ClockIn:      l.ClockIn.Format(time.RFC3339),
		Status:       string(l.Status),
		LateMinutes:  l.LateMinutes,
		WorkMinutes:  l.WorkMinutes,
	}
	if l.ClockOut != nil {
		out := l.ClockOut.Format(time.RFC3339)
		resp.ClockOut = &out
	}
	return resp
}

type ListAttendanceResponse struct {
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"total_pages"`
	Logs       []AttendanceLogResponse `json:"logs"`
}

type CorrectionResponse struct {
	ID                string  `json:"id"`
	AttendanceID      string  `json:"attendance_id"`
	EmployeeID        string  `json:"employee_id"`
	RequestedClockIn  string  `json:"requested_clock_in"`
	RequestedClockOut *string `json:"requested_clock_out,omitempty"`
	Reason            string  `json:"reason"`
	Status            string  `json:"status"`
	ReviewedBy        *string `json:"reviewed_by,omitempty"`
	ReviewedAt        *string `json:"reviewed_at,omitempty"`
	ReviewNotes       *string `json:"review_notes,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

func NewCorrectionResponse(c Correction) CorrectionResponse {
	resp := CorrectionResponse{
		ID:               c.ID,
		AttendanceID:     c.AttendanceID,
		EmployeeID:       c.EmployeeID,
		RequestedClockIn: c.RequestedClockIn.Format(time.RFC3339),
		Reason:           c.Reason,
		Status:           string(c.Status),
		ReviewedBy:       c.ReviewedBy,
		ReviewNotes:      c.ReviewNotes,
		CreatedAt:        c.CreatedAt.Format(time.RFC3339),
	}
	if c.RequestedClockOut != nil {
		out := c.RequestedClockOut.Format(time.RFC3339)
		resp.RequestedClockOut = &out
	}
	if c.ReviewedAt != nil {
		at := c.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &at
	}
	return resp
}

type ListCorrectionResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Corrections []CorrectionResponse `json:"corrections"`
}

type SummaryResponse struct {
	EmployeeID  string `json:"employee_id"`
	PeriodMonth string `json:"period_month"`
	PresentDays int    `json:"present_days"`
	LateDays    int    `json:"late_days"`
	HalfDays    int    `json:"half_days"`
	AbsentDays  int    `json:"absent_days"`
	WorkMinutes int64  `json:"work_minutes"`
	LateMinutes int64  `json:"late_minutes"`
	ComputedAt  string `json:"computed_at"`
}

func NewSummaryResponse(s Summary) SummaryResponse {
	return SummaryResponse{
		EmployeeID:  s.EmployeeID,
		PeriodMonth: s.PeriodMonth.Format("2006-01"),
		PresentDays: s.PresentDays,
		LateDays:    s.LateDays,
		HalfDays:    s.HalfDays,
		AbsentDays:  s.AbsentDays,
		WorkMinutes: s.WorkMinutes,
		LateMinutes: s.LateMinutes,
		ComputedAt:  s.ComputedAt.Format(time.RFC3339),
	}
}
