package attendance

import "time"

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half_day"
	StatusAbsent  Status = "absent"
)

type CorrectionStatus string

const (
	CorrectionPending  CorrectionStatus = "pending"
	CorrectionApproved CorrectionStatus = "approved"
	CorrectionRejected CorrectionStatus = "rejected"
)

// AttendanceLog is one employee's working day. There is at most one per employee and date.
type AttendanceLog struct {
	ID          string
	EmployeeID  string
	WorkDate    time.Time
	ClockIn     time.Time
	ClockOut    *time.Time
	ClockInIP   *string
	ClockOutIP  *string
	Status      Status
	LateMinutes int
	WorkMinutes int
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined
	EmployeeName *string
}

// IsOpen reports whether the employee has clocked in but not out.
func (l AttendanceLog) IsOpen() bool {
	return l.ClockOut == nil
}

type Correction struct {
	ID                string
	AttendanceID      string
	EmployeeID        string
	RequestedClockIn  time.Time
	RequestedClockOut *time.Time
	Reason            string
	Status            CorrectionStatus
	ReviewedBy        *string
	ReviewedAt        *time.Time
	ReviewNotes       *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Summary aggregates an employee's attendance for one calendar month.
type Summary struct {
	EmployeeID  string
	PeriodMonth time.Time
	PresentDays int
	LateDays    int
	HalfDays    int
	AbsentDays  int
	WorkMinutes int64
	LateMinutes int64
	ComputedAt  time.Time
}
