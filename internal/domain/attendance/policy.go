package attendance

import (
	"fmt"
	"time"
)

// Policy describes the working day attendance logs are classified against.
type Policy struct {
	WorkStartHour   int
	WorkStartMinute int
	LateGrace       time.Duration
	FullDay         time.Duration
	Location        *time.Location
}

// NewPolicy parses workStart as HH:MM and location as an IANA zone name.
func NewPolicy(workStart string, lateGrace, fullDay time.Duration, location string) (Policy, error) {
	start, err := time.Parse("15:04", workStart)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid work start %q: %w", workStart, err)
	}
	loc, err := time.LoadLocation(location)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid location %q: %w", location, err)
	}
	return Policy{
		WorkStartHour:   start.Hour(),
		WorkStartMinute: start.Minute(),
		LateGrace:       lateGrace,
		FullDay:         fullDay,
		Location:        loc,
	}, nil
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// WorkDate returns the local calendar date of t, as midnight UTC.
func (p Policy) WorkDate(t time.Time) time.Time {
	y, m, d := t.In(p.location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// shiftStart is the expected clock-in instant on workDate.
func (p Policy) shiftStart(workDate time.Time) time.Time {
	y, m, d := workDate.Date()
	return time.Date(y, m, d, p.WorkStartHour, p.WorkStartMinute, 0, 0, p.location())
}

// Classify derives status, late minutes and worked minutes for a day.
// Arrivals within the grace period are not late. A closed day shorter than
// half of FullDay is a half day regardless of arrival time.
func (p Policy) Classify(workDate, clockIn time.Time, clockOut *time.Time) (status Status, lateMinutes, workMinutes int) {
	late := clockIn.Sub(p.shiftStart(workDate))
	if late > p.LateGrace {
		lateMinutes = int(late / time.Minute)
	}

	status = StatusPresent
	if lateMinutes > 0 {
		status = StatusLate
	}

	if clockOut != nil {
		worked := clockOut.Sub(clockIn)
		workMinutes = int(worked / time.Minute)
		if worked < p.FullDay/2 {
			status = StatusHalfDay
		}
	}
	return status, lateMinutes, workMinutes
}

// MonthStart returns the first day of t's month at midnight UTC.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// Summarize folds one employee's logs for month into a Summary. Weekdays in
// [max(month start, activeFrom), asOf) without a log count as absent; asOf
// itself is still in progress and never counts.
func Summarize(employeeID string, month, activeFrom, asOf time.Time, logs []AttendanceLog) Summary {
	month = MonthStart(month)
	next := month.AddDate(0, 1, 0)

	summary := Summary{EmployeeID: employeeID, PeriodMonth: month}
	seen := make(map[time.Time]bool, len(logs))
	for _, l := range logs {
		if l.EmployeeID != employeeID || l.WorkDate.Before(month) || !l.WorkDate.Before(next) {
			continue
		}
		seen[l.WorkDate] = true
		switch l.Status {
		case StatusPresent:
			summary.PresentDays++
		case StatusLate:
			summary.LateDays++
		case StatusHalfDay:
			summary.HalfDays++
		case StatusAbsent:
			summary.AbsentDays++
		}
		summary.WorkMinutes += int64(l.WorkMinutes)
		summary.LateMinutes += int64(l.LateMinutes)
	}

	from := month
	if activeFrom.After(from) {
		from = activeFrom
	}
	until := next
	if asOf.Before(until) {
		until = asOf
	}
	for day := from; day.Before(until); day = day.AddDate(0, 0, 1) {
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		if !seen[day] {
			summary.AbsentDays++
		}
	}
	return summary
}
