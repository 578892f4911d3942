package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BusinessDays counts Monday to Friday dates in the inclusive range [start, end].
// It returns 0 when start is after end.
func BusinessDays(start, end time.Time) int {
	start, end = DateOnly(start), DateOnly(end)
	count := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		count++
	}
	return count
}

// CalendarDays counts all dates in the inclusive range [start, end].
func CalendarDays(start, end time.Time) int {
	start, end = DateOnly(start), DateOnly(end)
	if start.After(end) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// MaxDuration is the largest number of days a request over [start, end] may claim.
func MaxDuration(deduction DeductionType, start, end time.Time) decimal.Decimal {
	business := BusinessDays(start, end)
	if deduction == DeductionCalendarDays {
		return decimal.NewFromInt(int64(max(CalendarDays(start, end), business)))
	}
	return decimal.NewFromInt(int64(business))
}
