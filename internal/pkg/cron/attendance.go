package cron

import (
	"context"
	"time"
)

// SummaryRecomputer is satisfied by attendance.AttendanceService.
type SummaryRecomputer interface {
	RecomputeSummaries(ctx context.Context, month, asOf time.Time) (int, error)
}

// AttendanceJobs contains attendance-related cron jobs
type AttendanceJobs struct {
	recomputer SummaryRecomputer
	interval   time.Duration
	now        func() time.Time
}

func NewAttendanceJobs(recomputer SummaryRecomputer, interval time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		recomputer: recomputer,
		interval:   interval,
		now:        time.Now,
	}
}

// RegisterJobs registers all attendance-related cron jobs
func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(
		"recompute_attendance_summaries",
		j.interval,
		j.RecomputeSummaries,
	)
}

// RecomputeSummaries refreshes the current month. On the first day of a month
// it also closes out the previous one, so late clock-outs land in its summary.
func (j *AttendanceJobs) RecomputeSummaries(ctx context.Context) error {
	now := j.now()
	if now.Day() == 1 {
		if _, err := j.recomputer.RecomputeSummaries(ctx, now.AddDate(0, 0, -1), now); err != nil {
			return err
		}
	}
	_, err := j.recomputer.RecomputeSummaries(ctx, now, now)
	return err
}
