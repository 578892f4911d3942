package cron

import (
	"context"
	"time"
)

// StalledRunResumer is satisfied by payroll.PayrollService.
type StalledRunResumer interface {
	ResumeStalledRuns(ctx context.Context) error
}

// PayrollJobs contains payroll-related cron jobs
type PayrollJobs struct {
	resumer       StalledRunResumer
	sweepInterval time.Duration
}

func NewPayrollJobs(resumer StalledRunResumer, sweepInterval time.Duration) *PayrollJobs {
	return &PayrollJobs{
		resumer:       resumer,
		sweepInterval: sweepInterval,
	}
}

// RegisterJobs registers all payroll-related cron jobs
func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(
		"resume_stalled_payroll_runs",
		j.sweepInterval,
		j.ResumeStalledRuns,
	)
}

// ResumeStalledRuns reprocesses runs left in processing by a crashed or lost worker.
func (j *PayrollJobs) ResumeStalledRuns(ctx context.Context) error {
	return j.resumer.ResumeStalledRuns(ctx)
}
