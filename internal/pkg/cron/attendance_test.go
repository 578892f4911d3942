package cron

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRecompute struct {
	month, asOf time.Time
}

type recordingRecomputer struct {
	mu    sync.Mutex
	calls []recordedRecompute
}

func (r *recordingRecomputer) RecomputeSummaries(ctx context.Context, month, asOf time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedRecompute{month: month, asOf: asOf})
	return 1, nil
}

func TestAttendanceJobs_RecomputesCurrentMonth(t *testing.T) {
	recomputer := &recordingRecomputer{}
	jobs := NewAttendanceJobs(recomputer, time.Hour)
	now := time.Date(2026, time.March, 18, 10, 0, 0, 0, time.UTC)
	jobs.now = func() time.Time { return now }

	require.NoError(t, jobs.RecomputeSummaries(context.Background()))

	require.Len(t, recomputer.calls, 1)
	assert.Equal(t, now, recomputer.calls[0].month)
	assert.Equal(t, now, recomputer.calls[0].asOf)
}

func TestAttendanceJobs_ClosesPreviousMonthOnTheFirst(t *testing.T) {
	recomputer := &recordingRecomputer{}
	jobs := NewAttendanceJobs(recomputer, time.Hour)
	now := time.Date(2026, time.April, 1, 0, 30, 0, 0, time.UTC)
	jobs.now = func() time.Time { return now }

	scheduler := NewScheduler(context.Background())
	jobs.RegisterJobs(scheduler)
	require.NoError(t, scheduler.RunOnce(context.Background()))

	require.Len(t, recomputer.calls, 2)
	assert.Equal(t, time.March, recomputer.calls[0].month.Month())
	assert.Equal(t, now, recomputer.calls[0].asOf)
	assert.Equal(t, time.April, recomputer.calls[1].month.Month())
}
