package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/payroll"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

// fakeReader serves queued messages, then cancels the consumer context.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	committed []kafkago.Message
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		r.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

// fakeProcessor fails a run transiently for flaky[runID] attempts, then
// returns errs[runID].
type fakeProcessor struct {
	errs   map[string]error
	flaky  map[string]int
	calls  []string
	onCall func(calls int)
}

func (p *fakeProcessor) ProcessPayrollRun(ctx context.Context, runID string) (payroll.RunReport, error) {
	p.calls = append(p.calls, runID)
	if p.onCall != nil {
		p.onCall(len(p.calls))
	}
	if p.flaky[runID] > 0 {
		p.flaky[runID]--
		return payroll.RunReport{}, errors.New("connection refused")
	}
	if err := p.errs[runID]; err != nil {
		return payroll.RunReport{}, err
	}
	return payroll.RunReport{RunID: runID, Processed: 1}, nil
}

var fastRetry = RetryPolicy{Initial: time.Millisecond, Max: 4 * time.Millisecond}

func committedValues(r *fakeReader) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var values []string
	for _, msg := range r.committed {
		values = append(values, string(msg.Value))
	}
	return values
}

func runMessage(t *testing.T, runID string) kafkago.Message {
	payload, err := json.Marshal(PayrollRunMessage{RunID: runID})
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(runID), Value: payload}
}

func TestKafkaPublisher_DispatchPayrollRun(t *testing.T) {
	writer := &fakeWriter{}
	publisher := NewKafkaPublisher(writer)

	require.NoError(t, publisher.DispatchPayrollRun(context.Background(), "run-1"))
	require.Len(t, writer.msgs, 1)

	msg := writer.msgs[0]
	assert.Equal(t, "run-1", string(msg.Key))

	var decoded PayrollRunMessage
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.False(t, decoded.RequestedAt.IsZero())
	assert.Equal(t, payrollRunEventType, string(msg.Headers[0].Value))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unavailable")}
	publisher := NewKafkaPublisher(writer)

	err := publisher.DispatchPayrollRun(context.Background(), "run-1")
	assert.ErrorContains(t, err, "broker unavailable")
}

func TestConsumePayrollRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		queue: []kafkago.Message{
			runMessage(t, "ok"),
			{Value: []byte("not json")},
			runMessage(t, "done"),
			runMessage(t, "gone"),
		},
	}
	processor := &fakeProcessor{errs: map[string]error{
		"done": payroll.ErrPayrollRunCompleted,
		"gone": payroll.ErrPayrollRunNotFound,
	}}

	ConsumePayrollRuns(ctx, reader, processor, fastRetry)

	assert.Equal(t, []string{"ok", "done", "gone"}, processor.calls)

	committed := committedValues(reader)
	require.Len(t, committed, 4)
	assert.Contains(t, committed[0], `"run_id":"ok"`)
	assert.Equal(t, "not json", committed[1])
	assert.Contains(t, committed[2], `"run_id":"done"`)
	assert.Contains(t, committed[3], `"run_id":"gone"`)
}

func TestConsumePayrollRuns_RetriesSameMessageBeforeMovingOn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		queue:  []kafkago.Message{runMessage(t, "flaky"), runMessage(t, "next")},
	}
	processor := &fakeProcessor{flaky: map[string]int{"flaky": 2}}

	ConsumePayrollRuns(ctx, reader, processor, fastRetry)

	assert.Equal(t, []string{"flaky", "flaky", "flaky", "next"}, processor.calls)
	committed := committedValues(reader)
	require.Len(t, committed, 2)
	assert.Contains(t, committed[0], `"run_id":"flaky"`)
	assert.Contains(t, committed[1], `"run_id":"next"`)
}

func TestConsumePayrollRuns_ShutdownLeavesFailingMessageUncommitted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		queue:  []kafkago.Message{runMessage(t, "db-down"), runMessage(t, "next")},
	}
	processor := &fakeProcessor{
		flaky: map[string]int{"db-down": 1000},
		onCall: func(calls int) {
			if calls == 3 {
				cancel()
			}
		},
	}

	ConsumePayrollRuns(ctx, reader, processor, fastRetry)

	assert.Equal(t, []string{"db-down", "db-down", "db-down"}, processor.calls)
	assert.Empty(t, committedValues(reader))
	assert.Len(t, reader.queue, 1, "the consumer never fetched past the failing message")
}

func TestRetryPolicy_Delay(t *testing.T) {
	policy := RetryPolicy{Initial: time.Second, Max: 10 * time.Second}

	assert.Equal(t, time.Second, policy.delay(0))
	assert.Equal(t, 2*time.Second, policy.delay(1))
	assert.Equal(t, 8*time.Second, policy.delay(3))
	assert.Equal(t, 10*time.Second, policy.delay(4))
	assert.Equal(t, 10*time.Second, policy.delay(50))
}
