package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/payroll"
	kafkago "github.com/segmentio/kafka-go"
)

const payrollRunEventType = "payroll_run.requested"

// PayrollRunMessage is the payload published for every submitted payroll run.
type PayrollRunMessage struct {
	RunID       string    `json:"run_id"`
	RequestedAt time.Time `json:"requested_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// RunProcessor computes the payslips of a payroll run.
type RunProcessor interface {
	ProcessPayrollRun(ctx context.Context, runID string) (payroll.RunReport, error)
}

// KafkaPublisher implements payroll.RunDispatcher on top of a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
}

func NewKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// DispatchPayrollRun implements payroll.RunDispatcher.
func (p *KafkaPublisher) DispatchPayrollRun(ctx context.Context, runID string) error {
	payload, err := json.Marshal(PayrollRunMessage{RunID: runID, RequestedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode payroll run message: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(runID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(payrollRunEventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish payroll run %s: %w", runID, err)
	}

	slog.Info("payroll run published", "run_id", runID)
	return nil
}

// RetryPolicy bounds the wait between attempts on a message whose run failed
// for a transient reason. The delay doubles per attempt up to Max.
type RetryPolicy struct {
	Initial time.Duration
	Max     time.Duration
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.Initial
	for i := 0; i < attempt && d < p.Max; i++ {
		d *= 2
	}
	return min(d, p.Max)
}

// ConsumePayrollRuns processes payroll-run messages until ctx is cancelled.
// A message is committed once its run is completed or can never complete.
// Other failures are retried on the same message with backoff; the reader does
// not move past it, so later runs wait behind it. If ctx ends first the message
// stays uncommitted and the group hands it out again after a restart.
func ConsumePayrollRuns(ctx context.Context, reader messageReader, processor RunProcessor, policy RetryPolicy) {
	log := slog.With("component", "kafka.consumer.payroll_run")
	log.Info("payroll run consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("payroll run consumer stopped")
				return
			}
			log.Error("fetch payroll run message failed", "error", err)
			continue
		}

		var event PayrollRunMessage
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.RunID == "" {
			log.Error("decode payroll run message failed", "offset", msg.Offset, "error", err)
			commit(ctx, log, reader, msg)
			continue
		}

		if !processWithRetry(ctx, log, processor, event.RunID, policy) {
			log.Info("payroll run consumer stopped", "pending_run_id", event.RunID)
			return
		}
		commit(ctx, log, reader, msg)
	}
}

// processWithRetry returns false only when ctx ended before the run settled.
func processWithRetry(ctx context.Context, log *slog.Logger, processor RunProcessor, runID string, policy RetryPolicy) bool {
	for attempt := 0; ; attempt++ {
		start := time.Now()
		report, err := processor.ProcessPayrollRun(ctx, runID)
		switch {
		case err == nil:
			log.Info("payroll run processed",
				"run_id", runID,
				"processed", report.Processed,
				"skipped", report.Skipped,
				"failed", len(report.Failed),
				"duration", time.Since(start),
			)
			return true
		case errors.Is(err, payroll.ErrPayrollRunCompleted), errors.Is(err, payroll.ErrPayrollRunNotFound):
			log.Warn("payroll run message dropped", "run_id", runID, "error", err)
			return true
		}

		wait := policy.delay(attempt)
		log.Error("process payroll run failed, retrying",
			"run_id", runID,
			"attempt", attempt+1,
			"retry_in", wait,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}

func commit(ctx context.Context, log *slog.Logger, reader messageReader, msg kafkago.Message) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("commit payroll run message failed", "offset", msg.Offset, "error", err)
	}
}
