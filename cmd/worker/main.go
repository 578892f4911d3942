package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/ems-backend-go/internal/config"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/ems-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/queue"
	"github.com/cmlabs-hris/ems-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/ems-backend-go/internal/service/attendance"
	payrollService "github.com/cmlabs-hris/ems-backend-go/internal/service/payroll"
)

// The worker consumes queued payroll runs, sweeps runs stuck in processing
// and keeps monthly attendance summaries current.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: appHTTP.ParseLogLevel(cfg.App.LogLevel),
	})).With(slog.String("app", "ems-worker")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	txManager := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	runner := payrollService.NewRunner(payrollRepo, employeeRepo, cfg.Payroll.Concurrency, cfg.Payroll.StallAfter)
	// The worker never dispatches, so runs it touches are processed in place.
	payrollSvc := payrollService.NewPayrollService(txManager, payrollRepo, employeeRepo, nil, runner, auditRepo)

	attendancePolicy, err := attendance.NewPolicy(cfg.Attendance.WorkStart, cfg.Attendance.LateGrace, cfg.Attendance.FullDay, cfg.Attendance.Location)
	if err != nil {
		slog.Error("Error building attendance policy", "error", err)
		os.Exit(1)
	}
	attendanceSvc := attendanceService.NewAttendanceService(txManager, attendanceRepo, employeeRepo, auditRepo, attendancePolicy)

	scheduler := cron.NewScheduler(ctx)
	cron.NewPayrollJobs(payrollSvc, cfg.Payroll.SweepInterval).RegisterJobs(scheduler)
	cron.NewAttendanceJobs(attendanceSvc, cfg.Attendance.SummaryInterval).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Kafka.Enabled() {
		reader := queue.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.PayrollTopic, cfg.Kafka.ConsumerGroup)
		defer reader.Close()
		go queue.ConsumePayrollRuns(ctx, reader, payrollSvc, queue.RetryPolicy{
			Initial: cfg.Kafka.RetryInitial,
			Max:     cfg.Kafka.RetryMax,
		})
	} else {
		slog.Warn("KAFKA_BROKERS not set, worker only sweeps stalled payroll runs")
	}

	<-ctx.Done()
	slog.Info("Worker shutting down")
}
