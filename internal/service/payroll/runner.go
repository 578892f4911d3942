package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/payroll"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 8
	defaultStallAfter  = 15 * time.Minute
)

// Runner computes payslips for a payroll run. Every employee is isolated:
// configuration problems become failure entries and the rest of the run continues.
type Runner struct {
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	concurrency  int
	stallAfter   time.Duration
	heartbeat    time.Duration
	now          func() time.Time
}

func NewRunner(payrollRepo payroll.PayrollRepository, employeeRepo employee.EmployeeRepository, concurrency int, stallAfter time.Duration) *Runner {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	if stallAfter <= 0 {
		stallAfter = defaultStallAfter
	}
	return &Runner{
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		concurrency:  concurrency,
		stallAfter:   stallAfter,
		heartbeat:    stallAfter / 3,
		now:          time.Now,
	}
}

// RequireTaxSlabs fails with a configuration error when no slabs are configured.
func (r *Runner) RequireTaxSlabs(ctx context.Context) ([]payroll.TaxSlab, error) {
	slabs, err := r.payrollRepo.ListTaxSlabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax slabs: %w", err)
	}
	if len(slabs) == 0 {
		return nil, payroll.NewConfigurationError(payroll.ErrNoTaxSlabs, "")
	}
	return slabs, nil
}

// Process runs the payroll for runID. Payslips that already exist are skipped,
// so a run interrupted half way can be processed again.
func (r *Runner) Process(ctx context.Context, runID string) (payroll.RunReport, error) {
	start := r.now()

	slabs, err := r.RequireTaxSlabs(ctx)
	if err != nil {
		return payroll.RunReport{}, err
	}

	run, err := r.payrollRepo.MarkRunProcessing(ctx, runID)
	if err != nil {
		return payroll.RunReport{}, err
	}

	employees, err := r.employeeRepo.GetActive(ctx)
	if err != nil {
		return payroll.RunReport{}, fmt.Errorf("failed to get active employees: %w", err)
	}

	stopHeartbeat := r.startHeartbeat(ctx, run.ID)

	report := payroll.RunReport{RunID: run.ID, Failed: []payroll.EmployeeFailure{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, emp := range employees {
		emp := emp
		g.Go(func() error {
			err := r.processEmployee(gctx, run.ID, emp, slabs)

			var configErr *payroll.ConfigurationError
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Processed++
			case errors.Is(err, payroll.ErrPayslipAlreadyExists):
				report.Skipped++
			case errors.As(err, &configErr):
				report.Failed = append(report.Failed, payroll.EmployeeFailure{
					EmployeeID:   emp.ID,
					EmployeeName: emp.FullName,
					Reason:       configErr.Error(),
				})
			default:
				return fmt.Errorf("employee %s: %w", emp.ID, err)
			}
			return nil
		})
	}

	err = g.Wait()
	stopHeartbeat()
	if err != nil {
		slog.Error("payroll run aborted", "run_id", run.ID, "error", err)
		return payroll.RunReport{}, err
	}

	total, err := r.payrollRepo.CountPayslipsByRun(ctx, run.ID)
	if err != nil {
		return payroll.RunReport{}, err
	}
	report.Processed = total

	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].EmployeeName < report.Failed[j].EmployeeName
	})

	if err := r.payrollRepo.CompleteRun(ctx, report); err != nil {
		return payroll.RunReport{}, err
	}

	slog.Info("payroll run completed",
		"run_id", run.ID,
		"month", run.PeriodMonth.Format("2006-01"),
		"processed", report.Processed,
		"skipped", report.Skipped,
		"failed", len(report.Failed),
		"duration", r.now().Sub(start).String(),
	)
	return report, nil
}

// startHeartbeat touches the run every heartbeat interval until the returned
// stop func is called, so a long run is never mistaken for a stalled one.
func (r *Runner) startHeartbeat(ctx context.Context, runID string) (stop func()) {
	if r.heartbeat <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.payrollRepo.TouchRun(ctx, runID); err != nil && ctx.Err() == nil {
					slog.Warn("payroll run heartbeat failed", "run_id", runID, "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (r *Runner) processEmployee(ctx context.Context, runID string, emp employee.Employee, slabs []payroll.TaxSlab) error {
	if !emp.HasBaseSalary() {
		return payroll.NewConfigurationError(payroll.ErrMissingBaseSalary, "")
	}

	structure, err := r.payrollRepo.GetStructureByEmployee(ctx, emp.ID)
	if err != nil {
		if errors.Is(err, payroll.ErrSalaryStructureNotFound) {
			return payroll.NewConfigurationError(payroll.ErrMissingSalaryStructure, "")
		}
		return err
	}

	result, err := payroll.Calculate(*emp.BaseSalary, structure.Lines, slabs)
	if err != nil {
		return err
	}

	_, err = r.payrollRepo.CreatePayslip(ctx, payroll.Payslip{
		PayrollRunID:     runID,
		EmployeeID:       emp.ID,
		BaseSalary:       result.BaseSalary,
		GrossSalary:      result.GrossSalary,
		TotalDeductions:  result.TotalDeductions,
		TaxDeduction:     result.TaxDeduction,
		NetSalary:        result.NetSalary,
		EarningsDetail:   result.EarningsDetail,
		DeductionsDetail: result.DeductionsDetail,
	})
	return err
}

// ResumeStalled reprocesses runs that have sat in processing longer than the stall threshold.
func (r *Runner) ResumeStalled(ctx context.Context) error {
	runs, err := r.payrollRepo.ListStalledRuns(ctx, r.now().Add(-r.stallAfter))
	if err != nil {
		return fmt.Errorf("failed to list stalled payroll runs: %w", err)
	}

	var errs []error
	for _, run := range runs {
		slog.Warn("resuming stalled payroll run", "run_id", run.ID, "idle_since", run.UpdatedAt)
		if _, err := r.Process(ctx, run.ID); err != nil {
			errs = append(errs, fmt.Errorf("run %s: %w", run.ID, err))
		}
	}
	return errors.Join(errs...)
}
