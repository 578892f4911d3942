package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll.
type PayrollRepository interface {
	// Components
	CreateComponent(ctx context.Context, component SalaryComponent) (SalaryComponent, error)
	GetComponentByID(ctx context.Context, id string) (SalaryComponent, error)
	ListComponents(ctx context.Context) ([]SalaryComponent, error)

	// Salary Structures
	GetStructureByEmployee(ctx context.Context, employeeID string) (SalaryStructure, error)
	// ReplaceStructure upserts the employee's structure and swaps all of its lines.
	ReplaceStructure(ctx context.Context, structure SalaryStructure) (SalaryStructure, error)

	// Tax Slabs
	ListTaxSlabs(ctx context.Context) ([]TaxSlab, error)
	ReplaceTaxSlabs(ctx context.Context, slabs []TaxSlab) ([]TaxSlab, error)

	// Payroll Runs
	CreateRun(ctx context.Context, run PayrollRun) (PayrollRun, error)
	GetRunByID(ctx context.Context, id string) (PayrollRun, error)
	ListRuns(ctx context.Context, filter PayrollRunFilter) ([]PayrollRun, int64, error)
	// MarkRunProcessing moves a draft or processing run to processing.
	// It returns ErrPayrollRunCompleted for completed runs.
	MarkRunProcessing(ctx context.Context, id string) (PayrollRun, error)
	CompleteRun(ctx context.Context, report RunReport) error
	// TouchRun bumps updated_at of a processing run; it is the runner's heartbeat.
	TouchRun(ctx context.Context, id string) error
	ListStalledRuns(ctx context.Context, idleSince time.Time) ([]PayrollRun, error)

	// Payslips
	// CreatePayslip returns ErrPayslipAlreadyExists when (run, employee) already has one.
	CreatePayslip(ctx context.Context, payslip Payslip) (Payslip, error)
	GetPayslipByID(ctx context.Context, id string) (Payslip, error)
	ListPayslipsByRun(ctx context.Context, runID string) ([]Payslip, error)
	CountPayslipsByRun(ctx context.Context, runID string) (int, error)
	ListPayslipsByEmployee(ctx context.Context, employeeID string) ([]Payslip, error)
}

// RunDispatcher hands a payroll run to asynchronous processing.
type RunDispatcher interface {
	DispatchPayrollRun(ctx context.Context, runID string) error
}
