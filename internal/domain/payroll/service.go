package payroll

import (
	"context"
	"io"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
)

type PayrollService interface {
	// Components
	CreateComponent(ctx context.Context, caller user.Caller, req CreateSalaryComponentRequest) (SalaryComponentResponse, error)
	ListComponents(ctx context.Context, caller user.Caller) ([]SalaryComponentResponse, error)

	// Salary Structures
	ReplaceSalaryStructure(ctx context.Context, caller user.Caller, req ReplaceSalaryStructureRequest) (SalaryStructureResponse, error)
	GetSalaryStructure(ctx context.Context, caller user.Caller, employeeID string) (SalaryStructureResponse, error)

	// Tax Slabs
	ReplaceTaxSlabs(ctx context.Context, caller user.Caller, req ReplaceTaxSlabsRequest) ([]TaxSlabResponse, error)
	ListTaxSlabs(ctx context.Context, caller user.Caller) ([]TaxSlabResponse, error)

	// Payroll Runs
	CreatePayrollRun(ctx context.Context, caller user.Caller, req CreatePayrollRunRequest) (PayrollRunResponse, error)
	GetPayrollRun(ctx context.Context, caller user.Caller, id string) (PayrollRunResponse, error)
	ListPayrollRuns(ctx context.Context, caller user.Caller, filter PayrollRunFilter) (ListPayrollRunResponse, error)
	// SubmitPayrollRun queues the run when a dispatcher is configured, otherwise processes it inline.
	SubmitPayrollRun(ctx context.Context, caller user.Caller, id string) (SubmitPayrollRunResponse, error)
	// ProcessPayrollRun computes payslips for every active employee. Safe to repeat.
	ProcessPayrollRun(ctx context.Context, runID string) (RunReport, error)
	// ResumeStalledRuns reprocesses runs stuck in processing.
	ResumeStalledRuns(ctx context.Context) error

	// Payslips
	ListRunPayslips(ctx context.Context, caller user.Caller, runID string) ([]PayslipResponse, error)
	ListMyPayslips(ctx context.Context, caller user.Caller) ([]PayslipResponse, error)
	GetPayslip(ctx context.Context, caller user.Caller, id string) (PayslipResponse, error)
	WritePayslipPDF(ctx context.Context, caller user.Caller, id string, w io.Writer) error
}
