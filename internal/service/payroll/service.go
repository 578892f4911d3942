package payroll

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
)

type PayrollServiceImpl struct {
	txManager    database.Transactor
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	dispatcher   payroll.RunDispatcher
	runner       *Runner
	auditRepo    audit.AuditRepository
}

// NewPayrollService wires the payroll service. A nil dispatcher makes runs process inline.
func NewPayrollService(
	txManager database.Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	dispatcher payroll.RunDispatcher,
	runner *Runner,
	auditRepo audit.AuditRepository,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		txManager:    txManager,
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		dispatcher:   dispatcher,
		runner:       runner,
		auditRepo:    auditRepo,
	}
}

// ========== COMPONENTS ==========

func (s *PayrollServiceImpl) CreateComponent(ctx context.Context, caller user.Caller, req payroll.CreateSalaryComponentRequest) (payroll.SalaryComponentResponse, error) {
	if !caller.Can(user.PermissionPayrollManage) {
		return payroll.SalaryComponentResponse{}, user.ErrInsufficientPermissions
	}

	created, err := s.payrollRepo.CreateComponent(ctx, payroll.SalaryComponent{
		Name:            req.Name,
		ComponentType:   payroll.ComponentType(req.ComponentType),
		CalculationType: payroll.CalculationType(req.CalculationType),
		Description:     req.Description,
	})
	if err != nil {
		return payroll.SalaryComponentResponse{}, err
	}
	return payroll.NewSalaryComponentResponse(created), nil
}

func (s *PayrollServiceImpl) ListComponents(ctx context.Context, caller user.Caller) ([]payroll.SalaryComponentResponse, error) {
	if !caller.Can(user.PermissionPayrollManage) {
		return nil, user.ErrInsufficientPermissions
	}

	components, err := s.payrollRepo.ListComponents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary components: %w", err)
	}

	result := make([]payroll.SalaryComponentResponse, 0, len(components))
	for _, c := range components {
		result = append(result, payroll.NewSalaryComponentResponse(c))
	}
	return result, nil
}

// ========== SALARY STRUCTURES ==========

func (s *PayrollServiceImpl) ReplaceSalaryStructure(ctx context.Context, caller user.Caller, req payroll.ReplaceSalaryStructureRequest) (payroll.SalaryStructureResponse, error) {
	if !caller.Can(user.PermissionPayrollManage) {
		return payroll.SalaryStructureResponse{}, user.ErrInsufficientPermissions
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	structure := payroll.SalaryStructure{
		EmployeeID:    req.EmployeeID,
		EffectiveDate: req.EffectiveOn(),
		Lines:         make([]payroll.SalaryStructureLine, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		if _, err := s.payrollRepo.GetComponentByID(ctx, line.ComponentID); err != nil {
			return payroll.SalaryStructureResponse{}, err
		}
		structure.Lines = append(structure.Lines, payroll.SalaryStructureLine{
			ComponentID: line.ComponentID,
			Value:       line.Value,
		})
	}

	var saved payroll.SalaryStructure
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		saved, err = s.payrollRepo.ReplaceStructure(txCtx, structure)
		return err
	})
	if err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	slog.Info("salary structure replaced", "employee_id", saved.EmployeeID, "components", len(saved.Lines), "updated_by", caller.UserID)
	return payroll.NewSalaryStructureResponse(saved), nil
}

func (s *PayrollServiceImpl) GetSalaryStructure(ctx context.Context, caller user.Caller, employeeID string) (payroll.SalaryStructureResponse, error) {
	if !caller.Can(user.PermissionPayrollManage) && !caller.OwnsEmployee(employeeID) {
		return payroll.SalaryStructureResponse{}, user.ErrInsufficientPermissions
	}

	structure, err := s.payrollRepo.GetStructureByEmployee(ctx, employeeID)
	if err != nil {
		return payroll.SalaryStructureResponse{}, err
	}
	return payroll.NewSalaryStructureResponse(structure), nil
}

// ========== TAX SLABS ==========

func (s *PayrollServiceImpl) ReplaceTaxSlabs(ctx context.Context, caller user.Caller, req payroll.ReplaceTaxSlabsRequest) ([]payroll.TaxSlabResponse, error) {
	if !caller.Can(user.PermissionPayrollManage) {
		return nil, user.ErrInsufficientPermissions
	}

	slabs := req.ToSlabs()
	if err := payroll.ValidateSlabs(slabs); err != nil {
		return nil, err
	}

	var saved []payroll.TaxSlab
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		saved, err = s.payrollRepo.ReplaceTaxSlabs(txCtx, slabs)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("tax slabs replaced", "slabs", len(saved), "updated_by", caller.UserID)
	return payroll.NewTaxSlabResponses(saved), nil
}

func (s *PayrollServiceImpl) ListTaxSlabs(ctx context.Context, caller user.Caller) ([]payroll.TaxSlabResponse, error) {
	if !caller.Can(user.PermissionPayslipViewOwn) {
		return nil, user.ErrInsufficientPermissions
	}

	slabs, err := s.payrollRepo.ListTaxSlabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax slabs: %w", err)
	}
	return payroll.NewTaxSlabResponses(slabs), nil
}

// ========== PAYROLL RUNS ==========

func (s *PayrollServiceImpl) CreatePayrollRun(ctx context.Context, caller user.Caller, req payroll.CreatePayrollRunRequest) (payroll.PayrollRunResponse, error) {
	if !caller.Can(user.PermissionPayrollRun) {
		return payroll.PayrollRunResponse{}, user.ErrInsufficientPermissions
	}

	createdBy := caller.UserID
	run, err := s.payrollRepo.CreateRun(ctx, payroll.PayrollRun{
		PeriodMonth: req.Period(),
		Status:      payroll.RunStatusDraft,
		CreatedBy:   &createdBy,
	})
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	slog.Info("payroll run created", "run_id", run.ID, "month", req.Month, "created_by", caller.UserID)
	return payroll.NewPayrollRunResponse(run), nil
}

func (s *PayrollServiceImpl) GetPayrollRun(ctx context.Context, caller user.Caller, id string) (payroll.PayrollRunResponse, error) {
	if !caller.Can(user.PermissionPayrollRun) {
		return payroll.PayrollRunResponse{}, user.ErrInsufficientPermissions
	}

	run, err := s.payrollRepo.GetRunByID(ctx, id)
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}
	return payroll.NewPayrollRunResponse(run), nil
}

func (s *PayrollServiceImpl) ListPayrollRuns(ctx context.Context, caller user.Caller, filter payroll.PayrollRunFilter) (payroll.ListPayrollRunResponse, error) {
	if !caller.Can(user.PermissionPayrollRun) {
		return payroll.ListPayrollRunResponse{}, user.ErrInsufficientPermissions
	}
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrollRunResponse{}, err
	}

	runs, total, err := s.payrollRepo.ListRuns(ctx, filter)
	if err != nil {
		return payroll.ListPayrollRunResponse{}, fmt.Errorf("failed to list payroll runs: %w", err)
	}

	responses := make([]payroll.PayrollRunResponse, 0, len(runs))
	for _, r := range runs {
		responses = append(responses, payroll.NewPayrollRunResponse(r))
	}

	return payroll.ListPayrollRunResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Runs:       responses,
	}, nil
}

func (s *PayrollServiceImpl) SubmitPayrollRun(ctx context.Context, caller user.Caller, id string) (payroll.SubmitPayrollRunResponse, error) {
	if !caller.Can(user.PermissionPayrollRun) {
		return payroll.SubmitPayrollRunResponse{}, user.ErrInsufficientPermissions
	}

	run, err := s.payrollRepo.GetRunByID(ctx, id)
	if err != nil {
		return payroll.SubmitPayrollRunResponse{}, err
	}
	if run.Status == payroll.RunStatusCompleted {
		return payroll.SubmitPayrollRunResponse{}, payroll.ErrPayrollRunCompleted
	}
	if _, err := s.runner.RequireTaxSlabs(ctx); err != nil {
		return payroll.SubmitPayrollRunResponse{}, err
	}

	submitted := audit.NewEntry(caller, audit.ActionPayrollRunSubmit, "payroll_run", run.ID, map[string]any{
		"period_month": run.PeriodMonth.Format("2006-01"),
		"queued":       s.dispatcher != nil,
	})

	if s.dispatcher == nil {
		if err := s.auditRepo.Record(ctx, submitted); err != nil {
			return payroll.SubmitPayrollRunResponse{}, err
		}
		report, err := s.runner.Process(ctx, id)
		if err != nil {
			return payroll.SubmitPayrollRunResponse{}, err
		}
		run, err = s.payrollRepo.GetRunByID(ctx, id)
		if err != nil {
			return payroll.SubmitPayrollRunResponse{}, err
		}
		return payroll.SubmitPayrollRunResponse{
			Run:    payroll.NewPayrollRunResponse(run),
			Report: &report,
		}, nil
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		run, err = s.payrollRepo.MarkRunProcessing(txCtx, id)
		if err != nil {
			return err
		}
		return s.auditRepo.Record(txCtx, submitted)
	})
	if err != nil {
		return payroll.SubmitPayrollRunResponse{}, err
	}
	if err := s.dispatcher.DispatchPayrollRun(ctx, id); err != nil {
		slog.Error("failed to dispatch payroll run, the sweep will retry it", "run_id", id, "error", err)
		return payroll.SubmitPayrollRunResponse{}, fmt.Errorf("failed to dispatch payroll run: %w", err)
	}

	slog.Info("payroll run queued", "run_id", id, "submitted_by", caller.UserID)
	return payroll.SubmitPayrollRunResponse{
		Run:    payroll.NewPayrollRunResponse(run),
		Queued: true,
	}, nil
}

func (s *PayrollServiceImpl) ProcessPayrollRun(ctx context.Context, runID string) (payroll.RunReport, error) {
	return s.runner.Process(ctx, runID)
}

func (s *PayrollServiceImpl) ResumeStalledRuns(ctx context.Context) error {
	return s.runner.ResumeStalled(ctx)
}

// ========== PAYSLIPS ==========

func (s *PayrollServiceImpl) ListRunPayslips(ctx context.Context, caller user.Caller, runID string) ([]payroll.PayslipResponse, error) {
	if !caller.Can(user.PermissionPayrollRun) {
		return nil, user.ErrInsufficientPermissions
	}

	if _, err := s.payrollRepo.GetRunByID(ctx, runID); err != nil {
		return nil, err
	}

	payslips, err := s.payrollRepo.ListPayslipsByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	return mapToPayslipResponses(payslips), nil
}

func (s *PayrollServiceImpl) ListMyPayslips(ctx context.Context, caller user.Caller) ([]payroll.PayslipResponse, error) {
	if !caller.Can(user.PermissionPayslipViewOwn) {
		return nil, user.ErrInsufficientPermissions
	}
	if caller.EmployeeID == nil {
		return nil, payroll.ErrNoEmployeeRecord
	}

	payslips, err := s.payrollRepo.ListPayslipsByEmployee(ctx, *caller.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	return mapToPayslipResponses(payslips), nil
}

func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, caller user.Caller, id string) (payroll.PayslipResponse, error) {
	p, err := s.getPayslip(ctx, caller, id)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return payroll.NewPayslipResponse(p), nil
}

func (s *PayrollServiceImpl) WritePayslipPDF(ctx context.Context, caller user.Caller, id string, w io.Writer) error {
	p, err := s.getPayslip(ctx, caller, id)
	if err != nil {
		return err
	}
	return renderPayslipPDF(p, w)
}

func (s *PayrollServiceImpl) getPayslip(ctx context.Context, caller user.Caller, id string) (payroll.Payslip, error) {
	p, err := s.payrollRepo.GetPayslipByID(ctx, id)
	if err != nil {
		return payroll.Payslip{}, err
	}
	if !caller.Can(user.PermissionPayrollRun) && !caller.OwnsEmployee(p.EmployeeID) {
		return payroll.Payslip{}, user.ErrInsufficientPermissions
	}
	return p, nil
}

func mapToPayslipResponses(payslips []payroll.Payslip) []payroll.PayslipResponse {
	result := make([]payroll.PayslipResponse, 0, len(payslips))
	for _, p := range payslips {
		result = append(result, payroll.NewPayslipResponse(p))
	}
	return result
}
