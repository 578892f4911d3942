package payroll

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/payroll"
	"github.com/google/uuid"
)

func newTestID() string {
	return uuid.Must(uuid.NewV7()).String()
}

type passthroughTransactor struct{}

func (passthroughTransactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	runIDs []string
	err    error
}

func (d *recordingDispatcher) DispatchPayrollRun(ctx context.Context, runID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.runIDs = append(d.runIDs, runID)
	return nil
}

type memEmployeeRepo struct {
	mu        sync.Mutex
	employees []employee.Employee
}

func (r *memEmployeeRepo) add(e employee.Employee) employee.Employee {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = newTestID()
	e.IsActive = true
	r.employees = append(r.employees, e)
	return e
}

func (r *memEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *memEmployeeRepo) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	return r.add(e), nil
}

func (r *memEmployeeRepo) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	active, _ := r.GetActive(ctx)
	return active, int64(len(active)), nil
}

func (r *memEmployeeRepo) GetActive(ctx context.Context) ([]employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []employee.Employee
	for _, e := range r.employees {
		if e.IsActive {
			result = append(result, e)
		}
	}
	return result, nil
}

type memPayrollRepo struct {
	mu         sync.Mutex
	components map[string]payroll.SalaryComponent
	structures map[string]payroll.SalaryStructure // by employee
	slabs      []payroll.TaxSlab
	runs       map[string]payroll.PayrollRun
	payslips   map[string]payroll.Payslip

	payslipDelay time.Duration
	touches      int
}

func newMemPayrollRepo() *memPayrollRepo {
	return &memPayrollRepo{
		components: make(map[string]payroll.SalaryComponent),
		structures: make(map[string]payroll.SalaryStructure),
		runs:       make(map[string]payroll.PayrollRun),
		payslips:   make(map[string]payroll.Payslip),
	}
}

func (r *memPayrollRepo) CreateComponent(ctx context.Context, c payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.components {
		if existing.Name == c.Name {
			return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNameExists
		}
	}
	c.ID = newTestID()
	r.components[c.ID] = c
	return c, nil
}

func (r *memPayrollRepo) GetComponentByID(ctx context.Context, id string) (payroll.SalaryComponent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.components[id]
	if !ok {
		return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNotFound
	}
	return c, nil
}

func (r *memPayrollRepo) ListComponents(ctx context.Context) ([]payroll.SalaryComponent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]payroll.SalaryComponent, 0, len(r.components))
	for _, c := range r.components {
		result = append(result, c)
	}
	return result, nil
}

func (r *memPayrollRepo) GetStructureByEmployee(ctx context.Context, employeeID string) (payroll.SalaryStructure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.structures[employeeID]
	if !ok {
		return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound
	}
	return s, nil
}

func (r *memPayrollRepo) ReplaceStructure(ctx context.Context, s payroll.SalaryStructure) (payroll.SalaryStructure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = newTestID()
	for i, line := range s.Lines {
		c := r.components[line.ComponentID]
		s.Lines[i].StructureID = s.ID
		s.Lines[i].ComponentName = c.Name
		s.Lines[i].ComponentType = c.ComponentType
		s.Lines[i].CalculationType = c.CalculationType
	}
	r.structures[s.EmployeeID] = s
	return s, nil
}

func (r *memPayrollRepo) ListTaxSlabs(ctx context.Context) ([]payroll.TaxSlab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]payroll.TaxSlab(nil), r.slabs...), nil
}

func (r *memPayrollRepo) ReplaceTaxSlabs(ctx context.Context, slabs []payroll.TaxSlab) ([]payroll.TaxSlab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slabs = append([]payroll.TaxSlab(nil), slabs...)
	for i := range r.slabs {
		r.slabs[i].ID = newTestID()
	}
	return append([]payroll.TaxSlab(nil), r.slabs...), nil
}

func (r *memPayrollRepo) CreateRun(ctx context.Context, run payroll.PayrollRun) (payroll.PayrollRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.runs {
		if existing.PeriodMonth.Equal(run.PeriodMonth) {
			return payroll.PayrollRun{}, payroll.ErrPayrollRunExists
		}
	}
	run.ID = newTestID()
	run.Status = payroll.RunStatusDraft
	run.CreatedAt = time.Now()
	run.UpdatedAt = run.CreatedAt
	r.runs[run.ID] = run
	return run, nil
}

func (r *memPayrollRepo) GetRunByID(ctx context.Context, id string) (payroll.PayrollRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return payroll.PayrollRun{}, payroll.ErrPayrollRunNotFound
	}
	return run, nil
}

func (r *memPayrollRepo) ListRuns(ctx context.Context, filter payroll.PayrollRunFilter) ([]payroll.PayrollRun, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []payroll.PayrollRun
	for _, run := range r.runs {
		if filter.Status == nil || string(run.Status) == *filter.Status {
			result = append(result, run)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PeriodMonth.After(result[j].PeriodMonth) })
	return result, int64(len(result)), nil
}

func (r *memPayrollRepo) MarkRunProcessing(ctx context.Context, id string) (payroll.PayrollRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return payroll.PayrollRun{}, payroll.ErrPayrollRunNotFound
	}
	if run.Status == payroll.RunStatusCompleted {
		return payroll.PayrollRun{}, payroll.ErrPayrollRunCompleted
	}
	run.Status = payroll.RunStatusProcessing
	run.UpdatedAt = time.Now()
	r.runs[id] = run
	return run, nil
}

func (r *memPayrollRepo) CompleteRun(ctx context.Context, report payroll.RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[report.RunID]
	if !ok || run.Status != payroll.RunStatusProcessing {
		return payroll.ErrPayrollRunCompleted
	}
	now := time.Now()
	run.Status = payroll.RunStatusCompleted
	run.ProcessedAt = &now
	run.Processed = report.Processed
	run.Skipped = report.Skipped
	run.Failures = report.Failed
	r.runs[report.RunID] = run
	return nil
}

func (r *memPayrollRepo) TouchRun(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok || run.Status != payroll.RunStatusProcessing {
		return nil
	}
	r.touches++
	run.UpdatedAt = time.Now()
	r.runs[id] = run
	return nil
}

func (r *memPayrollRepo) ListStalledRuns(ctx context.Context, idleSince time.Time) ([]payroll.PayrollRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []payroll.PayrollRun
	for _, run := range r.runs {
		if run.Status == payroll.RunStatusProcessing && run.UpdatedAt.Before(idleSince) {
			result = append(result, run)
		}
	}
	return result, nil
}

func (r *memPayrollRepo) CreatePayslip(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	if r.payslipDelay > 0 {
		time.Sleep(r.payslipDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payslips {
		if existing.PayrollRunID == p.PayrollRunID && existing.EmployeeID == p.EmployeeID {
			return payroll.Payslip{}, payroll.ErrPayslipAlreadyExists
		}
	}
	p.ID = newTestID()
	p.CreatedAt = time.Now()
	r.payslips[p.ID] = p
	return p, nil
}

func (r *memPayrollRepo) GetPayslipByID(ctx context.Context, id string) (payroll.Payslip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payslips[id]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return p, nil
}

func (r *memPayrollRepo) ListPayslipsByRun(ctx context.Context, runID string) ([]payroll.Payslip, error) {
	return r.filterPayslips(func(p payroll.Payslip) bool { return p.PayrollRunID == runID }), nil
}

func (r *memPayrollRepo) CountPayslipsByRun(ctx context.Context, runID string) (int, error) {
	return len(r.filterPayslips(func(p payroll.Payslip) bool { return p.PayrollRunID == runID })), nil
}

func (r *memPayrollRepo) ListPayslipsByEmployee(ctx context.Context, employeeID string) ([]payroll.Payslip, error) {
	return r.filterPayslips(func(p payroll.Payslip) bool { return p.EmployeeID == employeeID }), nil
}

func (r *memPayrollRepo) filterPayslips(keep func(payroll.Payslip) bool) []payroll.Payslip {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []payroll.Payslip
	for _, p := range r.payslips {
		if keep(p) {
			result = append(result, p)
		}
	}
	return result
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *memAuditRepo) Record(ctx context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = newTestID()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memAuditRepo) List(ctx context.Context, filter audit.AuditFilter) ([]audit.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := append([]audit.Entry(nil), r.entries...)
	return result, int64(len(result)), nil
}
