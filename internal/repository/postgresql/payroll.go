package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

func newID(entity string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate %s id: %w", entity, err)
	}
	return id.String(), nil
}

// ==================== COMPONENTS ====================

const componentColumns = `id, name, component_type, calculation_type, description, created_at, updated_at`

func scanComponent(row pgx.Row) (payroll.SalaryComponent, error) {
	var c payroll.SalaryComponent
	err := row.Scan(&c.ID, &c.Name, &c.ComponentType, &c.CalculationType, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *payrollRepository) CreateComponent(ctx context.Context, component payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID("salary component")
	if err != nil {
		return payroll.SalaryComponent{}, err
	}

	query := `
		INSERT INTO salary_components (id, name, component_type, calculation_type, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + componentColumns

	created, err := scanComponent(q.QueryRow(ctx, query,
		id, component.Name, component.ComponentType, component.CalculationType, component.Description,
	))
	if err != nil {
		if isUniqueViolation(err, "uk_salary_components_name") {
			return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNameExists
		}
		return payroll.SalaryComponent{}, fmt.Errorf("failed to create salary component: %w", err)
	}
	return created, nil
}

func (r *payrollRepository) GetComponentByID(ctx context.Context, id string) (payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	c, err := scanComponent(q.QueryRow(ctx, `SELECT `+componentColumns+` FROM salary_components WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNotFound
		}
		return payroll.SalaryComponent{}, err
	}
	return c, nil
}

func (r *payrollRepository) ListComponents(ctx context.Context) ([]payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+componentColumns+` FROM salary_components ORDER BY component_type, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	components := make([]payroll.SalaryComponent, 0)
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

// ==================== SALARY STRUCTURES ====================

func (r *payrollRepository) GetStructureByEmployee(ctx context.Context, employeeID string) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	var s payroll.SalaryStructure
	err := q.QueryRow(ctx, `
		SELECT id, employee_id, effective_date, created_at, updated_at
		FROM salary_structures
		WHERE employee_id = $1`, employeeID,
	).Scan(&s.ID, &s.EmployeeID, &s.EffectiveDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound
		}
		return payroll.SalaryStructure{}, err
	}

	rows, err := q.Query(ctx, `
		SELECT ssc.id, ssc.structure_id, ssc.component_id, ssc.value,
			   sc.name, sc.component_type, sc.calculation_type
		FROM salary_structure_components ssc
		JOIN salary_components sc ON sc.id = ssc.component_id
		WHERE ssc.structure_id = $1
		ORDER BY sc.component_type, sc.name`, s.ID)
	if err != nil {
		return payroll.SalaryStructure{}, err
	}
	defer rows.Close()

	s.Lines = make([]payroll.SalaryStructureLine, 0)
	for rows.Next() {
		var l payroll.SalaryStructureLine
		if err := rows.Scan(
			&l.ID, &l.StructureID, &l.ComponentID, &l.Value,
			&l.ComponentName, &l.ComponentType, &l.CalculationType,
		); err != nil {
			return payroll.SalaryStructure{}, err
		}
		s.Lines = append(s.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return payroll.SalaryStructure{}, err
	}

	return s, nil
}

// ReplaceStructure should run inside a transaction so the line swap is atomic.
func (r *payrollRepository) ReplaceStructure(ctx context.Context, structure payroll.SalaryStructure) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID("salary structure")
	if err != nil {
		return payroll.SalaryStructure{}, err
	}

	var structureID string
	err = q.QueryRow(ctx, `
		INSERT INTO salary_structures (id, employee_id, effective_date, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT ON CONSTRAINT uk_salary_structure_employee
		DO UPDATE SET effective_date = EXCLUDED.effective_date, updated_at = NOW()
		RETURNING id`,
		id, structure.EmployeeID, structure.EffectiveDate,
	).Scan(&structureID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return payroll.SalaryStructure{}, employee.ErrEmployeeNotFound
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to upsert salary structure: %w", err)
	}

	if _, err := q.Exec(ctx, `DELETE FROM salary_structure_components WHERE structure_id = $1`, structureID); err != nil {
		return payroll.SalaryStructure{}, fmt.Errorf("failed to clear structure components: %w", err)
	}

	for _, line := range structure.Lines {
		lineID, err := newID("structure line")
		if err != nil {
			return payroll.SalaryStructure{}, err
		}
		_, err = q.Exec(ctx, `
			INSERT INTO salary_structure_components (id, structure_id, component_id, value)
			VALUES ($1, $2, $3, $4)`,
			lineID, structureID, line.ComponentID, line.Value,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return payroll.SalaryStructure{}, payroll.ErrSalaryComponentNotFound
			}
			return payroll.SalaryStructure{}, fmt.Errorf("failed to insert structure component: %w", err)
		}
	}

	return r.GetStructureByEmployee(ctx, structure.EmployeeID)
}

// ==================== TAX SLABS ====================

func (r *payrollRepository) ListTaxSlabs(ctx context.Context) ([]payroll.TaxSlab, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, min_income, max_income, rate_percent, created_at
		FROM tax_slabs
		ORDER BY min_income`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slabs := make([]payroll.TaxSlab, 0)
	for rows.Next() {
		var s payroll.TaxSlab
		if err := rows.Scan(&s.ID, &s.MinIncome, &s.MaxIncome, &s.RatePercent, &s.CreatedAt); err != nil {
			return nil, err
		}
		slabs = append(slabs, s)
	}
	return slabs, rows.Err()
}

// ReplaceTaxSlabs should run inside a transaction so readers never see a partial table.
func (r *payrollRepository) ReplaceTaxSlabs(ctx context.Context, slabs []payroll.TaxSlab) ([]payroll.TaxSlab, error) {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM tax_slabs`); err != nil {
		return nil, fmt.Errorf("failed to clear tax slabs: %w", err)
	}

	for _, s := range slabs {
		id, err := newID("tax slab")
		if err != nil {
			return nil, err
		}
		_, err = q.Exec(ctx, `
			INSERT INTO tax_slabs (id, min_income, max_income, rate_percent, created_at)
			VALUES ($1, $2, $3, $4, NOW())`,
			id, s.MinIncome, s.MaxIncome, s.RatePercent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert tax slab: %w", err)
		}
	}

	return r.ListTaxSlabs(ctx)
}

// ==================== PAYROLL RUNS ====================

const runColumns = `id, period_month, status, created_by, processed_at, processed_count, skipped_count, failures, created_at, updated_at`

func scanRun(row pgx.Row) (payroll.PayrollRun, error) {
	var run payroll.PayrollRun
	var failures []byte
	err := row.Scan(
		&run.ID, &run.PeriodMonth, &run.Status, &run.CreatedBy, &run.ProcessedAt,
		&run.Processed, &run.Skipped, &failures, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return payroll.PayrollRun{}, err
	}
	if err := json.Unmarshal(failures, &run.Failures); err != nil {
		return payroll.PayrollRun{}, fmt.Errorf("failed to decode payroll run failures: %w", err)
	}
	return run, nil
}

func (r *payrollRepository) CreateRun(ctx context.Context, run payroll.PayrollRun) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID("payroll run")
	if err != nil {
		return payroll.PayrollRun{}, err
	}

	query := `
		INSERT INTO payroll_runs (id, period_month, status, created_by, created_at, updated_at)
		VALUES ($1, $2, 'draft', $3, NOW(), NOW())
		RETURNING ` + runColumns

	created, err := scanRun(q.QueryRow(ctx, query, id, run.PeriodMonth, run.CreatedBy))
	if err != nil {
		if isUniqueViolation(err, "uk_payroll_run_month") {
			return payroll.PayrollRun{}, payroll.ErrPayrollRunExists
		}
		return payroll.PayrollRun{}, fmt.Errorf("failed to create payroll run: %w", err)
	}
	return created, nil
}

func (r *payrollRepository) GetRunByID(ctx context.Context, id string) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	run, err := scanRun(q.QueryRow(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRun{}, payroll.ErrPayrollRunNotFound
		}
		return payroll.PayrollRun{}, err
	}
	return run, nil
}

func (r *payrollRepository) ListRuns(ctx context.Context, filter payroll.PayrollRunFilter) ([]payroll.PayrollRun, int64, error) {
	q := GetQuerier(ctx, r.db)

	var total int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payroll_runs WHERE ($1::text IS NULL OR status = $1)`, filter.Status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll runs: %w", err)
	}

	query := `
		SELECT ` + runColumns + `
		FROM payroll_runs
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY period_month DESC
		LIMIT $2 OFFSET $3`

	rows, err := q.Query(ctx, query, filter.Status, filter.Limit, (filter.Page-1)*filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	runs := make([]payroll.PayrollRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

func (r *payrollRepository) MarkRunProcessing(ctx context.Context, id string) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs
		SET status = 'processing', updated_at = NOW()
		WHERE id = $1 AND status <> 'completed'
		RETURNING ` + runColumns

	run, err := scanRun(q.QueryRow(ctx, query, id))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRun{}, fmt.Errorf("failed to mark payroll run processing: %w", err)
		}
		if _, getErr := r.GetRunByID(ctx, id); getErr != nil {
			return payroll.PayrollRun{}, getErr
		}
		return payroll.PayrollRun{}, payroll.ErrPayrollRunCompleted
	}
	return run, nil
}

func (r *payrollRepository) CompleteRun(ctx context.Context, report payroll.RunReport) error {
	q := GetQuerier(ctx, r.db)

	failures := report.Failed
	if failures == nil {
		failures = []payroll.EmployeeFailure{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("failed to encode payroll run failures: %w", err)
	}

	tag, err := q.Exec(ctx, `
		UPDATE payroll_runs
		SET status = 'completed', processed_at = NOW(), processed_count = $2,
			skipped_count = $3, failures = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`,
		report.RunID, report.Processed, report.Skipped, failuresJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to complete payroll run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollRunCompleted
	}
	return nil
}

// TouchRun bumps updated_at on a processing run so the stall sweep leaves it alone.
func (r *payrollRepository) TouchRun(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `UPDATE payroll_runs SET updated_at = NOW() WHERE id = $1 AND status = 'processing'`, id); err != nil {
		return fmt.Errorf("failed to touch payroll run: %w", err)
	}
	return nil
}

func (r *payrollRepository) ListStalledRuns(ctx context.Context, idleSince time.Time) ([]payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+runColumns+`
		FROM payroll_runs
		WHERE status = 'processing' AND updated_at < $1
		ORDER BY updated_at`, idleSince)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]payroll.PayrollRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ==================== PAYSLIPS ====================

const payslipColumns = `p.id, p.payroll_run_id, p.employee_id, p.base_salary, p.gross_salary, p.total_deductions,
	p.tax_deduction, p.net_salary, p.earnings_detail, p.deductions_detail, p.created_at`

func scanPayslip(row pgx.Row, joined bool) (payroll.Payslip, error) {
	var p payroll.Payslip
	var earningsBytes, deductionsBytes []byte
	dest := []any{
		&p.ID, &p.PayrollRunID, &p.EmployeeID, &p.BaseSalary, &p.GrossSalary, &p.TotalDeductions,
		&p.TaxDeduction, &p.NetSalary, &earningsBytes, &deductionsBytes, &p.CreatedAt,
	}
	if joined {
		dest = append(dest, &p.EmployeeName, &p.PeriodMonth)
	}
	if err := row.Scan(dest...); err != nil {
		return payroll.Payslip{}, err
	}
	if err := json.Unmarshal(earningsBytes, &p.EarningsDetail); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to decode payslip earnings: %w", err)
	}
	if err := json.Unmarshal(deductionsBytes, &p.DeductionsDetail); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to decode payslip deductions: %w", err)
	}
	return p, nil
}

func (r *payrollRepository) CountPayslipsByRun(ctx context.Context, runID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payslips WHERE payroll_run_id = $1`, runID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count payslips: %w", err)
	}
	return count, nil
}

func (r *payrollRepository) CreatePayslip(ctx context.Context, payslip payroll.Payslip) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID("payslip")
	if err != nil {
		return payroll.Payslip{}, err
	}

	earningsJSON, err := json.Marshal(payslip.EarningsDetail)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to encode payslip earnings: %w", err)
	}
	deductionsJSON, err := json.Marshal(payslip.DeductionsDetail)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to encode payslip deductions: %w", err)
	}

	query := `
		INSERT INTO payslips AS p (id, payroll_run_id, employee_id, base_salary, gross_salary, total_deductions,
			tax_deduction, net_salary, earnings_detail, deductions_detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING ` + payslipColumns

	created, err := scanPayslip(q.QueryRow(ctx, query,
		id, payslip.PayrollRunID, payslip.EmployeeID, payslip.BaseSalary, payslip.GrossSalary,
		payslip.TotalDeductions, payslip.TaxDeduction, payslip.NetSalary, earningsJSON, deductionsJSON,
	), false)
	if err != nil {
		if isUniqueViolation(err, "uk_payslip_run_employee") {
			return payroll.Payslip{}, payroll.ErrPayslipAlreadyExists
		}
		return payroll.Payslip{}, fmt.Errorf("failed to create payslip: %w", err)
	}
	return created, nil
}

const payslipJoinedSelect = `
	SELECT ` + payslipColumns + `, e.full_name, pr.period_month
	FROM payslips p
	JOIN employees e ON e.id = p.employee_id
	JOIN payroll_runs pr ON pr.id = p.payroll_run_id`

func (r *payrollRepository) GetPayslipByID(ctx context.Context, id string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPayslip(q.QueryRow(ctx, payslipJoinedSelect+` WHERE p.id = $1`, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, err
	}
	return p, nil
}

func (r *payrollRepository) ListPayslipsByRun(ctx context.Context, runID string) ([]payroll.Payslip, error) {
	return r.listPayslips(ctx, payslipJoinedSelect+` WHERE p.payroll_run_id = $1 ORDER BY e.full_name`, runID)
}

func (r *payrollRepository) ListPayslipsByEmployee(ctx context.Context, employeeID string) ([]payroll.Payslip, error) {
	return r.listPayslips(ctx, payslipJoinedSelect+` WHERE p.employee_id = $1 ORDER BY pr.period_month DESC`, employeeID)
}

func (r *payrollRepository) listPayslips(ctx context.Context, query string, arg string) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payslips := make([]payroll.Payslip, 0)
	for rows.Next() {
		p, err := scanPayslip(rows, true)
		if err != nil {
			return nil, err
		}
		payslips = append(payslips, p)
	}
	return payslips, rows.Err()
}
