package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/ems-backend-go/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestPayslip_WriteOncePerRunAndEmployee(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)

	emp := createTestEmployee(t, ctx, db, "Sam Okafor")
	run, err := repo.CreateRun(ctx, payroll.PayrollRun{PeriodMonth: mustDate(t, "2025-01-01")})
	require.NoError(t, err)

	first := payroll.Payslip{
		PayrollRunID:     run.ID,
		EmployeeID:       emp.ID,
		BaseSalary:       decimal.RequireFromString("5000"),
		GrossSalary:      decimal.RequireFromString("6500"),
		TotalDeductions:  decimal.RequireFromString("350"),
		TaxDeduction:     decimal.RequireFromString("150"),
		NetSalary:        decimal.RequireFromString("6150"),
		EarningsDetail:   map[string]decimal.Decimal{"Housing": decimal.RequireFromString("1000")},
		DeductionsDetail: map[string]decimal.Decimal{"Pension": decimal.RequireFromString("200")},
	}
	created, err := repo.CreatePayslip(ctx, first)
	require.NoError(t, err)

	second := first
	second.NetSalary = decimal.RequireFromString("1")
	second.GrossSalary = decimal.RequireFromString("351")
	_, err = repo.CreatePayslip(ctx, second)
	assert.ErrorIs(t, err, payroll.ErrPayslipAlreadyExists)

	stored, err := repo.GetPayslipByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "6150", stored.NetSalary.String())
	assert.Equal(t, "1000", stored.EarningsDetail["Housing"].String())
	require.NotNil(t, stored.EmployeeName)
	assert.Equal(t, "Sam Okafor", *stored.EmployeeName)
}

func TestPayrollRun_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)

	run, err := repo.CreateRun(ctx, payroll.PayrollRun{PeriodMonth: mustDate(t, "2025-02-01")})
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusDraft, run.Status)

	_, err = repo.CreateRun(ctx, payroll.PayrollRun{PeriodMonth: mustDate(t, "2025-02-01")})
	assert.ErrorIs(t, err, payroll.ErrPayrollRunExists)

	run, err = repo.MarkRunProcessing(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusProcessing, run.Status)

	stalled, err := repo.ListStalledRuns(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, stalled, 1)

	cutoff := time.Now()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, repo.TouchRun(ctx, run.ID))
	stalled, err = repo.ListStalledRuns(ctx, cutoff)
	require.NoError(t, err)
	assert.Empty(t, stalled, "a touched run is not stalled")

	count, err := repo.CountPayslipsByRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	failures := []payroll.EmployeeFailure{{EmployeeID: "e-1", EmployeeName: "Lee", Reason: "employee has no salary structure"}}
	require.NoError(t, repo.CompleteRun(ctx, payroll.RunReport{RunID: run.ID, Processed: 3, Skipped: 1, Failed: failures}))

	done, err := repo.GetRunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusCompleted, done.Status)
	assert.Equal(t, 3, done.Processed)
	assert.Equal(t, failures, done.Failures)
	assert.NotNil(t, done.ProcessedAt)

	_, err = repo.MarkRunProcessing(ctx, run.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollRunCompleted)
	assert.ErrorIs(t, repo.CompleteRun(ctx, payroll.RunReport{RunID: run.ID}), payroll.ErrPayrollRunCompleted)
}

func TestTaxSlabs_Replace(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)

	upper := decimal.RequireFromString("5000")
	_, err := repo.ReplaceTaxSlabs(ctx, []payroll.TaxSlab{
		{MinIncome: decimal.Zero, MaxIncome: &upper, RatePercent: decimal.Zero},
		{MinIncome: upper, RatePercent: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)

	replaced, err := repo.ReplaceTaxSlabs(ctx, []payroll.TaxSlab{
		{MinIncome: decimal.Zero, RatePercent: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	require.Len(t, replaced, 1)

	slabs, err := repo.ListTaxSlabs(ctx)
	require.NoError(t, err)
	require.Len(t, slabs, 1)
	assert.Nil(t, slabs[0].MaxIncome)
	assert.Equal(t, "5", slabs[0].RatePercent.String())
}

func TestSalaryStructure_ReplaceSwapsLines(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)

	emp := createTestEmployee(t, ctx, db, "Ari Novak")
	housing, err := repo.CreateComponent(ctx, payroll.SalaryComponent{Name: "Housing", ComponentType: payroll.ComponentTypeEarning, CalculationType: payroll.CalculationFixed})
	require.NoError(t, err)
	pension, err := repo.CreateComponent(ctx, payroll.SalaryComponent{Name: "Pension", ComponentType: payroll.ComponentTypeDeduction, CalculationType: payroll.CalculationFixed})
	require.NoError(t, err)

	_, err = repo.ReplaceStructure(ctx, payroll.SalaryStructure{
		EmployeeID:    emp.ID,
		EffectiveDate: mustDate(t, "2025-01-01"),
		Lines:         []payroll.SalaryStructureLine{{ComponentID: housing.ID, Value: decimal.NewFromInt(1000)}},
	})
	require.NoError(t, err)

	structure, err := repo.ReplaceStructure(ctx, payroll.SalaryStructure{
		EmployeeID:    emp.ID,
		EffectiveDate: mustDate(t, "2025-02-01"),
		Lines:         []payroll.SalaryStructureLine{{ComponentID: pension.ID, Value: decimal.NewFromInt(200)}},
	})
	require.NoError(t, err)
	require.Len(t, structure.Lines, 1)
	assert.Equal(t, "Pension", structure.Lines[0].ComponentName)
	assert.Equal(t, payroll.ComponentTypeDeduction, structure.Lines[0].ComponentType)

	_, err = repo.CreateComponent(ctx, payroll.SalaryComponent{Name: "Housing", ComponentType: payroll.ComponentTypeEarning, CalculationType: payroll.CalculationFixed})
	assert.ErrorIs(t, err, payroll.ErrSalaryComponentNameExists)
}
