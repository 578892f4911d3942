package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/ems-backend-go/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	testDBOnce sync.Once
	testDB     *database.DB
	testDBErr  error
)

// setupTestDB connects to TEST_DATABASE_URL, applies migrations and empties every table.
// Tests skip when the variable is not set.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	testDBOnce.Do(func() {
		ctx := context.Background()
		testDB, testDBErr = database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 10})
		if testDBErr == nil {
			testDBErr = testDB.Migrate(ctx)
		}
	})
	require.NoError(t, testDBErr)

	truncateAllTables(t, context.Background())
	return testDB
}

func truncateAllTables(t *testing.T, ctx context.Context) {
	t.Helper()

	tables := []string{
		"audit_logs",
		"login_attempts",
		"refresh_tokens",
		"attendance_summaries",
		"attendance_corrections",
		"attendance_logs",
		"payslips",
		"payroll_runs",
		"tax_slabs",
		"salary_structure_components",
		"salary_structures",
		"salary_components",
		"leave_requests",
		"leave_balances",
		"leave_policy_windows",
		"leave_types",
		"users",
		"employees",
		"departments",
		"designations",
	}

	for _, table := range tables {
		_, err := testDB.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "failed to truncate table %s", table)
	}
}

func createTestEmployee(t *testing.T, ctx context.Context, db *database.DB, name string) employee.Employee {
	t.Helper()
	salary := decimal.RequireFromString("5000.00")
	emp, err := postgresql.NewEmployeeRepository(db).Create(ctx, employee.Employee{
		FullName:   name,
		Email:      fmt.Sprintf("%d@example.com", time.Now().UnixNano()),
		HireDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		BaseSalary: &salary,
	})
	require.NoError(t, err)
	return emp
}

func ptr[T any](v T) *T { return &v }
