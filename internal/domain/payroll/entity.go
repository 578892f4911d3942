package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComponentType enum
type ComponentType string

const (
	ComponentTypeEarning   ComponentType = "earning"
	ComponentTypeDeduction ComponentType = "deduction"
)

func (c ComponentType) IsValid() bool {
	return c == ComponentTypeEarning || c == ComponentTypeDeduction
}

// CalculationType enum
type CalculationType string

const (
	CalculationFixed      CalculationType = "fixed"
	CalculationPercentage CalculationType = "percentage"
)

func (c CalculationType) IsValid() bool {
	return c == CalculationFixed || c == CalculationPercentage
}

// SalaryComponent - Master salary component
type SalaryComponent struct {
	ID              string
	Name            string
	ComponentType   ComponentType
	CalculationType CalculationType
	Description     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SalaryStructure - Per-employee set of components
type SalaryStructure struct {
	ID            string
	EmployeeID    string
	EffectiveDate time.Time
	Lines         []SalaryStructureLine
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SalaryStructureLine - Component value inside a structure
type SalaryStructureLine struct {
	ID          string
	StructureID string
	ComponentID string
	Value       decimal.Decimal

	// Joined fields
	ComponentName   string
	ComponentType   ComponentType
	CalculationType CalculationType
}

// TaxSlab - Progressive tax bracket. A nil MaxIncome is unbounded.
type TaxSlab struct {
	ID          string
	MinIncome   decimal.Decimal
	MaxIncome   *decimal.Decimal
	RatePercent decimal.Decimal
	CreatedAt   time.Time
}

// RunStatus enum
type RunStatus string

const (
	RunStatusDraft      RunStatus = "draft"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
)

// PayrollRun - One payroll cycle for a month
type PayrollRun struct {
	ID          string
	PeriodMonth time.Time // first day of the month, UTC
	Status      RunStatus
	CreatedBy   *string
	ProcessedAt *time.Time
	Processed   int
	Skipped     int
	Failures    []EmployeeFailure
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EmployeeFailure records why one employee got no payslip in a run.
type EmployeeFailure struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Reason       string `json:"reason"`
}

// RunReport summarises a processed run. Processed counts every payslip the run
// holds, including those written by an earlier interrupted pass. Skipped counts
// employees whose payslip already existed when this pass reached them.
type RunReport struct {
	RunID     string            `json:"run_id"`
	Processed int               `json:"processed"`
	Skipped   int               `json:"skipped"`
	Failed    []EmployeeFailure `json:"failed"`
}

// Payslip - Write-once payroll result for (run, employee)
type Payslip struct {
	ID               string
	PayrollRunID     string
	EmployeeID       string
	BaseSalary       decimal.Decimal
	GrossSalary      decimal.Decimal
	TotalDeductions  decimal.Decimal
	TaxDeduction     decimal.Decimal
	NetSalary        decimal.Decimal
	EarningsDetail   map[string]decimal.Decimal // {"Housing Allowance": 500}
	DeductionsDetail map[string]decimal.Decimal // {"Pension": 200}
	CreatedAt        time.Time

	// Joined fields
	EmployeeName *string
	PeriodMonth  *time.Time
}
