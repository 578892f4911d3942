package payroll

import (
	"github.com/shopspring/decimal"
)

// Result is the outcome of one employee's payroll computation.
type Result struct {
	BaseSalary       decimal.Decimal
	Earnings         decimal.Decimal
	Deductions       decimal.Decimal // pre-tax deductions
	GrossSalary      decimal.Decimal
	TaxDeduction     decimal.Decimal
	TotalDeductions  decimal.Decimal // Deductions + TaxDeduction
	NetSalary        decimal.Decimal
	EarningsDetail   map[string]decimal.Decimal
	DeductionsDetail map[string]decimal.Decimal
}

// ResolveComponent turns a structure line into an absolute amount.
// Percentage lines are taken against base. No rounding is applied.
func ResolveComponent(base decimal.Decimal, line SalaryStructureLine) (decimal.Decimal, error) {
	switch line.CalculationType {
	case CalculationPercentage:
		return base.Mul(line.Value).Shift(-2), nil
	case CalculationFixed:
		return line.Value, nil
	default:
		return decimal.Zero, NewConfigurationError(ErrUnknownCalculationType, string(line.CalculationType))
	}
}

// Calculate computes gross, tax and net pay from a base salary, structure lines
// and tax slabs. It is pure; persisting the result is the caller's job.
func Calculate(base decimal.Decimal, lines []SalaryStructureLine, slabs []TaxSlab) (Result, error) {
	result := Result{
		BaseSalary:       base,
		Earnings:         decimal.Zero,
		Deductions:       decimal.Zero,
		EarningsDetail:   make(map[string]decimal.Decimal),
		DeductionsDetail: make(map[string]decimal.Decimal),
	}

	for _, line := range lines {
		amount, err := ResolveComponent(base, line)
		if err != nil {
			return Result{}, err
		}

		switch line.ComponentType {
		case ComponentTypeEarning:
			result.Earnings = result.Earnings.Add(amount)
			result.EarningsDetail[line.ComponentName] = result.EarningsDetail[line.ComponentName].Add(amount)
		case ComponentTypeDeduction:
			result.Deductions = result.Deductions.Add(amount)
			result.DeductionsDetail[line.ComponentName] = result.DeductionsDetail[line.ComponentName].Add(amount)
		default:
			return Result{}, NewConfigurationError(ErrUnknownComponentType, string(line.ComponentType))
		}
	}

	result.GrossSalary = base.Add(result.Earnings).Round(2)
	result.TaxDeduction = CalculateTax(result.GrossSalary, slabs)
	result.TotalDeductions = result.Deductions.Add(result.TaxDeduction).Round(2)
	result.NetSalary = result.GrossSalary.Sub(result.TotalDeductions).Round(2)

	for name, amount := range result.EarningsDetail {
		result.EarningsDetail[name] = amount.Round(2)
	}
	for name, amount := range result.DeductionsDetail {
		result.DeductionsDetail[name] = amount.Round(2)
	}

	return result, nil
}
