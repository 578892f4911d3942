package payroll

import "errors"

var (
	ErrSalaryComponentNotFound   = errors.New("salary component not found")
	ErrSalaryComponentNameExists = errors.New("salary component name already exists")
	ErrSalaryStructureNotFound   = errors.New("salary structure not found")
	ErrPayrollRunNotFound        = errors.New("payroll run not found")
	ErrPayrollRunExists          = errors.New("payroll run already exists for this month")
	ErrPayrollRunCompleted       = errors.New("payroll run already completed")
	ErrPayslipNotFound           = errors.New("payslip not found")
	ErrPayslipAlreadyExists      = errors.New("payslip already exists for this run and employee")
	ErrNoEmployeeRecord          = errors.New("caller is not linked to an employee record")

	// Configuration problems, wrapped in *ConfigurationError.
	ErrMissingSalaryStructure = errors.New("employee has no salary structure")
	ErrMissingBaseSalary      = errors.New("employee has no base salary configured")
	ErrUnknownComponentType   = errors.New("unknown component type")
	ErrUnknownCalculationType = errors.New("unknown calculation type")
	ErrNoTaxSlabs             = errors.New("no tax slabs configured")
)

// ConfigurationError reports payroll setup that prevents a computation.
type ConfigurationError struct {
	Err    error
	Detail string
}

func (e *ConfigurationError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Detail
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func NewConfigurationError(err error, detail string) error {
	return &ConfigurationError{Err: err, Detail: detail}
}
