package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID            string
	FullName      string
	Email         string
	DepartmentID  *string
	DesignationID *string
	HireDate      time.Time
	BaseSalary    *decimal.Decimal
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Joined
	DepartmentName   *string
	DesignationTitle *string
}

// HasBaseSalary reports whether a positive base salary is configured.
func (e Employee) HasBaseSalary() bool {
	return e.BaseSalary != nil && e.BaseSalary.IsPositive()
}
