package department

import (
	"time"

	"github.com/shopspring/decimal"
)

type Department struct {
	ID          string
	Name        string
	Description *string
	ManagerID   *string
	Budget      *decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined
	ManagerName   *string
	EmployeeCount int
}
