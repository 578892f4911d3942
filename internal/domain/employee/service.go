package employee

import (
	"context"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
)

// EmployeeService defines business logic for employee operations
type EmployeeService interface {
	// GetEmployee retrieves a single employee (privileged or the employee itself)
	GetEmployee(ctx context.Context, caller user.Caller, id string) (EmployeeResponse, error)

	// CreateEmployee creates a new employee (privileged only)
	CreateEmployee(ctx context.Context, caller user.Caller, req CreateEmployeeRequest) (EmployeeResponse, error)

	// ListEmployees lists employees with filters (privileged only)
	ListEmployees(ctx context.Context, caller user.Caller, filter EmployeeFilter) (ListEmployeeResponse, error)
}
