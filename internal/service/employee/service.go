package employee

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
)

type EmployeeServiceImpl struct {
	employeeRepo employee.EmployeeRepository
}

func NewEmployeeService(employeeRepo employee.EmployeeRepository) employee.EmployeeService {
	return &EmployeeServiceImpl{
		employeeRepo: employeeRepo,
	}
}

// Helper function to map Employee to EmployeeResponse
func mapEmployeeToResponse(emp employee.Employee) employee.EmployeeResponse {
	var baseSalary *string
	if emp.BaseSalary != nil {
		s := emp.BaseSalary.StringFixed(2)
		baseSalary = &s
	}

	return employee.EmployeeResponse{
		ID:               emp.ID,
		FullName:         emp.FullName,
		Email:            emp.Email,
		DepartmentID:     emp.DepartmentID,
		DepartmentName:   emp.DepartmentName,
		DesignationID:    emp.DesignationID,
		DesignationTitle: emp.DesignationTitle,
		HireDate:         emp.HireDate.Format("2006-01-02"),
		BaseSalary:       baseSalary,
		IsActive:         emp.IsActive,
		CreatedAt:        emp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        emp.UpdatedAt.Format(time.RFC3339),
	}
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, caller user.Caller, id string) (employee.EmployeeResponse, error) {
	if !caller.Can(user.PermissionEmployeeViewAll) && !caller.OwnsEmployee(id) {
		return employee.EmployeeResponse{}, employee.ErrUnauthorized
	}

	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return mapEmployeeToResponse(emp), nil
}

// CreateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, caller user.Caller, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if !caller.Can(user.PermissionEmployeeManage) {
		return employee.EmployeeResponse{}, employee.ErrUnauthorized
	}

	hireDate, _ := validator.IsValidDate(req.HireDate)
	newEmployee := employee.Employee{
		FullName:      req.FullName,
		Email:         req.Email,
		DepartmentID:  req.DepartmentID,
		DesignationID: req.DesignationID,
		HireDate:      hireDate,
	}
	if req.BaseSalary != nil {
		salary, _ := validator.ParseDecimal(*req.BaseSalary)
		newEmployee.BaseSalary = &salary
	}

	created, err := s.employeeRepo.Create(ctx, newEmployee)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("employee created", "employee_id", created.ID, "created_by", caller.UserID)
	return mapEmployeeToResponse(created), nil
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context, caller user.Caller, filter employee.EmployeeFilter) (employee.ListEmployeeResponse, error) {
	if !caller.Can(user.PermissionEmployeeViewAll) {
		return employee.ListEmployeeResponse{}, employee.ErrUnauthorized
	}
	if err := filter.Validate(); err != nil {
		return employee.ListEmployeeResponse{}, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	employees, total, err := s.employeeRepo.List(ctx, filter)
	if err != nil {
		return employee.ListEmployeeResponse{}, err
	}

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		responses = append(responses, mapEmployeeToResponse(emp))
	}

	return employee.ListEmployeeResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Employees:  responses,
	}, nil
}
