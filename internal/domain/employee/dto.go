package employee

import (
	"strings"

	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	DepartmentID  *string `json:"department_id,omitempty"`
	DesignationID *string `json:"designation_id,omitempty"`
	HireDate      string  `json:"hire_date"`
	BaseSalary    *string `json:"base_salary,omitempty"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.FullName) {
		errs.Add("full_name", "full_name is required")
	} else if len(r.FullName) > 255 {
		errs.Add("full_name", "full_name must not exceed 255 characters")
	}

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if validator.IsEmpty(r.Email) {
		errs.Add("email", "email is required")
	} else if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "invalid email format")
	}

	if r.DepartmentID != nil && !validator.IsValidUUID(*r.DepartmentID) {
		errs.Add("department_id", "department_id must be a valid UUID")
	}
	if r.DesignationID != nil && !validator.IsValidUUID(*r.DesignationID) {
		errs.Add("designation_id", "designation_id must be a valid UUID")
	}

	if validator.IsEmpty(r.HireDate) {
		errs.Add("hire_date", "hire_date is required")
	} else if _, ok := validator.IsValidDate(r.HireDate); !ok {
		errs.Add("hire_date", "hire_date must be in YYYY-MM-DD format")
	}

	if r.BaseSalary != nil {
		salary, ok := validator.ParseDecimal(*r.BaseSalary)
		if !ok {
			errs.Add("base_salary", "base_salary must be a decimal number")
		} else if salary.IsNegative() {
			errs.Add("base_salary", "base_salary must not be negative")
		} else if !validator.HasMaxPlaces(salary, 2) {
			errs.Add("base_salary", "base_salary must have at most 2 decimal places")
		}
	}

	return errs.Err()
}

type EmployeeFilter struct {
	Search       *string
	IsActive     *bool
	DepartmentID *string
	Page         int
	Limit        int
}

func (f EmployeeFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.DepartmentID != nil && !validator.IsValidUUID(*f.DepartmentID) {
		errs.Add("department_id", "department_id must be a valid UUID")
	}
	return errs.Err()
}

type EmployeeResponse struct {
	ID               string  `json:"id"`
	FullName         string  `json:"full_name"`
	Email            string  `json:"email"`
	DepartmentID     *string `json:"department_id,omitempty"`
	DepartmentName   *string `json:"department_name,omitempty"`
	DesignationID    *string `json:"designation_id,omitempty"`
	DesignationTitle *string `json:"designation_title,omitempty"`
	HireDate         string  `json:"hire_date"`
	BaseSalary       *string `json:"base_salary,omitempty"`
	IsActive         bool    `json:"is_active"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

type ListEmployeeResponse struct {
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
	Employees  []EmployeeResponse `json:"employees"`
}
