package department

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type DepartmentRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	ManagerID   *string `json:"manager_id,omitempty"`
	Budget      *string `json:"budget,omitempty"`

	BudgetAmount *decimal.Decimal `json:"-"`
}

func (r *DepartmentRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if len(r.Name) > 100 {
		errs.Add("name", "name must not exceed 100 characters")
	}

	if r.ManagerID != nil && !validator.IsValidUUID(*r.ManagerID) {
		errs.Add("manager_id", "manager_id must be a valid UUID")
	}

	if r.Budget != nil {
		budget, ok := validator.ParseDecimal(*r.Budget)
		switch {
		case !ok:
			errs.Add("budget", "budget must be a decimal number")
		case budget.IsNegative():
			errs.Add("budget", "budget must not be negative")
		case !validator.HasMaxPlaces(budget, 2):
			errs.Add("budget", "budget must have at most 2 decimal places")
		default:
			r.BudgetAmount = &budget
		}
	}

	return errs.Err()
}

type DepartmentResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	ManagerID     *string `json:"manager_id,omitempty"`
	ManagerName   *string `json:"manager_name,omitempty"`
	Budget        *string `json:"budget,omitempty"`
	EmployeeCount int     `json:"employee_count"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func NewDepartmentResponse(d Department) DepartmentResponse {
	resp := DepartmentResponse{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		ManagerID:     d.ManagerID,
		ManagerName:   d.ManagerName,
		EmployeeCount: d.EmployeeCount,
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.Format(time.RFC3339),
	}
	if d.Budget != nil {
		b := d.Budget.StringFixed(2)
		resp.Budget = &b
	}
	return resp
}
