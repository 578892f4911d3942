package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// ========== REQUESTS ==========

type CreateSalaryComponentRequest struct {
	Name            string  `json:"name"`
	ComponentType   string  `json:"component_type"`
	CalculationType string  `json:"calculation_type"`
	Description     *string `json:"description,omitempty"`
}

func (r *CreateSalaryComponentRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if len(r.Name) > 100 {
		errs.Add("name", "name must not exceed 100 characters")
	}

	r.ComponentType = strings.ToLower(r.ComponentType)
	if !ComponentType(r.ComponentType).IsValid() {
		errs.Add("component_type", "component_type must be earning or deduction")
	}

	r.CalculationType = strings.ToLower(r.CalculationType)
	if !CalculationType(r.CalculationType).IsValid() {
		errs.Add("calculation_type", "calculation_type must be fixed or percentage")
	}

	return errs.Err()
}

type StructureLineRequest struct {
	ComponentID string          `json:"component_id"`
	Value       decimal.Decimal `json:"value"`
}

type ReplaceSalaryStructureRequest struct {
	EmployeeID    string                 `json:"-"`
	EffectiveDate string                 `json:"effective_date"`
	Lines         []StructureLineRequest `json:"components"`
}

func (r *ReplaceSalaryStructureRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if _, ok := validator.IsValidDate(r.EffectiveDate); !ok {
		errs.Add("effective_date", "effective_date must be in YYYY-MM-DD format")
	}

	seen := make(map[string]bool)
	for i, line := range r.Lines {
		field := fmt.Sprintf("components[%d]", i)
		if !validator.IsValidUUID(line.ComponentID) {
			errs.Add(field+".component_id", "component_id must be a valid UUID")
		} else if seen[line.ComponentID] {
			errs.Add(field+".component_id", "component listed more than once")
		}
		seen[line.ComponentID] = true

		if line.Value.IsNegative() {
			errs.Add(field+".value", "value must not be negative")
		} else if !validator.HasMaxPlaces(line.Value, 2) {
			errs.Add(field+".value", "value must have at most 2 decimal places")
		}
	}

	return errs.Err()
}

// EffectiveOn returns the parsed effective date. Call after Validate.
func (r *ReplaceSalaryStructureRequest) EffectiveOn() time.Time {
	t, _ := time.Parse(dateLayout, r.EffectiveDate)
	return t
}

type TaxSlabRequest struct {
	MinIncome   decimal.Decimal  `json:"min_income"`
	MaxIncome   *decimal.Decimal `json:"max_income"`
	RatePercent decimal.Decimal  `json:"rate_percent"`
}

type ReplaceTaxSlabsRequest struct {
	Slabs []TaxSlabRequest `json:"slabs"`
}

// ToSlabs converts the request into slabs ordered by min_income.
func (r *ReplaceTaxSlabsRequest) ToSlabs() []TaxSlab {
	slabs := make([]TaxSlab, 0, len(r.Slabs))
	for _, s := range r.Slabs {
		slabs = append(slabs, TaxSlab{
			MinIncome:   s.MinIncome,
			MaxIncome:   s.MaxIncome,
			RatePercent: s.RatePercent,
		})
	}
	SortSlabs(slabs)
	return slabs
}

type CreatePayrollRunRequest struct {
	Month string `json:"month"` // YYYY-MM
}

func (r *CreatePayrollRunRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidMonth(r.Month) {
		errs.Add("month", "month must be in YYYY-MM format")
	}
	return errs.Err()
}

// Period returns the first day of the requested month. Call after Validate.
func (r *CreatePayrollRunRequest) Period() time.Time {
	t, _ := time.Parse(monthLayout, r.Month)
	return t
}

type PayrollRunFilter struct {
	Status *string
	Page   int
	Limit  int
}

func (f *PayrollRunFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Status != nil {
		switch RunStatus(*f.Status) {
		case RunStatusDraft, RunStatusProcessing, RunStatusCompleted:
		default:
			errs.Add("status", "status must be draft, processing or completed")
		}
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return errs.Err()
}

// ========== RESPONSES ==========

type SalaryComponentResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ComponentType   string  `json:"component_type"`
	CalculationType string  `json:"calculation_type"`
	Description     *string `json:"description,omitempty"`
}

type StructureLineResponse struct {
	ComponentID     string `json:"component_id"`
	ComponentName   string `json:"component_name"`
	ComponentType   string `json:"component_type"`
	CalculationType string `json:"calculation_type"`
	Value           string `json:"value"`
}

type SalaryStructureResponse struct {
	ID            string                  `json:"id"`
	EmployeeID    string                  `json:"employee_id"`
	EffectiveDate string                  `json:"effective_date"`
	Components    []StructureLineResponse `json:"components"`
}

type TaxSlabResponse struct {
	ID          string  `json:"id"`
	MinIncome   string  `json:"min_income"`
	MaxIncome   *string `json:"max_income"`
	RatePercent string  `json:"rate_percent"`
}

type PayrollRunResponse struct {
	ID          string            `json:"id"`
	Month       string            `json:"month"`
	Status      string            `json:"status"`
	ProcessedAt *string           `json:"processed_at,omitempty"`
	Processed   int               `json:"processed"`
	Skipped     int               `json:"skipped"`
	Failed      []EmployeeFailure `json:"failed"`
	CreatedAt   string            `json:"created_at"`
}

type ListPayrollRunResponse struct {
	TotalCount int64                `json:"total_count"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
	Runs       []PayrollRunResponse `json:"runs"`
}

type SubmitPayrollRunResponse struct {
	Run    PayrollRunResponse `json:"run"`
	Queued bool               `json:"queued"`
	Report *RunReport         `json:"report,omitempty"`
}

type PayslipResponse struct {
	ID               string            `json:"id"`
	PayrollRunID     string            `json:"payroll_run_id"`
	EmployeeID       string            `json:"employee_id"`
	EmployeeName     *string           `json:"employee_name,omitempty"`
	Month            *string           `json:"month,omitempty"`
	BaseSalary       string            `json:"base_salary"`
	GrossSalary      string            `json:"gross_salary"`
	TaxDeduction     string            `json:"tax_deduction"`
	TotalDeductions  string            `json:"total_deductions"`
	NetSalary        string            `json:"net_salary"`
	EarningsDetail   map[string]string `json:"earnings_detail"`
	DeductionsDetail map[string]string `json:"deductions_detail"`
	CreatedAt        string            `json:"created_at"`
}

func NewSalaryComponentResponse(c SalaryComponent) SalaryComponentResponse {
	return SalaryComponentResponse{
		ID:              c.ID,
		Name:            c.Name,
		ComponentType:   string(c.ComponentType),
		CalculationType: string(c.CalculationType),
		Description:     c.Description,
	}
}

func NewSalaryStructureResponse(s SalaryStructure) SalaryStructureResponse {
	lines := make([]StructureLineResponse, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, StructureLineResponse{
			ComponentID:     l.ComponentID,
			ComponentName:   l.ComponentName,
			ComponentType:   string(l.ComponentType),
			CalculationType: string(l.CalculationType),
			Value:           l.Value.StringFixed(2),
		})
	}
	return SalaryStructureResponse{
		ID:            s.ID,
		EmployeeID:    s.EmployeeID,
		EffectiveDate: s.EffectiveDate.Format(dateLayout),
		Components:    lines,
	}
}

func NewTaxSlabResponses(slabs []TaxSlab) []TaxSlabResponse {
	result := make([]TaxSlabResponse, 0, len(slabs))
	for _, s := range slabs {
		resp := TaxSlabResponse{
			ID:          s.ID,
			MinIncome:   s.MinIncome.StringFixed(2),
			RatePercent: s.RatePercent.StringFixed(2),
		}
		if s.MaxIncome != nil {
			maxIncome := s.MaxIncome.StringFixed(2)
			resp.MaxIncome = &maxIncome
		}
		result = append(result, resp)
	}
	return result
}

func NewPayrollRunResponse(r PayrollRun) PayrollRunResponse {
	resp := PayrollRunResponse{
		ID:        r.ID,
		Month:     r.PeriodMonth.Format(monthLayout),
		Status:    string(r.Status),
		Processed: r.Processed,
		Skipped:   r.Skipped,
		Failed:    r.Failures,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
	if resp.Failed == nil {
		resp.Failed = []EmployeeFailure{}
	}
	if r.ProcessedAt != nil {
		processedAt := r.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &processedAt
	}
	return resp
}

func NewPayslipResponse(p Payslip) PayslipResponse {
	resp := PayslipResponse{
		ID:               p.ID,
		PayrollRunID:     p.PayrollRunID,
		EmployeeID:       p.EmployeeID,
		EmployeeName:     p.EmployeeName,
		BaseSalary:       p.BaseSalary.StringFixed(2),
		GrossSalary:      p.GrossSalary.StringFixed(2),
		TaxDeduction:     p.TaxDeduction.StringFixed(2),
		TotalDeductions:  p.TotalDeductions.StringFixed(2),
		NetSalary:        p.NetSalary.StringFixed(2),
		EarningsDetail:   fixedMap(p.EarningsDetail),
		DeductionsDetail: fixedMap(p.DeductionsDetail),
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
	if p.PeriodMonth != nil {
		month := p.PeriodMonth.Format(monthLayout)
		resp.Month = &month
	}
	return resp
}

func fixedMap(m map[string]decimal.Decimal) map[string]string {
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = v.StringFixed(2)
	}
	return result
}
