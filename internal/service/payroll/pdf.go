package payroll

import (
	"fmt"
	"io"
	"sort"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/payroll"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// renderPayslipPDF writes a one-page A4 payslip to w.
func renderPayslipPDF(p payroll.Payslip, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	if p.EmployeeName != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", *p.EmployeeName))
		pdf.Ln(7)
	}
	if p.PeriodMonth != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Period: %s", p.PeriodMonth.Format("January 2006")))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Payslip ID: %s", p.ID))
	pdf.Ln(10)

	line := func(label string, amount decimal.Decimal) {
		pdf.CellFormat(120, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, amount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
	}

	section("Earnings")
	line("Base salary", p.BaseSalary)
	for _, name := range sortedKeys(p.EarningsDetail) {
		line(name, p.EarningsDetail[name])
	}
	pdf.Ln(3)

	section("Deductions")
	for _, name := range sortedKeys(p.DeductionsDetail) {
		line(name, p.DeductionsDetail[name])
	}
	line("Income tax", p.TaxDeduction)
	pdf.Ln(3)

	section("Summary")
	line("Gross salary", p.GrossSalary)
	line("Total deductions", p.TotalDeductions)
	pdf.SetFont("Helvetica", "B", 12)
	line("Net salary", p.NetSalary)

	return pdf.Output(w)
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
