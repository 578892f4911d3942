package payroll

import (
	"fmt"
	"slices"

	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SortSlabs orders slabs by ascending MinIncome in place.
func SortSlabs(slabs []TaxSlab) {
	slices.SortStableFunc(slabs, func(a, b TaxSlab) int {
		return a.MinIncome.Cmp(b.MinIncome)
	})
}

// CalculateTax applies progressive slabs to income. Income equal to a slab's
// MinIncome belongs to the slab below it. The result is rounded half away from
// zero to 2 places.
func CalculateTax(income decimal.Decimal, slabs []TaxSlab) decimal.Decimal {
	ordered := slices.Clone(slabs)
	SortSlabs(ordered)

	tax := decimal.Zero
	for _, slab := range ordered {
		if income.LessThanOrEqual(slab.MinIncome) {
			continue
		}
		upper := income
		if slab.MaxIncome != nil && slab.MaxIncome.LessThan(income) {
			upper = *slab.MaxIncome
		}
		chunk := upper.Sub(slab.MinIncome)
		if chunk.IsPositive() {
			tax = tax.Add(chunk.Mul(slab.RatePercent).Shift(-2))
		}
	}
	return tax.Round(2)
}

// ValidateSlabs checks that slabs form one contiguous, non-overlapping ladder
// in which only the top slab may be unbounded. slabs must already be sorted.
func ValidateSlabs(slabs []TaxSlab) error {
	var errs validator.ValidationErrors

	if len(slabs) == 0 {
		errs.Add("slabs", "at least one tax slab is required")
		return errs
	}

	for i, slab := range slabs {
		field := fmt.Sprintf("slabs[%d]", i)

		if slab.MinIncome.IsNegative() {
			errs.Add(field+".min_income", "min_income must not be negative")
		}
		if slab.MaxIncome != nil && !slab.MaxIncome.GreaterThan(slab.MinIncome) {
			errs.Add(field+".max_income", "max_income must be greater than min_income")
		}
		if slab.MaxIncome == nil && i != len(slabs)-1 {
			errs.Add(field+".max_income", "only the highest slab may be unbounded")
		}
		if slab.RatePercent.IsNegative() || slab.RatePercent.GreaterThan(hundred) {
			errs.Add(field+".rate_percent", "rate_percent must be between 0 and 100")
		}

		if i > 0 {
			prev := slabs[i-1]
			if prev.MaxIncome != nil && !prev.MaxIncome.Equal(slab.MinIncome) {
				if prev.MaxIncome.GreaterThan(slab.MinIncome) {
					errs.Add(field+".min_income", "slab overlaps the previous slab")
				} else {
					errs.Add(field+".min_income", "slab leaves a gap after the previous slab")
				}
			}
			if slab.MinIncome.Equal(prev.MinIncome) {
				errs.Add(field+".min_income", "duplicate min_income")
			}
		}
	}

	return errs.Err()
}
