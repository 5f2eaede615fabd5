package model

import (
    "fmt"
    "math"
    "strconv"
    "strings"
)

// MaxAmount is the largest value a DECIMAL(12,2) amount column holds.
const MaxAmount = 9999999999.99

// Pricing is the amount breakdown supplied by the caller at booking time.
// The record only holds data: no field is computed from the others.  The
// three required amounts are pointers so that a missing value can be told
// apart from an explicit 0.
type Pricing struct {
    PackagePrice *float64 `json:"packagePrice" validate:"required,min=0"`
    ExtraCharges float64  `json:"extraCharges" validate:"min=0"`
    Discount     float64  `json:"discount" validate:"min=0"`
    TaxAmount    float64  `json:"taxAmount" validate:"min=0"`
    TotalAmount  *float64 `json:"totalAmount" validate:"required,min=0"`
    FinalAmount  *float64 `json:"finalAmount" validate:"required,min=0"`
}

// amountTolerance absorbs float rounding on two-decimal currency values.
const amountTolerance = 0.005

// ExpectedTotal returns packagePrice + extraCharges.
func (p Pricing) ExpectedTotal() float64 {
    return Amount(p.PackagePrice) + p.ExtraCharges
}

// ExpectedFinal returns packagePrice + extraCharges + taxAmount - discount.
func (p Pricing) ExpectedFinal() float64 {
    return p.ExpectedTotal() + p.TaxAmount - p.Discount
}

// Divergence reports, as human readable warnings, where the caller supplied
// totals do not match the sum of their components.  The amounts are never
// corrected; callers surface the warnings and keep the record as is.
func (p Pricing) Divergence() []string {
    if p.PackagePrice == nil {
        return nil
    }
    var out []string
    if p.TotalAmount != nil && !sameAmount(*p.TotalAmount, p.ExpectedTotal()) {
        out = append(out, fmt.Sprintf(
            "totalAmount %.2f differs from packagePrice + extraCharges = %.2f",
            *p.TotalAmount, p.ExpectedTotal()))
    }
    if p.FinalAmount != nil && !sameAmount(*p.FinalAmount, p.ExpectedFinal()) {
        out = append(out, fmt.Sprintf(
            "finalAmount %.2f differs from packagePrice + extraCharges + taxAmount - discount = %.2f",
            *p.FinalAmount, p.ExpectedFinal()))
    }
    return out
}

// checkAmounts adds a violation for every supplied amount that the
// DECIMAL(12,2) columns would round or reject.
func (p Pricing) checkAmounts(errs *ValidationErrors) {
    checkAmount(errs, "pricing.packagePrice", p.PackagePrice)
    checkAmount(errs, "pricing.extraCharges", &p.ExtraCharges)
    checkAmount(errs, "pricing.discount", &p.Discount)
    checkAmount(errs, "pricing.taxAmount", &p.TaxAmount)
    checkAmount(errs, "pricing.totalAmount", p.TotalAmount)
    checkAmount(errs, "pricing.finalAmount", p.FinalAmount)
}

func checkAmount(errs *ValidationErrors, field string, v *float64) {
    if v == nil {
        return
    }
    if math.Abs(*v) > MaxAmount || math.IsNaN(*v) {
        errs.Add(field, "max", ruleMessage("max", strconv.FormatFloat(MaxAmount, 'f', 2, 64)))
        return
    }
    // The shortest representation is the decimal the caller sent.
    s := strconv.FormatFloat(*v, 'f', -1, 64)
    if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 2 {
        errs.Add(field, "decimals", ruleMessage("decimals", "2"))
    }
}

func sameAmount(a, b float64) bool { return math.Abs(a-b) <= amountTolerance }

// Amount dereferences an optional amount, treating nil as 0.
func Amount(v *float64) float64 {
    if v == nil {
        return 0
    }
    return *v
}

// Float64 returns a pointer to v.  Handy for building Pricing literals.
func Float64(v float64) *float64 { return &v }
