package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StandardVATPercentage is the South African standard VAT rate.
var StandardVATPercentage = decimal.NewFromInt(15)

// TaxRate is a flat percentage applied to a monetary base.
type TaxRate struct {
	percentage decimal.Decimal
}

// NewTaxRate creates a TaxRate. The percentage must be within [0, 100].
func NewTaxRate(percentage decimal.Decimal) (TaxRate, error) {
	if percentage.IsNegative() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return TaxRate{}, fmt.Errorf("%w: got %s", ErrInvalidTaxRate, percentage)
	}

	return TaxRate{percentage: percentage}, nil
}

// StandardVAT returns the standard 15% VAT rate.
func StandardVAT() TaxRate {
	return TaxRate{percentage: StandardVATPercentage}
}

// ZeroRate returns a 0% tax rate.
func ZeroRate() TaxRate {
	return TaxRate{percentage: decimal.Zero}
}

// Percentage returns the rate's percentage.
func (t TaxRate) Percentage() decimal.Decimal {
	return t.percentage
}

// CalculateTax computes base * percentage / 100, rounded to the base
// currency's minor unit.
func (t TaxRate) CalculateTax(base Money) Money {
	return base.Multiply(t.percentage.Div(decimal.NewFromInt(100)))
}

// IsZero reports whether the rate is 0%.
func (t TaxRate) IsZero() bool {
	return t.percentage.IsZero()
}

// String formats the rate, e.g. "15%".
func (t TaxRate) String() string {
	return t.percentage.String() + "%"
}
