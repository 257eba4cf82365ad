package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItem is a priced line owned by exactly one invoice or bill. Derived
// amounts are always recomputed from the full field set, in a fixed order:
// raw amount, discount, line total, tax, total with tax.
type LineItem struct {
	ID          string
	DocumentID  string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   Money

	// DiscountPercent takes precedence over DiscountAmount: a non-zero
	// percentage re-derives the fixed amount on every recompute.
	DiscountPercent decimal.Decimal
	DiscountAmount  Money

	TaxRate *TaxRate

	// Derived amounts.
	LineTotal    Money
	TaxAmount    Money
	TotalWithTax Money
}

// NewLineItem creates a line item and computes its derived amounts.
func NewLineItem(id, documentID, description string, quantity decimal.Decimal, unitPrice Money) (*LineItem, error) {
	if err := ValidateDescription(description); err != nil {
		return nil, err
	}

	li := &LineItem{
		ID:             id,
		DocumentID:     documentID,
		Description:    description,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		DiscountAmount: ZeroMoney(unitPrice.Currency()),
	}

	if err := li.recalculate(); err != nil {
		return nil, err
	}

	return li, nil
}

// Currency returns the line's currency, taken from its unit price.
func (li *LineItem) Currency() Currency {
	return li.UnitPrice.Currency()
}

// SetQuantity updates the quantity and recomputes derived amounts.
func (li *LineItem) SetQuantity(quantity decimal.Decimal) error {
	return li.apply(func(l *LineItem) { l.Quantity = quantity })
}

// SetUnitPrice updates the unit price and recomputes derived amounts.
// Changing currency re-bases the discount amount into the new currency
// only when it is zero; a non-zero fixed discount in another currency is
// rejected.
func (li *LineItem) SetUnitPrice(unitPrice Money) error {
	return li.apply(func(l *LineItem) {
		if l.DiscountAmount.IsZero() {
			l.DiscountAmount = ZeroMoney(unitPrice.Currency())
		}
		l.UnitPrice = unitPrice
	})
}

// SetDiscountPercent sets a percentage discount and recomputes derived
// amounts. The fixed discount amount is re-derived from the percentage.
func (li *LineItem) SetDiscountPercent(percent decimal.Decimal) error {
	return li.apply(func(l *LineItem) { l.DiscountPercent = percent })
}

// SetDiscountAmount sets a fixed discount and recomputes derived amounts.
// Ignored while a percentage discount is set, per the precedence rule.
func (li *LineItem) SetDiscountAmount(amount Money) error {
	return li.apply(func(l *LineItem) { l.DiscountAmount = amount })
}

// SetTaxRate sets or clears the tax rate and recomputes derived amounts.
func (li *LineItem) SetTaxRate(rate *TaxRate) error {
	return li.apply(func(l *LineItem) { l.TaxRate = rate })
}

// SetDescription updates the description.
func (li *LineItem) SetDescription(description string) error {
	if err := ValidateDescription(description); err != nil {
		return err
	}

	li.Description = description
	return nil
}

// apply runs a mutation on a scratch copy, recomputes, and commits only on
// success so a failed update never leaves the line half-changed.
func (li *LineItem) apply(mutate func(*LineItem)) error {
	scratch := *li
	mutate(&scratch)

	if err := scratch.recalculate(); err != nil {
		return err
	}

	*li = scratch
	return nil
}

// recalculate derives amounts in the fixed order:
//  1. raw = unitPrice * quantity
//  2. discount (percentage re-derives the fixed amount)
//  3. lineTotal = raw - discount
//  4. taxAmount = taxRate(lineTotal)
//  5. totalWithTax = lineTotal + taxAmount
func (li *LineItem) recalculate() error {
	if err := li.validate(); err != nil {
		return err
	}

	raw := li.UnitPrice.Multiply(li.Quantity)

	if li.DiscountPercent.IsPositive() {
		li.DiscountAmount = raw.Multiply(li.DiscountPercent.Div(decimal.NewFromInt(100)))
	}

	if li.DiscountAmount.Amount().GreaterThan(raw.Amount()) {
		return fmt.Errorf("%w: discount %s exceeds line amount %s", ErrInvalidLineItem, li.DiscountAmount, raw)
	}

	lineTotal, err := raw.Subtract(li.DiscountAmount)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidLineItem, err)
	}

	li.LineTotal = lineTotal

	if li.TaxRate != nil {
		li.TaxAmount = li.TaxRate.CalculateTax(lineTotal)
	} else {
		li.TaxAmount = ZeroMoney(li.Currency())
	}

	totalWithTax, err := lineTotal.Add(li.TaxAmount)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidLineItem, err)
	}

	li.TotalWithTax = totalWithTax
	return nil
}

func (li *LineItem) validate() error {
	if li.Quantity.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidLineItem, li.Quantity)
	}

	if li.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price cannot be negative", ErrInvalidLineItem)
	}

	if li.DiscountPercent.IsNegative() || li.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: discount percentage must be between 0 and 100, got %s", ErrInvalidLineItem, li.DiscountPercent)
	}

	if li.DiscountAmount.IsNegative() {
		return fmt.Errorf("%w: discount amount cannot be negative", ErrInvalidLineItem)
	}

	if li.DiscountAmount.Currency() != li.Currency() {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, li.DiscountAmount.Currency(), li.Currency())
	}

	return nil
}
