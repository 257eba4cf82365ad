package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code.
type Currency string

// Currencies commonly used by South African small businesses.
const (
	CurrencyZAR Currency = "ZAR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyBWP Currency = "BWP"
	CurrencyNAD Currency = "NAD"
	CurrencyMZN Currency = "MZN"
	CurrencyJPY Currency = "JPY"
)

// minorUnits maps currencies to the number of decimal places of their
// smallest unit. Currencies not listed use two decimal places.
var minorUnits = map[Currency]int32{
	CurrencyJPY: 0,
}

// MinorUnits returns the number of decimal places for the currency.
func (c Currency) MinorUnits() int32 {
	if units, ok := minorUnits[c]; ok {
		return units
	}
	return 2
}

// Money is an immutable monetary amount in a single currency.
// All arithmetic returns new values and rounds results to the currency's
// minor unit using round-half-away-from-zero.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a Money value, rounding the amount to the currency's
// minor unit.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if err := ValidateCurrency(string(currency)); err != nil {
		return Money{}, err
	}

	return Money{
		amount:   amount.Round(currency.MinorUnits()),
		currency: currency,
	}, nil
}

// NewMoneyFromString parses a decimal string into a Money value.
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmountFormat, amount)
	}

	return NewMoney(d, currency)
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code.
func (m Money) Currency() Currency {
	return m.currency
}

// Add returns the sum of two amounts in the same currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}

	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns the difference of two amounts in the same currency.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}

	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Multiply scales the amount by a factor, rounding the result.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{
		amount:   m.amount.Mul(factor).Round(m.currency.MinorUnits()),
		currency: m.currency,
	}
}

// Divide divides the amount by a divisor, rounding the result.
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrDivisionByZero
	}

	return Money{
		amount:   m.amount.Div(divisor).Round(m.currency.MinorUnits()),
		currency: m.currency,
	}, nil
}

// Cmp compares two amounts in the same currency.
// Returns -1, 0 or 1 like decimal.Cmp.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.checkCurrency(other); err != nil {
		return 0, err
	}

	return m.amount.Cmp(other.amount), nil
}

// Equal reports whether amount and currency both match.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// String formats the amount with its currency, e.g. "123.45 ZAR".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.currency.MinorUnits()), m.currency)
}

func (m Money) checkCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

// Side is the polarity of a signed amount in double-entry bookkeeping.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// IsValid checks the side is one of the two polarities.
func (s Side) IsValid() bool {
	return s == SideDebit || s == SideCredit
}

// SignedMoney is a strictly positive amount tagged with a debit or credit
// polarity. Journal lines carry SignedMoney; reversals flip the polarity.
type SignedMoney struct {
	amount   decimal.Decimal
	currency Currency
	side     Side
}

// NewSignedMoney creates a SignedMoney value. The amount must be positive;
// direction is expressed through the side, never through the sign.
func NewSignedMoney(amount decimal.Decimal, currency Currency, side Side) (SignedMoney, error) {
	if err := ValidateCurrency(string(currency)); err != nil {
		return SignedMoney{}, err
	}

	if !side.IsValid() {
		return SignedMoney{}, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return SignedMoney{}, ErrInvalidAmount
	}

	return SignedMoney{
		amount:   amount.Round(currency.MinorUnits()),
		currency: currency,
		side:     side,
	}, nil
}

// NewDebit creates a debit-polarity amount.
func NewDebit(amount decimal.Decimal, currency Currency) (SignedMoney, error) {
	return NewSignedMoney(amount, currency, SideDebit)
}

// NewCredit creates a credit-polarity amount.
func NewCredit(amount decimal.Decimal, currency Currency) (SignedMoney, error) {
	return NewSignedMoney(amount, currency, SideCredit)
}

// Amount returns the positive decimal amount.
func (s SignedMoney) Amount() decimal.Decimal {
	return s.amount
}

// Currency returns the currency code.
func (s SignedMoney) Currency() Currency {
	return s.currency
}

// Side returns the polarity.
func (s SignedMoney) Side() Side {
	return s.side
}

// IsDebit reports whether the polarity is debit.
func (s SignedMoney) IsDebit() bool {
	return s.side == SideDebit
}

// IsCredit reports whether the polarity is credit.
func (s SignedMoney) IsCredit() bool {
	return s.side == SideCredit
}

// Negate returns the same amount with the polarity flipped.
func (s SignedMoney) Negate() SignedMoney {
	flipped := SideDebit
	if s.side == SideDebit {
		flipped = SideCredit
	}

	return SignedMoney{amount: s.amount, currency: s.currency, side: flipped}
}

// ToMoney converts to a plain Money value: debits are positive, credits
// negative.
func (s SignedMoney) ToMoney() Money {
	amount := s.amount
	if s.side == SideCredit {
		amount = amount.Neg()
	}

	return Money{amount: amount, currency: s.currency}
}

// MoneyValue returns the unsigned amount as Money.
func (s SignedMoney) MoneyValue() Money {
	return Money{amount: s.amount, currency: s.currency}
}

// Equal reports whether amount, currency and side all match.
func (s SignedMoney) Equal(other SignedMoney) bool {
	return s.currency == other.currency && s.side == other.side && s.amount.Equal(other.amount)
}

// String formats the amount with currency and polarity, e.g. "100.00 ZAR debit".
func (s SignedMoney) String() string {
	return fmt.Sprintf("%s %s %s", s.amount.StringFixed(s.currency.MinorUnits()), s.currency, s.side)
}
