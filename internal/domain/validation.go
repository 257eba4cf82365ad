package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
)

// Validation constants
const (
	MaxDescriptionLength = 500
	MaxReferenceLength   = 64
	MaxDocumentAmount    = "1000000000" // 1 billion
)

// Valid currency codes (ISO 4217). ZAR first: the books of a South African
// SMME are kept in rand; the rest cover common trading partners.
var validCurrencies = map[Currency]bool{
	CurrencyZAR: true,
	CurrencyUSD: true,
	CurrencyEUR: true,
	CurrencyGBP: true,
	CurrencyBWP: true,
	CurrencyNAD: true,
	CurrencyMZN: true,
	CurrencyJPY: true,
}

// ValidateCurrency validates a currency code.
func ValidateCurrency(currency string) error {
	if !validCurrencies[Currency(currency)] {
		return fmt.Errorf("%w: %s is not a supported ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateDescription validates a free-text description.
func ValidateDescription(description string) error {
	description = strings.TrimSpace(description)

	if description == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidDescription)
	}

	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}

	return nil
}

// ValidateReference validates an external reference such as a counterparty
// or account identifier.
func ValidateReference(reference string) error {
	reference = strings.TrimSpace(reference)

	if reference == "" {
		return fmt.Errorf("%w: reference cannot be empty", ErrInvalidReference)
	}

	if len(reference) > MaxReferenceLength {
		return fmt.Errorf("%w: reference exceeds %d characters", ErrInvalidReference, MaxReferenceLength)
	}

	return nil
}

// ValidateDocumentAmount bounds a document-level amount.
func ValidateDocumentAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxDocumentAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxDocumentAmount)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
