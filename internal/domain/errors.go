package domain

import "errors"

var (
	// Money errors
	ErrCurrencyMismatch    = errors.New("cannot combine amounts in different currencies")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidAmountFormat = errors.New("invalid amount format")
	ErrInvalidSide         = errors.New("polarity must be debit or credit")
	ErrDivisionByZero      = errors.New("cannot divide amount by zero")

	// Tax errors
	ErrInvalidTaxRate = errors.New("tax rate percentage must be between 0 and 100")

	// Line item errors
	ErrInvalidLineItem = errors.New("invalid line item")
	ErrLineNotFound    = errors.New("line item not found")

	// Lifecycle errors
	ErrInvalidTransition = errors.New("invalid status transition")

	// Journal errors
	ErrNotBalanced     = errors.New("journal entry debits do not equal credits")
	ErrTooFewLines     = errors.New("journal entry requires at least two lines")
	ErrAlreadyReversed = errors.New("journal entry has already been reversed")
	ErrJournalNotFound = errors.New("journal entry not found")

	// Invoice/bill errors
	ErrNoLineItems               = errors.New("document requires at least one line item")
	ErrPaymentExceedsOutstanding = errors.New("payment amount exceeds outstanding amount")
	ErrDocumentNotFound          = errors.New("document not found")

	// Payment errors
	ErrAllocationNotFound   = errors.New("payment allocation not found")
	ErrRefundExceedsPayment = errors.New("refund amount exceeds payment amount")
	ErrPaymentNotFound      = errors.New("payment not found")

	// Ledger errors
	ErrAccountNotFound = errors.New("ledger account not found")
	ErrPeriodClosed    = errors.New("ledger period is closed")
)
