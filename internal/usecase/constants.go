package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// Sequence names for document numbering.
	SequenceJournal = "journal"
	SequenceInvoice = "invoice"
	SequenceBill    = "bill"
	SequencePayment = "payment"
)

// PeriodStart truncates a time to the first day of its month in UTC.
// Ledger balances are kept per account per calendar month.
func PeriodStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
