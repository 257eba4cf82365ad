package domain

import "time"

// Event types
const (
	EventTypeJournalPosted    = "journal.posted"
	EventTypeJournalReversed  = "journal.reversed"
	EventTypeInvoicePaid      = "invoice.paid"
	EventTypeInvoicePartPaid  = "invoice.partially_paid"
	EventTypeBillPaid         = "bill.paid"
	EventTypeBillPartPaid     = "bill.partially_paid"
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentRefunded  = "payment.refunded"
	EventTypeDocumentOverdue  = "document.overdue"
)

// Aggregate types
const (
	AggregateTypeJournal  = "journal"
	AggregateTypeDocument = "document"
	AggregateTypePayment  = "payment"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// JournalPostedEvent payload
type JournalPostedEvent struct {
	JournalID   string `json:"journal_id"`
	Number      string `json:"number"`
	TotalDebit  string `json:"total_debit"`
	TotalCredit string `json:"total_credit"`
	Currency    string `json:"currency"`
	PostedAt    string `json:"posted_at"`
}

// JournalReversedEvent payload
type JournalReversedEvent struct {
	ReversalJournalID string `json:"reversal_journal_id"`
	OriginalJournalID string `json:"original_journal_id"`
	TotalDebit        string `json:"total_debit"`
	Currency          string `json:"currency"`
}

// DocumentPaidEvent payload, used for both full and partial payment.
type DocumentPaidEvent struct {
	DocumentID  string `json:"document_id"`
	Kind        string `json:"kind"`
	Number      string `json:"number"`
	PaidAmount  string `json:"paid_amount"`
	Outstanding string `json:"outstanding_amount"`
	Currency    string `json:"currency"`
}

// PaymentCompletedEvent payload
type PaymentCompletedEvent struct {
	PaymentID      string `json:"payment_id"`
	Number         string `json:"number"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	TotalAllocated string `json:"total_allocated"`
}

// PaymentRefundedEvent payload
type PaymentRefundedEvent struct {
	RefundPaymentID   string `json:"refund_payment_id"`
	OriginalPaymentID string `json:"original_payment_id"`
	Amount            string `json:"amount"`
	Reason            string `json:"reason"`
}

// DocumentOverdueEvent payload
type DocumentOverdueEvent struct {
	DocumentID  string `json:"document_id"`
	Kind        string `json:"kind"`
	Number      string `json:"number"`
	DueDate     string `json:"due_date"`
	Outstanding string `json:"outstanding_amount"`
}
