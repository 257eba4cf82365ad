package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records who did what to which aggregate, and when. Lifecycle
// state is mutated in place, so the audit trail is the only history kept.
type AuditLog struct {
	ID           string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	// Journal actions
	AuditActionJournalCreate  AuditAction = "journal.create"
	AuditActionJournalSubmit  AuditAction = "journal.submit"
	AuditActionJournalApprove AuditAction = "journal.approve"
	AuditActionJournalPost    AuditAction = "journal.post"
	AuditActionJournalReverse AuditAction = "journal.reverse"
	AuditActionJournalCancel  AuditAction = "journal.cancel"

	// Invoice/bill actions
	AuditActionDocumentCreate  AuditAction = "document.create"
	AuditActionDocumentSubmit  AuditAction = "document.submit"
	AuditActionDocumentApprove AuditAction = "document.approve"
	AuditActionDocumentCancel  AuditAction = "document.cancel"

	// Payment actions
	AuditActionPaymentCreate   AuditAction = "payment.create"
	AuditActionPaymentComplete AuditAction = "payment.complete"
	AuditActionPaymentRefund   AuditAction = "payment.refund"

	// Ledger actions
	AuditActionPeriodClose AuditAction = "ledger.period_close"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
