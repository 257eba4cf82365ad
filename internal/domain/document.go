package domain

import (
	"fmt"
	"time"
)

// DocumentKind distinguishes customer invoices from supplier bills. The two
// are structurally identical, so one aggregate serves both.
type DocumentKind string

const (
	DocumentKindInvoice DocumentKind = "invoice"
	DocumentKindBill    DocumentKind = "bill"
)

// DocumentStatus is the lifecycle state of an invoice or bill.
type DocumentStatus string

const (
	DocumentStatusDraft         DocumentStatus = "draft"
	DocumentStatusPending       DocumentStatus = "pending"
	DocumentStatusApproved      DocumentStatus = "approved"
	DocumentStatusPartiallyPaid DocumentStatus = "partially_paid"
	DocumentStatusPaid          DocumentStatus = "paid"
	DocumentStatusOverdue       DocumentStatus = "overdue"
	DocumentStatusCancelled     DocumentStatus = "cancelled"
)

// Document is the invoice/bill aggregate root. It owns its line items,
// re-derives all amounts from the full line set after every mutation, and
// maintains outstanding = total - paid, never negative.
type Document struct {
	ID             string
	Number         string
	Kind           DocumentKind
	CounterpartyID string
	IssueDate      time.Time
	DueDate        time.Time
	Status         DocumentStatus

	Lines    []LineItem
	Currency Currency

	Subtotal          Money
	TaxAmount         Money
	Total             Money
	PaidAmount        Money
	OutstandingAmount Money

	CreatedBy   string
	CreatedAt   time.Time
	SubmittedAt *time.Time
	ApprovedAt  *time.Time
	PaidAt      *time.Time
	CancelledAt *time.Time
	UpdatedAt   time.Time
}

// NewInvoice creates a draft customer invoice with zeroed amounts.
func NewInvoice(id, number, customerID string, issueDate, dueDate time.Time, currency Currency, createdBy string, now time.Time) (*Document, error) {
	return newDocument(id, number, DocumentKindInvoice, customerID, issueDate, dueDate, currency, createdBy, now)
}

// NewBill creates a draft supplier bill with zeroed amounts.
func NewBill(id, number, supplierID string, issueDate, dueDate time.Time, currency Currency, createdBy string, now time.Time) (*Document, error) {
	return newDocument(id, number, DocumentKindBill, supplierID, issueDate, dueDate, currency, createdBy, now)
}

func newDocument(id, number string, kind DocumentKind, counterpartyID string, issueDate, dueDate time.Time, currency Currency, createdBy string, now time.Time) (*Document, error) {
	if err := ValidateReference(counterpartyID); err != nil {
		return nil, err
	}

	if err := ValidateCurrency(string(currency)); err != nil {
		return nil, err
	}

	zero := ZeroMoney(currency)

	return &Document{
		ID:                id,
		Number:            number,
		Kind:              kind,
		CounterpartyID:    counterpartyID,
		IssueDate:         issueDate,
		DueDate:           dueDate,
		Status:            DocumentStatusDraft,
		Currency:          currency,
		Subtotal:          zero,
		TaxAmount:         zero,
		Total:             zero,
		PaidAmount:        zero,
		OutstandingAmount: zero,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// AddLineItem appends a line to a draft document and recalculates amounts.
// Lines must match the document currency.
func (d *Document) AddLineItem(line LineItem) error {
	if err := d.ensureDraft(); err != nil {
		return err
	}

	if line.Currency() != d.Currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, line.Currency(), d.Currency)
	}

	line.DocumentID = d.ID

	d.Lines = append(d.Lines, line)
	return d.recalculateAmounts()
}

// UpdateLineItem replaces the line with the same ID and recalculates.
func (d *Document) UpdateLineItem(line LineItem) error {
	if err := d.ensureDraft(); err != nil {
		return err
	}

	if line.Currency() != d.Currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, line.Currency(), d.Currency)
	}

	idx := d.lineIndex(line.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, line.ID)
	}

	line.DocumentID = d.ID
	d.Lines[idx] = line

	return d.recalculateAmounts()
}

// RemoveLineItem deletes a line by ID and recalculates. Removing an
// unknown line is an explicit error, not a silent no-op.
func (d *Document) RemoveLineItem(lineID string) error {
	if err := d.ensureDraft(); err != nil {
		return err
	}

	idx := d.lineIndex(lineID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}

	d.Lines = append(d.Lines[:idx], d.Lines[idx+1:]...)
	return d.recalculateAmounts()
}

// Submit moves Draft -> Pending. Requires at least one line item.
func (d *Document) Submit(now time.Time) error {
	if d.Status != DocumentStatusDraft {
		return fmt.Errorf("%w: only draft %ss can be submitted, status is %s", ErrInvalidTransition, d.Kind, d.Status)
	}

	if len(d.Lines) == 0 {
		return ErrNoLineItems
	}

	d.Status = DocumentStatusPending
	d.SubmittedAt = &now
	d.UpdatedAt = now

	return nil
}

// Approve moves Pending -> Approved.
func (d *Document) Approve(now time.Time) error {
	if d.Status != DocumentStatusPending {
		return fmt.Errorf("%w: only pending %ss can be approved, status is %s", ErrInvalidTransition, d.Kind, d.Status)
	}

	d.Status = DocumentStatusApproved
	d.ApprovedAt = &now
	d.UpdatedAt = now

	return nil
}

// RecordPayment applies a payment against the outstanding amount. The
// amount must be positive and must not exceed what is outstanding;
// overpayment is rejected, never clamped.
func (d *Document) RecordPayment(amount Money, paidAt time.Time) error {
	switch d.Status {
	case DocumentStatusApproved, DocumentStatusPartiallyPaid, DocumentStatusOverdue:
	default:
		return fmt.Errorf("%w: cannot record a payment against a %s %s", ErrInvalidTransition, d.Status, d.Kind)
	}

	if amount.Currency() != d.Currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, amount.Currency(), d.Currency)
	}

	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if amount.Amount().GreaterThan(d.OutstandingAmount.Amount()) {
		return fmt.Errorf("%w: amount %s, outstanding %s", ErrPaymentExceedsOutstanding, amount, d.OutstandingAmount)
	}

	paid, err := d.PaidAmount.Add(amount)
	if err != nil {
		return err
	}

	outstanding, err := d.Total.Subtract(paid)
	if err != nil {
		return err
	}

	d.PaidAmount = paid
	d.OutstandingAmount = outstanding
	d.UpdatedAt = paidAt

	if outstanding.IsZero() {
		d.Status = DocumentStatusPaid
		d.PaidAt = &paidAt
	} else {
		d.Status = DocumentStatusPartiallyPaid
	}

	return nil
}

// Cancel terminates the document. Forbidden once fully paid.
func (d *Document) Cancel(now time.Time) error {
	if d.Status == DocumentStatusPaid {
		return fmt.Errorf("%w: paid %ss cannot be cancelled", ErrInvalidTransition, d.Kind)
	}

	if d.Status == DocumentStatusCancelled {
		return fmt.Errorf("%w: %s is already cancelled", ErrInvalidTransition, d.Kind)
	}

	d.Status = DocumentStatusCancelled
	d.CancelledAt = &now
	d.UpdatedAt = now

	return nil
}

// IsOverdue reports whether the due date has passed while an outstanding
// amount remains.
func (d *Document) IsOverdue(now time.Time) bool {
	switch d.Status {
	case DocumentStatusPaid, DocumentStatusCancelled, DocumentStatusDraft, DocumentStatusPending:
		return false
	}

	return now.After(d.DueDate) && d.OutstandingAmount.IsPositive()
}

// MarkAsOverdue refreshes the derived overdue status. Idempotent; a no-op
// once paid or cancelled.
func (d *Document) MarkAsOverdue(now time.Time) {
	if d.IsOverdue(now) {
		d.Status = DocumentStatusOverdue
		d.UpdatedAt = now
	}
}

// recalculateAmounts re-derives subtotal, tax, total and outstanding from
// the full line set. Called after every line mutation.
func (d *Document) recalculateAmounts() error {
	subtotal := ZeroMoney(d.Currency)
	taxAmount := ZeroMoney(d.Currency)

	var err error
	for i := range d.Lines {
		subtotal, err = subtotal.Add(d.Lines[i].LineTotal)
		if err != nil {
			return err
		}

		taxAmount, err = taxAmount.Add(d.Lines[i].TaxAmount)
		if err != nil {
			return err
		}
	}

	total, err := subtotal.Add(taxAmount)
	if err != nil {
		return err
	}

	outstanding, err := total.Subtract(d.PaidAmount)
	if err != nil {
		return err
	}

	if outstanding.IsNegative() {
		return fmt.Errorf("%w: outstanding amount would be %s", ErrInvalidAmount, outstanding)
	}

	d.Subtotal = subtotal
	d.TaxAmount = taxAmount
	d.Total = total
	d.OutstandingAmount = outstanding

	return nil
}

func (d *Document) ensureDraft() error {
	if d.Status != DocumentStatusDraft {
		return fmt.Errorf("%w: line items can only be changed on a draft %s, status is %s", ErrInvalidTransition, d.Kind, d.Status)
	}
	return nil
}

func (d *Document) lineIndex(lineID string) int {
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}
