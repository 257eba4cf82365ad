package dto

import (
	"time"

	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/usecase"
	"github.com/shopspring/decimal"
)

// JournalLineRequest represents one debit or credit line.
type JournalLineRequest struct {
	AccountID   string          `json:"account_id"`
	Description string          `json:"description,omitempty"`
	Side        string          `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

func (r *JournalLineRequest) toUseCaseInput() usecase.JournalLineInput {
	return usecase.JournalLineInput{
		AccountID:   r.AccountID,
		Description: r.Description,
		Side:        domain.Side(r.Side),
		Amount:      r.Amount,
		Currency:    domain.Currency(r.Currency),
	}
}

// CreateJournalRequest represents a request to create a journal entry.
type CreateJournalRequest struct {
	Description string               `json:"description"`
	EntryDate   time.Time            `json:"entry_date"`
	Lines       []JournalLineRequest `json:"lines"`
	CreatedBy   string               `json:"created_by"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateJournalRequest) ToUseCaseInput() usecase.CreateJournalInput {
	lines := make([]usecase.JournalLineInput, len(r.Lines))
	for i := range r.Lines {
		lines[i] = r.Lines[i].toUseCaseInput()
	}

	return usecase.CreateJournalInput{
		Description: r.Description,
		EntryDate:   r.EntryDate,
		Lines:       lines,
		CreatedBy:   r.CreatedBy,
	}
}

// AddJournalLineRequest represents a request to add or update a journal line.
type AddJournalLineRequest struct {
	JournalLineRequest
}

// ToUseCaseInput converts to use case input.
func (r *AddJournalLineRequest) ToUseCaseInput() usecase.JournalLineInput {
	return r.toUseCaseInput()
}

// LineItemRequest represents one priced line on an invoice or bill.
type LineItemRequest struct {
	Description     string           `json:"description"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	Currency        string           `json:"currency"`
	DiscountPercent decimal.Decimal  `json:"discount_percent,omitempty"`
	DiscountAmount  decimal.Decimal  `json:"discount_amount,omitempty"`
	TaxPercentage   *decimal.Decimal `json:"tax_percentage,omitempty"`
}

func (r *LineItemRequest) toUseCaseInput() usecase.LineItemInput {
	return usecase.LineItemInput{
		Description:     r.Description,
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice,
		Currency:        domain.Currency(r.Currency),
		DiscountPercent: r.DiscountPercent,
		DiscountAmount:  r.DiscountAmount,
		TaxPercentage:   r.TaxPercentage,
	}
}

// AddLineItemRequest represents a request to add or update a line item.
type AddLineItemRequest struct {
	LineItemRequest
}

// ToUseCaseInput converts to use case input.
func (r *AddLineItemRequest) ToUseCaseInput() usecase.LineItemInput {
	return r.toUseCaseInput()
}

// CreateDocumentRequest represents a request to create an invoice or bill.
type CreateDocumentRequest struct {
	CounterpartyID string            `json:"counterparty_id"`
	IssueDate      time.Time         `json:"issue_date"`
	DueDate        time.Time         `json:"due_date"`
	Currency       string            `json:"currency"`
	Lines          []LineItemRequest `json:"lines"`
	CreatedBy      string            `json:"created_by"`
}

// ToUseCaseInput converts to use case input for the given document kind.
func (r *CreateDocumentRequest) ToUseCaseInput(kind domain.DocumentKind) usecase.CreateDocumentInput {
	lines := make([]usecase.LineItemInput, len(r.Lines))
	for i := range r.Lines {
		lines[i] = r.Lines[i].toUseCaseInput()
	}

	return usecase.CreateDocumentInput{
		Kind:           kind,
		CounterpartyID: r.CounterpartyID,
		IssueDate:      r.IssueDate,
		DueDate:        r.DueDate,
		Currency:       domain.Currency(r.Currency),
		Lines:          lines,
		CreatedBy:      r.CreatedBy,
	}
}

// AllocationRequest assigns part of a payment to a target.
type AllocationRequest struct {
	Target   string          `json:"target"`
	TargetID string          `json:"target_id"`
	Amount   decimal.Decimal `json:"amount"`
}

func (r *AllocationRequest) toUseCaseInput() usecase.AllocationInput {
	return usecase.AllocationInput{
		Target:   domain.AllocationTarget(r.Target),
		TargetID: r.TargetID,
		Amount:   r.Amount,
	}
}

// AddAllocationRequest represents a request to add an allocation.
type AddAllocationRequest struct {
	AllocationRequest
}

// ToUseCaseInput converts to use case input.
func (r *AddAllocationRequest) ToUseCaseInput() usecase.AllocationInput {
	return r.toUseCaseInput()
}

// CreatePaymentRequest represents a request to create a payment.
type CreatePaymentRequest struct {
	Amount      decimal.Decimal     `json:"amount"`
	Currency    string              `json:"currency"`
	Method      string              `json:"method"`
	Allocations []AllocationRequest `json:"allocations,omitempty"`
	CreatedBy   string              `json:"created_by"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePaymentRequest) ToUseCaseInput() usecase.CreatePaymentInput {
	allocations := make([]usecase.AllocationInput, len(r.Allocations))
	for i := range r.Allocations {
		allocations[i] = r.Allocations[i].toUseCaseInput()
	}

	return usecase.CreatePaymentInput{
		Amount:      r.Amount,
		Currency:    domain.Currency(r.Currency),
		Method:      domain.PaymentMethod(r.Method),
		Allocations: allocations,
		CreatedBy:   r.CreatedBy,
	}
}

// RefundPaymentRequest represents a request to refund a completed payment.
type RefundPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
	By     string          `json:"by"`
}

// ToUseCaseInput converts to use case input.
func (r *RefundPaymentRequest) ToUseCaseInput(paymentID string) usecase.RefundInput {
	return usecase.RefundInput{
		PaymentID: paymentID,
		Amount:    r.Amount,
		Reason:    r.Reason,
		By:        r.By,
	}
}

// ActionRequest carries the acting user for lifecycle transitions.
type ActionRequest struct {
	By string `json:"by"`
}

// ClosePeriodRequest represents a request to close a ledger period.
type ClosePeriodRequest struct {
	PeriodStart time.Time `json:"period_start"`
	By          string    `json:"by"`
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
