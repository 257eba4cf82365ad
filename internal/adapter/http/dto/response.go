package dto

import (
	"time"

	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/usecase"
	"github.com/shopspring/decimal"
)

// JournalLineResponse represents a journal line in API responses.
type JournalLineResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Description string          `json:"description,omitempty"`
	Side        string          `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

// JournalResponse represents a journal entry in API responses.
type JournalResponse struct {
	ID           string                `json:"id"`
	Number       string                `json:"number"`
	Description  string                `json:"description"`
	Status       string                `json:"status"`
	EntryDate    time.Time             `json:"entry_date"`
	PostingDate  *time.Time            `json:"posting_date,omitempty"`
	Currency     string                `json:"currency,omitempty"`
	TotalDebit   decimal.Decimal       `json:"total_debit"`
	TotalCredit  decimal.Decimal       `json:"total_credit"`
	Balanced     bool                  `json:"balanced"`
	IsReversed   bool                  `json:"is_reversed"`
	ReversalID   *string               `json:"reversal_id,omitempty"`
	ReversalOfID *string               `json:"reversal_of_id,omitempty"`
	Lines        []JournalLineResponse `json:"lines"`
	CreatedBy    string                `json:"created_by"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// JournalFromDomain converts a domain journal entry to a response.
func JournalFromDomain(j *domain.JournalEntry) *JournalResponse {
	lines := make([]JournalLineResponse, len(j.Lines))
	for i := range j.Lines {
		line := &j.Lines[i]
		lines[i] = JournalLineResponse{
			ID:          line.ID,
			AccountID:   line.AccountID,
			Description: line.Description,
			Side:        string(line.Amount.Side()),
			Amount:      line.Amount.Amount(),
			Currency:    string(line.Amount.Currency()),
		}
	}

	return &JournalResponse{
		ID:           j.ID,
		Number:       j.Number,
		Description:  j.Description,
		Status:       string(j.Status),
		EntryDate:    j.EntryDate,
		PostingDate:  j.PostingDate,
		Currency:     string(j.Currency),
		TotalDebit:   j.TotalDebit.Amount(),
		TotalCredit:  j.TotalCredit.Amount(),
		Balanced:     j.IsBalanced(),
		IsReversed:   j.IsReversed,
		ReversalID:   j.ReversalID,
		ReversalOfID: j.ReversalOfID,
		Lines:        lines,
		CreatedBy:    j.CreatedBy,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

// JournalsFromDomain converts domain journal entries to responses.
func JournalsFromDomain(entries []*domain.JournalEntry) []*JournalResponse {
	result := make([]*JournalResponse, len(entries))
	for i, j := range entries {
		result[i] = JournalFromDomain(j)
	}
	return result
}

// LineItemResponse represents a line item in API responses.
type LineItemResponse struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxPercentage   decimal.Decimal `json:"tax_percentage"`
	LineTotal       decimal.Decimal `json:"line_total"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TotalWithTax    decimal.Decimal `json:"total_with_tax"`
}

// DocumentResponse represents an invoice or bill in API responses.
type DocumentResponse struct {
	ID                string             `json:"id"`
	Number            string             `json:"number"`
	Kind              string             `json:"kind"`
	CounterpartyID    string             `json:"counterparty_id"`
	Status            string             `json:"status"`
	IssueDate         time.Time          `json:"issue_date"`
	DueDate           time.Time          `json:"due_date"`
	Currency          string             `json:"currency"`
	Subtotal          decimal.Decimal    `json:"subtotal"`
	TaxAmount         decimal.Decimal    `json:"tax_amount"`
	Total             decimal.Decimal    `json:"total"`
	PaidAmount        decimal.Decimal    `json:"paid_amount"`
	OutstandingAmount decimal.Decimal    `json:"outstanding_amount"`
	Lines             []LineItemResponse `json:"lines"`
	CreatedBy         string             `json:"created_by"`
	CreatedAt         time.Time          `json:"created_at"`
	PaidAt            *time.Time         `json:"paid_at,omitempty"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// DocumentFromDomain converts a domain document to a response.
func DocumentFromDomain(d *domain.Document) *DocumentResponse {
	lines := make([]LineItemResponse, len(d.Lines))
	for i := range d.Lines {
		line := &d.Lines[i]

		taxPercentage := decimal.Zero
		if line.TaxRate != nil {
			taxPercentage = line.TaxRate.Percentage()
		}

		lines[i] = LineItemResponse{
			ID:              line.ID,
			Description:     line.Description,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice.Amount(),
			DiscountPercent: line.DiscountPercent,
			DiscountAmount:  line.DiscountAmount.Amount(),
			TaxPercentage:   taxPercentage,
			LineTotal:       line.LineTotal.Amount(),
			TaxAmount:       line.TaxAmount.Amount(),
			TotalWithTax:    line.TotalWithTax.Amount(),
		}
	}

	return &DocumentResponse{
		ID:                d.ID,
		Number:            d.Number,
		Kind:              string(d.Kind),
		CounterpartyID:    d.CounterpartyID,
		Status:            string(d.Status),
		IssueDate:         d.IssueDate,
		DueDate:           d.DueDate,
		Currency:          string(d.Currency),
		Subtotal:          d.Subtotal.Amount(),
		TaxAmount:         d.TaxAmount.Amount(),
		Total:             d.Total.Amount(),
		PaidAmount:        d.PaidAmount.Amount(),
		OutstandingAmount: d.OutstandingAmount.Amount(),
		Lines:             lines,
		CreatedBy:         d.CreatedBy,
		CreatedAt:         d.CreatedAt,
		PaidAt:            d.PaidAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// DocumentsFromDomain converts domain documents to responses.
func DocumentsFromDomain(documents []*domain.Document) []*DocumentResponse {
	result := make([]*DocumentResponse, len(documents))
	for i, d := range documents {
		result[i] = DocumentFromDomain(d)
	}
	return result
}

// AllocationResponse represents a payment allocation in API responses.
type AllocationResponse struct {
	ID       string          `json:"id"`
	Target   string          `json:"target"`
	TargetID string          `json:"target_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID             string               `json:"id"`
	Number         string               `json:"number"`
	Kind           string               `json:"kind"`
	Method         string               `json:"method"`
	Status         string               `json:"status"`
	Amount         decimal.Decimal      `json:"amount"`
	Currency       string               `json:"currency"`
	TotalAllocated decimal.Decimal      `json:"total_allocated"`
	Unallocated    decimal.Decimal      `json:"unallocated"`
	OverAllocated  bool                 `json:"over_allocated"`
	Allocations    []AllocationResponse `json:"allocations"`
	RefundOfID     *string              `json:"refund_of_id,omitempty"`
	RefundReason   string               `json:"refund_reason,omitempty"`
	CreatedBy      string               `json:"created_by"`
	CreatedAt      time.Time            `json:"created_at"`
	ProcessedAt    *time.Time           `json:"processed_at,omitempty"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// PaymentFromDomain converts a domain payment to a response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	allocations := make([]AllocationResponse, len(p.Allocations))
	for i := range p.Allocations {
		a := &p.Allocations[i]
		allocations[i] = AllocationResponse{
			ID:       a.ID,
			Target:   string(a.Target),
			TargetID: a.TargetID,
			Amount:   a.Amount.Amount(),
		}
	}

	return &PaymentResponse{
		ID:             p.ID,
		Number:         p.Number,
		Kind:           string(p.Kind),
		Method:         string(p.Method),
		Status:         string(p.Status),
		Amount:         p.Amount.Amount(),
		Currency:       string(p.Amount.Currency()),
		TotalAllocated: p.TotalAllocated().Amount(),
		Unallocated:    p.UnallocatedAmount().Amount(),
		OverAllocated:  p.IsOverAllocated(),
		Allocations:    allocations,
		RefundOfID:     p.RefundOfID,
		RefundReason:   p.RefundReason,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
		ProcessedAt:    p.ProcessedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// PaymentsFromDomain converts domain payments to responses.
func PaymentsFromDomain(payments []*domain.Payment) []*PaymentResponse {
	result := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		result[i] = PaymentFromDomain(p)
	}
	return result
}

// LedgerBalanceResponse represents a ledger balance row in API responses.
type LedgerBalanceResponse struct {
	AccountID      string          `json:"account_id"`
	PeriodStart    time.Time       `json:"period_start"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	DebitBalance   decimal.Decimal `json:"debit_balance"`
	CreditBalance  decimal.Decimal `json:"credit_balance"`
	NetBalance     decimal.Decimal `json:"net_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Closed         bool            `json:"closed"`
}

// LedgerBalanceFromDomain converts a domain ledger balance to a response.
func LedgerBalanceFromDomain(lb *domain.LedgerBalance) *LedgerBalanceResponse {
	return &LedgerBalanceResponse{
		AccountID:      lb.AccountID,
		PeriodStart:    lb.PeriodStart,
		Currency:       string(lb.Currency),
		OpeningBalance: lb.OpeningBalance.Amount(),
		DebitBalance:   lb.DebitBalance.Amount(),
		CreditBalance:  lb.CreditBalance.Amount(),
		NetBalance:     lb.NetBalance.Amount(),
		ClosingBalance: lb.ClosingBalance.Amount(),
		Closed:         lb.Closed,
	}
}

// LedgerBalancesFromDomain converts domain ledger balances to responses.
func LedgerBalancesFromDomain(balances []*domain.LedgerBalance) []*LedgerBalanceResponse {
	result := make([]*LedgerBalanceResponse, len(balances))
	for i, lb := range balances {
		result[i] = LedgerBalanceFromDomain(lb)
	}
	return result
}

// ConsistencyResponse represents a ledger consistency check result.
type ConsistencyResponse struct {
	TotalDebits  decimal.Decimal `json:"total_debits"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	Consistent   bool            `json:"consistent"`
}

// ConsistencyFromReport converts a usecase consistency report to a response.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		TotalDebits:  r.TotalDebits,
		TotalCredits: r.TotalCredits,
		Consistent:   r.Consistent,
	}
}

// SweepResponse reports how many documents an overdue sweep marked.
type SweepResponse struct {
	Marked int `json:"marked"`
}

// ClosePeriodResponse reports how many accounts a period close touched.
type ClosePeriodResponse struct {
	PeriodStart    time.Time `json:"period_start"`
	AccountsClosed int       `json:"accounts_closed"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
