package domain

import (
	"fmt"
	"time"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentKind distinguishes ordinary payments from refunds.
type PaymentKind string

const (
	PaymentKindPayment PaymentKind = "payment"
	PaymentKindRefund  PaymentKind = "refund"
)

// PaymentMethod is how the money moved.
type PaymentMethod string

const (
	PaymentMethodEFT    PaymentMethod = "eft"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCheque PaymentMethod = "cheque"
)

// AllocationTarget is the kind of document an allocation points at.
type AllocationTarget string

const (
	AllocationTargetInvoice AllocationTarget = "invoice"
	AllocationTargetBill    AllocationTarget = "bill"
	AllocationTargetAccount AllocationTarget = "account"
)

// PaymentAllocation assigns part of a payment to an invoice, bill or
// ledger account. Owned by the payment; it references the target but the
// payment never mutates the target directly.
type PaymentAllocation struct {
	ID        string
	PaymentID string
	Target    AllocationTarget
	TargetID  string
	Amount    Money
}

// Validate checks the allocation's target and amount.
func (a *PaymentAllocation) Validate() error {
	switch a.Target {
	case AllocationTargetInvoice, AllocationTargetBill, AllocationTargetAccount:
	default:
		return fmt.Errorf("%w: unknown allocation target %q", ErrInvalidTransition, a.Target)
	}

	if err := ValidateReference(a.TargetID); err != nil {
		return err
	}

	if !a.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	return nil
}

// Payment is the payment aggregate root. Allocations may only change while
// the payment is pending. Over-allocation is a detectable state, surfaced
// via IsOverAllocated, not a hard failure; the caller decides policy.
type Payment struct {
	ID     string
	Number string
	Kind   PaymentKind
	Method PaymentMethod
	Amount Money
	Status PaymentStatus

	Allocations []PaymentAllocation

	RefundOfID   *string
	RefundReason string

	CreatedBy   string
	CreatedAt   time.Time
	ProcessedAt *time.Time
	CancelledAt *time.Time
	UpdatedAt   time.Time
}

// NewPayment creates a pending payment.
func NewPayment(id, number string, amount Money, method PaymentMethod, createdBy string, now time.Time) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return &Payment{
		ID:        id,
		Number:    number,
		Kind:      PaymentKindPayment,
		Method:    method,
		Amount:    amount,
		Status:    PaymentStatusPending,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddAllocation attaches an allocation to a pending payment.
func (p *Payment) AddAllocation(allocation PaymentAllocation) error {
	if err := p.ensurePending("allocated"); err != nil {
		return err
	}

	if err := allocation.Validate(); err != nil {
		return err
	}

	if allocation.Amount.Currency() != p.Amount.Currency() {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, allocation.Amount.Currency(), p.Amount.Currency())
	}

	allocation.PaymentID = p.ID
	p.Allocations = append(p.Allocations, allocation)

	return nil
}

// RemoveAllocation deletes an allocation by ID from a pending payment.
// Removing an unknown allocation is an explicit error.
func (p *Payment) RemoveAllocation(allocationID string) error {
	if err := p.ensurePending("allocated"); err != nil {
		return err
	}

	for i := range p.Allocations {
		if p.Allocations[i].ID == allocationID {
			p.Allocations = append(p.Allocations[:i], p.Allocations[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrAllocationNotFound, allocationID)
}

// TotalAllocated sums all allocation amounts.
func (p *Payment) TotalAllocated() Money {
	total := ZeroMoney(p.Amount.Currency())
	for i := range p.Allocations {
		total, _ = total.Add(p.Allocations[i].Amount)
	}

	return total
}

// UnallocatedAmount is the payment amount minus the total allocated. It is
// negative when over-allocated.
func (p *Payment) UnallocatedAmount() Money {
	remaining, _ := p.Amount.Subtract(p.TotalAllocated())
	return remaining
}

// IsFullyAllocated reports whether the full amount has been allocated.
func (p *Payment) IsFullyAllocated() bool {
	return p.UnallocatedAmount().IsZero()
}

// IsOverAllocated reports whether allocations exceed the payment amount.
func (p *Payment) IsOverAllocated() bool {
	return p.UnallocatedAmount().IsNegative()
}

// Complete moves Pending -> Completed and stamps the processed date. The
// caller applies completed allocations onto their target documents inside
// the same transaction.
func (p *Payment) Complete(now time.Time) error {
	if err := p.ensurePending("completed"); err != nil {
		return err
	}

	p.Status = PaymentStatusCompleted
	p.ProcessedAt = &now
	p.UpdatedAt = now

	return nil
}

// Cancel terminates a pending payment.
func (p *Payment) Cancel(now time.Time) error {
	if err := p.ensurePending("cancelled"); err != nil {
		return err
	}

	p.Status = PaymentStatusCancelled
	p.CancelledAt = &now
	p.UpdatedAt = now

	return nil
}

// BuildRefund creates a pending refund payment referencing this one.
// Only completed payments can be refunded, up to their original amount.
func (p *Payment) BuildRefund(newID, newNumber string, amount Money, reason string, now time.Time) (*Payment, error) {
	if p.Status != PaymentStatusCompleted {
		return nil, fmt.Errorf("%w: only completed payments can be refunded, status is %s", ErrInvalidTransition, p.Status)
	}

	if amount.Currency() != p.Amount.Currency() {
		return nil, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, amount.Currency(), p.Amount.Currency())
	}

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if amount.Amount().GreaterThan(p.Amount.Amount()) {
		return nil, fmt.Errorf("%w: refund %s, payment %s", ErrRefundExceedsPayment, amount, p.Amount)
	}

	return &Payment{
		ID:           newID,
		Number:       newNumber,
		Kind:         PaymentKindRefund,
		Method:       p.Method,
		Amount:       amount,
		Status:       PaymentStatusPending,
		RefundOfID:   &p.ID,
		RefundReason: reason,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (p *Payment) ensurePending(action string) error {
	if p.Status != PaymentStatusPending {
		return fmt.Errorf("%w: only pending payments can be %s, status is %s", ErrInvalidTransition, action, p.Status)
	}
	return nil
}
