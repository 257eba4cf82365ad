package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kasbook/kasbook/internal/domain"
)

// PaymentUseCase handles payment business logic.
type PaymentUseCase struct {
	txManager    TransactionManager
	paymentRepo  PaymentRepository
	documentRepo DocumentRepository
	sequenceRepo SequenceRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	clock        Clock
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(
	txManager TransactionManager,
	paymentRepo PaymentRepository,
	documentRepo DocumentRepository,
	sequenceRepo SequenceRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	clock Clock,
) *PaymentUseCase {
	return &PaymentUseCase{
		txManager:    txManager,
		paymentRepo:  paymentRepo,
		documentRepo: documentRepo,
		sequenceRepo: sequenceRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		idGen:        idGen,
		clock:        clock,
	}
}

// AllocationInput assigns part of a payment to an invoice, bill or
// ledger account.
type AllocationInput struct {
	Target   domain.AllocationTarget
	TargetID string
	Amount   decimal.Decimal
}

// CreatePaymentInput represents input for creating a payment.
type CreatePaymentInput struct {
	Amount      decimal.Decimal
	Currency    domain.Currency
	Method      domain.PaymentMethod
	Allocations []AllocationInput
	CreatedBy   string
}

// CreatePayment creates a pending payment with its allocations.
func (uc *PaymentUseCase) CreatePayment(ctx context.Context, input CreatePaymentInput) (*domain.Payment, error) {
	now := uc.clock.Now().UTC()

	amount, err := domain.NewMoney(input.Amount, input.Currency)
	if err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	number, err := nextNumber(ctx, tx, uc.sequenceRepo, SequencePayment, "PAY", now)
	if err != nil {
		return nil, err
	}

	payment, err := domain.NewPayment(uc.idGen.Generate(), number, amount, input.Method, input.CreatedBy, now)
	if err != nil {
		return nil, err
	}

	for _, ai := range input.Allocations {
		allocation, err := uc.buildAllocation(input.Currency, ai)
		if err != nil {
			return nil, err
		}

		if err := payment.AddAllocation(allocation); err != nil {
			return nil, err
		}
	}

	if err := uc.paymentRepo.Create(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, tx, input.CreatedBy, domain.AuditActionPaymentCreate, payment.ID, nil, payment, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return payment, nil
}

// AddAllocation attaches an allocation to a pending payment.
func (uc *PaymentUseCase) AddAllocation(ctx context.Context, paymentID string, input AllocationInput) (*domain.Payment, error) {
	return uc.mutate(ctx, paymentID, func(payment *domain.Payment) error {
		allocation, err := uc.buildAllocation(payment.Amount.Currency(), input)
		if err != nil {
			return err
		}

		return payment.AddAllocation(allocation)
	})
}

// RemoveAllocation deletes an allocation from a pending payment.
func (uc *PaymentUseCase) RemoveAllocation(ctx context.Context, paymentID, allocationID string) (*domain.Payment, error) {
	return uc.mutate(ctx, paymentID, func(payment *domain.Payment) error {
		return payment.RemoveAllocation(allocationID)
	})
}

// Complete settles a pending payment: every allocation is applied to its
// target document and the payment is marked completed, all within one
// transaction. An allocation that overpays its document fails the whole
// completion.
func (uc *PaymentUseCase) Complete(ctx context.Context, paymentID, by string) (*domain.Payment, error) {
	now := uc.clock.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	payment, err := uc.paymentRepo.GetByIDForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := payment.Complete(now); err != nil {
		return nil, err
	}

	for i := range payment.Allocations {
		if err := uc.applyAllocation(ctx, tx, &payment.Allocations[i], now); err != nil {
			return nil, err
		}
	}

	if err := uc.paymentRepo.Update(ctx, tx, payment); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   payment.ID,
		AggregateType: domain.AggregateTypePayment,
		EventType:     domain.EventTypePaymentCompleted,
		Payload: eventPayload(domain.PaymentCompletedEvent{
			PaymentID:      payment.ID,
			Number:         payment.Number,
			Amount:         payment.Amount.Amount().String(),
			Currency:       string(payment.Amount.Currency()),
			TotalAllocated: payment.TotalAllocated().Amount().String(),
		}),
		CreatedAt: now,
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, tx, by, domain.AuditActionPaymentComplete, payment.ID, nil, payment, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return payment, nil
}

// RefundInput represents input for refunding a completed payment.
type RefundInput struct {
	PaymentID string
	Amount    decimal.Decimal
	Reason    string
	By        string
}

// Refund creates and completes a refund against a completed payment.
func (uc *PaymentUseCase) Refund(ctx context.Context, input RefundInput) (*domain.Payment, error) {
	now := uc.clock.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	original, err := uc.paymentRepo.GetByIDForUpdate(ctx, tx, input.PaymentID)
	if err != nil {
		return nil, err
	}

	amount, err := domain.NewMoney(input.Amount, original.Amount.Currency())
	if err != nil {
		return nil, err
	}

	number, err := nextNumber(ctx, tx, uc.sequenceRepo, SequencePayment, "PAY", now)
	if err != nil {
		return nil, err
	}

	refund, err := original.BuildRefund(uc.idGen.Generate(), number, amount, input.Reason, now)
	if err != nil {
		return nil, err
	}

	if err := refund.Complete(now); err != nil {
		return nil, err
	}

	if err := uc.paymentRepo.Create(ctx, tx, refund); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   refund.ID,
		AggregateType: domain.AggregateTypePayment,
		EventType:     domain.EventTypePaymentRefunded,
		Payload: eventPayload(domain.PaymentRefundedEvent{
			RefundPaymentID:   refund.ID,
			OriginalPaymentID: original.ID,
			Amount:            refund.Amount.Amount().String(),
			Reason:            input.Reason,
		}),
		CreatedAt: now,
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, tx, input.By, domain.AuditActionPaymentRefund, original.ID, original, refund, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return refund, nil
}

// Cancel terminates a pending payment.
func (uc *PaymentUseCase) Cancel(ctx context.Context, paymentID string) (*domain.Payment, error) {
	now := uc.clock.Now().UTC()

	return uc.mutate(ctx, paymentID, func(payment *domain.Payment) error {
		return payment.Cancel(now)
	})
}

// GetPayment retrieves a payment by ID.
func (uc *PaymentUseCase) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return uc.paymentRepo.GetByID(ctx, id)
}

// ListPaymentsInput represents input for listing payments.
type ListPaymentsInput struct {
	Limit  int
	Offset int
}

// ListPayments lists payments.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, input ListPaymentsInput) ([]*domain.Payment, error) {
	limit, offset := clampPagination(input.Limit, input.Offset)
	return uc.paymentRepo.List(ctx, limit, offset)
}

// applyAllocation records one allocation against its target document and
// emits the paid or partially-paid event. Allocations to ledger accounts
// carry no document to update.
func (uc *PaymentUseCase) applyAllocation(ctx context.Context, tx Transaction, allocation *domain.PaymentAllocation, now time.Time) error {
	if allocation.Target == domain.AllocationTargetAccount {
		return nil
	}

	doc, err := uc.documentRepo.GetByIDForUpdate(ctx, tx, allocation.TargetID)
	if err != nil {
		return err
	}

	if err := doc.RecordPayment(allocation.Amount, now); err != nil {
		return err
	}

	if err := uc.documentRepo.Update(ctx, tx, doc); err != nil {
		return err
	}

	eventType := domain.EventTypeInvoicePartPaid
	if doc.Kind == domain.DocumentKindBill {
		eventType = domain.EventTypeBillPartPaid
	}

	if doc.Status == domain.DocumentStatusPaid {
		eventType = domain.EventTypeInvoicePaid
		if doc.Kind == domain.DocumentKindBill {
			eventType = domain.EventTypeBillPaid
		}
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   doc.ID,
		AggregateType: domain.AggregateTypeDocument,
		EventType:     eventType,
		Payload: eventPayload(domain.DocumentPaidEvent{
			DocumentID:  doc.ID,
			Kind:        string(doc.Kind),
			Number:      doc.Number,
			PaidAmount:  doc.PaidAmount.Amount().String(),
			Outstanding: doc.OutstandingAmount.Amount().String(),
			Currency:    string(doc.Currency),
		}),
		CreatedAt: now,
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *PaymentUseCase) mutate(ctx context.Context, paymentID string, fn func(*domain.Payment) error) (*domain.Payment, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	payment, err := uc.paymentRepo.GetByIDForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := fn(payment); err != nil {
		return nil, err
	}

	if err := uc.paymentRepo.Update(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return payment, nil
}

func (uc *PaymentUseCase) audit(ctx context.Context, tx Transaction, userID string, action domain.AuditAction, resourceID string, before, after any, now time.Time) error {
	return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       userID,
		Action:       string(action),
		ResourceType: domain.AggregateTypePayment,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	})
}

func (uc *PaymentUseCase) buildAllocation(currency domain.Currency, input AllocationInput) (domain.PaymentAllocation, error) {
	amount, err := domain.NewMoney(input.Amount, currency)
	if err != nil {
		return domain.PaymentAllocation{}, err
	}

	return domain.PaymentAllocation{
		ID:       uc.idGen.Generate(),
		Target:   input.Target,
		TargetID: input.TargetID,
		Amount:   amount,
	}, nil
}
