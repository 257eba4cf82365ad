package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kasbook/kasbook/internal/domain"
)

// DocumentUseCase handles invoice and bill business logic.
type DocumentUseCase struct {
	txManager    TransactionManager
	documentRepo DocumentRepository
	sequenceRepo SequenceRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	clock        Clock
}

// NewDocumentUseCase creates a new DocumentUseCase.
func NewDocumentUseCase(
	txManager TransactionManager,
	documentRepo DocumentRepository,
	sequenceRepo SequenceRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	clock Clock,
) *DocumentUseCase {
	return &DocumentUseCase{
		txManager:    txManager,
		documentRepo: documentRepo,
		sequenceRepo: sequenceRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		idGen:        idGen,
		clock:        clock,
	}
}

// LineItemInput represents one priced line on an invoice or bill.
type LineItemInput struct {
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	Currency        domain.Currency
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxPercentage   *decimal.Decimal
}

// CreateDocumentInput represents input for creating an invoice or bill.
type CreateDocumentInput struct {
	Kind           domain.DocumentKind
	CounterpartyID string
	IssueDate      time.Time
	DueDate        time.Time
	Currency       domain.Currency
	Lines          []LineItemInput
	CreatedBy      string
}

// CreateDocument creates a draft invoice or bill with its line items.
func (uc *DocumentUseCase) CreateDocument(ctx context.Context, input CreateDocumentInput) (*domain.Document, error) {
	now := uc.clock.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	sequence, prefix := SequenceInvoice, "INV"
	if input.Kind == domain.DocumentKindBill {
		sequence, prefix = SequenceBill, "BIL"
	}

	number, err := nextNumber(ctx, tx, uc.sequenceRepo, sequence, prefix, now)
	if err != nil {
		return nil, err
	}

	var doc *domain.Document
	if input.Kind == domain.DocumentKindBill {
		doc, err = domain.NewBill(uc.idGen.Generate(), number, input.CounterpartyID, input.IssueDate, input.DueDate, input.Currency, input.CreatedBy, now)
	} else {
		doc, err = domain.NewInvoice(uc.idGen.Generate(), number, input.CounterpartyID, input.IssueDate, input.DueDate, input.Currency, input.CreatedBy, now)
	}
	if err != nil {
		return nil, err
	}

	for _, li := range input.Lines {
		line, err := uc.buildLineItem(doc.ID, li)
		if err != nil {
			return nil, err
		}

		if err := doc.AddLineItem(*line); err != nil {
			return nil, err
		}
	}

	if err := uc.documentRepo.Create(ctx, tx, doc); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, tx, input.CreatedBy, domain.AuditActionDocumentCreate, doc.ID, nil, doc, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return doc, nil
}

// AddLineItem appends a line to a draft document.
func (uc *DocumentUseCase) AddLineItem(ctx context.Context, documentID string, input LineItemInput) (*domain.Document, error) {
	return uc.mutate(ctx, documentID, func(doc *domain.Document) error {
		line, err := uc.buildLineItem(doc.ID, input)
		if err != nil {
			return err
		}

		return doc.AddLineItem(*line)
	})
}

// UpdateLineItem replaces an existing line on a draft document.
func (uc *DocumentUseCase) UpdateLineItem(ctx context.Context, documentID, lineID string, input LineItemInput) (*domain.Document, error) {
	return uc.mutate(ctx, documentID, func(doc *domain.Document) error {
		line, err := uc.buildLineItem(doc.ID, input)
		if err != nil {
			return err
		}

		line.ID = lineID

		return doc.UpdateLineItem(*line)
	})
}

// RemoveLineItem deletes a line from a draft document.
func (uc *DocumentUseCase) RemoveLineItem(ctx context.Context, documentID, lineID string) (*domain.Document, error) {
	return uc.mutate(ctx, documentID, func(doc *domain.Document) error {
		return doc.RemoveLineItem(lineID)
	})
}

// Submit moves a draft document to pending.
func (uc *DocumentUseCase) Submit(ctx context.Context, documentID, by string) (*domain.Document, error) {
	now := uc.clock.Now().UTC()

	return uc.mutateAudited(ctx, documentID, by, domain.AuditActionDocumentSubmit, func(doc *domain.Document) error {
		return doc.Submit(now)
	})
}

// Approve moves a pending document to approved.
func (uc *DocumentUseCase) Approve(ctx context.Context, documentID, by string) (*domain.Document, error) {
	now := uc.clock.Now().UTC()

	return uc.mutateAudited(ctx, documentID, by, domain.AuditActionDocumentApprove, func(doc *domain.Document) error {
		return doc.Approve(now)
	})
}

// Cancel terminates a document. Forbidden once fully paid.
func (uc *DocumentUseCase) Cancel(ctx context.Context, documentID, by string) (*domain.Document, error) {
	now := uc.clock.Now().UTC()

	return uc.mutateAudited(ctx, documentID, by, domain.AuditActionDocumentCancel, func(doc *domain.Document) error {
		return doc.Cancel(now)
	})
}

// GetDocument retrieves a document by ID.
func (uc *DocumentUseCase) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return uc.documentRepo.GetByID(ctx, id)
}

// ListDocumentsInput represents input for listing documents of one kind.
type ListDocumentsInput struct {
	Kind   domain.DocumentKind
	Limit  int
	Offset int
}

// ListDocuments lists invoices or bills.
func (uc *DocumentUseCase) ListDocuments(ctx context.Context, input ListDocumentsInput) ([]*domain.Document, error) {
	limit, offset := clampPagination(input.Limit, input.Offset)
	return uc.documentRepo.List(ctx, input.Kind, limit, offset)
}

// MarkOverdue sweeps documents whose due date has passed, flips them to
// overdue and emits an event per document. Returns how many changed.
func (uc *DocumentUseCase) MarkOverdue(ctx context.Context, batchSize int) (int, error) {
	now := uc.clock.Now().UTC()

	if batchSize <= 0 {
		batchSize = 100
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	candidates, err := uc.documentRepo.ListDueForOverdue(ctx, tx, now, batchSize)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, doc := range candidates {
		if !doc.IsOverdue(now) {
			continue
		}

		doc.MarkAsOverdue(now)

		if err := uc.documentRepo.Update(ctx, tx, doc); err != nil {
			return 0, err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   doc.ID,
			AggregateType: domain.AggregateTypeDocument,
			EventType:     domain.EventTypeDocumentOverdue,
			Payload: eventPayload(domain.DocumentOverdueEvent{
				DocumentID:  doc.ID,
				Kind:        string(doc.Kind),
				Number:      doc.Number,
				DueDate:     doc.DueDate.Format(time.RFC3339),
				Outstanding: doc.OutstandingAmount.Amount().String(),
			}),
			CreatedAt: now,
		}

		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return 0, err
		}

		marked++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return marked, nil
}

func (uc *DocumentUseCase) mutate(ctx context.Context, documentID string, fn func(*domain.Document) error) (*domain.Document, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	doc, err := uc.documentRepo.GetByIDForUpdate(ctx, tx, documentID)
	if err != nil {
		return nil, err
	}

	if err := fn(doc); err != nil {
		return nil, err
	}

	if err := uc.documentRepo.Update(ctx, tx, doc); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return doc, nil
}

func (uc *DocumentUseCase) mutateAudited(ctx context.Context, documentID, by string, action domain.AuditAction, fn func(*domain.Document) error) (*domain.Document, error) {
	now := uc.clock.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	doc, err := uc.documentRepo.GetByIDForUpdate(ctx, tx, documentID)
	if err != nil {
		return nil, err
	}

	if err := fn(doc); err != nil {
		return nil, err
	}

	if err := uc.documentRepo.Update(ctx, tx, doc); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, tx, by, action, doc.ID, nil, doc, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return doc, nil
}

func (uc *DocumentUseCase) audit(ctx context.Context, tx Transaction, userID string, action domain.AuditAction, resourceID string, before, after any, now time.Time) error {
	return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       userID,
		Action:       string(action),
		ResourceType: domain.AggregateTypeDocument,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	})
}

func (uc *DocumentUseCase) buildLineItem(documentID string, input LineItemInput) (*domain.LineItem, error) {
	unitPrice, err := domain.NewMoney(input.UnitPrice, input.Currency)
	if err != nil {
		return nil, err
	}

	line, err := domain.NewLineItem(uc.idGen.Generate(), documentID, input.Description, input.Quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	if input.DiscountPercent.IsPositive() {
		if err := line.SetDiscountPercent(input.DiscountPercent); err != nil {
			return nil, err
		}
	} else if input.DiscountAmount.IsPositive() {
		discount, err := domain.NewMoney(input.DiscountAmount, input.Currency)
		if err != nil {
			return nil, err
		}

		if err := line.SetDiscountAmount(discount); err != nil {
			return nil, err
		}
	}

	if input.TaxPercentage != nil {
		rate, err := domain.NewTaxRate(*input.TaxPercentage)
		if err != nil {
			return nil, err
		}

		if err := line.SetTaxRate(&rate); err != nil {
			return nil, err
		}
	}

	return line, nil
}
