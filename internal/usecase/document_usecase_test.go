package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/usecase"
	"github.com/kasbook/kasbook/internal/usecase/mocks"
)

type documentFixture struct {
	uc        *usecase.DocumentUseCase
	documents *mocks.MockDocumentRepository
	outbox    *mocks.MockOutboxRepository
	audit     *mocks.MockAuditRepository
	clock     *mocks.MockClock
}

func newDocumentFixture() *documentFixture {
	f := &documentFixture{
		documents: mocks.NewMockDocumentRepository(),
		outbox:    mocks.NewMockOutboxRepository(),
		audit:     mocks.NewMockAuditRepository(),
		clock:     mocks.NewMockClock(fixedTime),
	}

	f.uc = usecase.NewDocumentUseCase(
		mocks.NewMockTransactionManager(),
		f.documents,
		mocks.NewMockSequenceRepository(),
		f.outbox,
		f.audit,
		mocks.NewMockIDGenerator(),
		f.clock,
	)

	return f
}

func vatInvoiceInput() usecase.CreateDocumentInput {
	vat := decimal.NewFromInt(15)

	return usecase.CreateDocumentInput{
		Kind:           domain.DocumentKindInvoice,
		CounterpartyID: "cust-42",
		IssueDate:      fixedTime,
		DueDate:        fixedTime.AddDate(0, 1, 0),
		Currency:       domain.CurrencyZAR,
		CreatedBy:      "thabo",
		Lines: []usecase.LineItemInput{
			{
				Description:   "stock delivery",
				Quantity:      decimal.NewFromInt(2),
				UnitPrice:     decimal.NewFromInt(50),
				Currency:      domain.CurrencyZAR,
				TaxPercentage: &vat,
			},
		},
	}
}

func TestDocumentUseCase_CreateInvoice(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()

	doc, err := f.uc.CreateDocument(ctx, vatInvoiceInput())
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if doc.Number != "INV-2026-00001" {
		t.Errorf("expected INV-2026-00001, got %s", doc.Number)
	}

	if !doc.Total.Amount().Equal(decimal.NewFromInt(115)) {
		t.Errorf("expected total 115, got %s", doc.Total.Amount())
	}

	if doc.Status != domain.DocumentStatusDraft {
		t.Errorf("expected draft, got %s", doc.Status)
	}
}

func TestDocumentUseCase_CreateBillUsesOwnSequence(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()

	input := vatInvoiceInput()
	input.Kind = domain.DocumentKindBill
	input.CounterpartyID = "supp-7"

	bill, err := f.uc.CreateDocument(ctx, input)
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if bill.Number != "BIL-2026-00001" {
		t.Errorf("expected BIL-2026-00001, got %s", bill.Number)
	}

	if bill.Kind != domain.DocumentKindBill {
		t.Errorf("expected bill, got %s", bill.Kind)
	}
}

func TestDocumentUseCase_Lifecycle(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()

	doc, err := f.uc.CreateDocument(ctx, vatInvoiceInput())
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if _, err := f.uc.Submit(ctx, doc.ID, "thabo"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	approved, err := f.uc.Approve(ctx, doc.ID, "lerato")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if approved.Status != domain.DocumentStatusApproved {
		t.Errorf("expected approved, got %s", approved.Status)
	}

	// Line items are frozen once submitted.
	_, err = f.uc.AddLineItem(ctx, doc.ID, usecase.LineItemInput{
		Description: "late addition",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(10),
		Currency:    domain.CurrencyZAR,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestDocumentUseCase_MarkOverdue(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()

	doc, err := f.uc.CreateDocument(ctx, vatInvoiceInput())
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if _, err := f.uc.Submit(ctx, doc.ID, "thabo"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.uc.Approve(ctx, doc.ID, "lerato"); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	// Nothing due yet.
	marked, err := f.uc.MarkOverdue(ctx, 100)
	if err != nil {
		t.Fatalf("MarkOverdue: %v", err)
	}
	if marked != 0 {
		t.Errorf("expected nothing marked before due date, got %d", marked)
	}

	f.clock.Advance(45 * 24 * time.Hour)

	marked, err = f.uc.MarkOverdue(ctx, 100)
	if err != nil {
		t.Fatalf("MarkOverdue: %v", err)
	}
	if marked != 1 {
		t.Fatalf("expected one document marked, got %d", marked)
	}

	refreshed, err := f.uc.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}

	if refreshed.Status != domain.DocumentStatusOverdue {
		t.Errorf("expected overdue, got %s", refreshed.Status)
	}

	events := f.outbox.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypeDocumentOverdue {
		t.Fatalf("expected one document.overdue event, got %d", len(events))
	}

	// Sweep is idempotent.
	marked, err = f.uc.MarkOverdue(ctx, 100)
	if err != nil {
		t.Fatalf("MarkOverdue: %v", err)
	}
	if marked != 0 {
		t.Errorf("expected repeated sweep to mark nothing, got %d", marked)
	}
}

func TestDocumentUseCase_CancelPaidFails(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()

	doc, err := f.uc.CreateDocument(ctx, vatInvoiceInput())
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if _, err := f.uc.Submit(ctx, doc.ID, "thabo"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.uc.Approve(ctx, doc.ID, "lerato"); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	stored, err := f.uc.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}

	settle, err := domain.NewMoneyFromString("115", domain.CurrencyZAR)
	if err != nil {
		t.Fatalf("NewMoneyFromString: %v", err)
	}

	if err := stored.RecordPayment(settle, fixedTime); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	if _, err := f.uc.Cancel(ctx, doc.ID, "thabo"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}
