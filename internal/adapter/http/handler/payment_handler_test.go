package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kasbook/kasbook/internal/adapter/http/dto"
	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/usecase"
	"github.com/kasbook/kasbook/internal/usecase/mocks"
)

type paymentHandlerFixture struct {
	payments  *PaymentHandler
	invoices  *DocumentHandler
	documents *mocks.MockDocumentRepository
}

func newPaymentHandlerFixture() *paymentHandlerFixture {
	f := &paymentHandlerFixture{
		documents: mocks.NewMockDocumentRepository(),
	}

	txManager := mocks.NewMockTransactionManager()
	sequences := mocks.NewMockSequenceRepository()
	outbox := mocks.NewMockOutboxRepository()
	audit := mocks.NewMockAuditRepository()
	idGen := mocks.NewMockIDGenerator()
	clock := mocks.NewMockClock(handlerTime)

	documentUC := usecase.NewDocumentUseCase(txManager, f.documents, sequences, outbox, audit, idGen, clock)
	paymentUC := usecase.NewPaymentUseCase(txManager, mocks.NewMockPaymentRepository(), f.documents, sequences, outbox, audit, idGen, clock)

	f.payments = NewPaymentHandler(paymentUC)
	f.invoices = NewDocumentHandler(documentUC, domain.DocumentKindInvoice)

	return f
}

// approvedInvoiceID creates and approves a 115 ZAR invoice, returning its ID.
func approvedInvoiceID(t *testing.T, f *paymentHandlerFixture) string {
	t.Helper()

	body, _ := json.Marshal(vatInvoiceRequest())
	req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.invoices.Create(rec, req)

	var created dto.DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	action, _ := json.Marshal(dto.ActionRequest{By: "lerato"})
	for _, step := range []func(http.ResponseWriter, *http.Request){f.invoices.Submit, f.invoices.Approve} {
		req = httptest.NewRequest(http.MethodPost, "/invoices/"+created.ID, bytes.NewReader(action))
		req = setChiURLParam(req, "id", created.ID)
		rec = httptest.NewRecorder()
		step(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("invoice lifecycle failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	return created.ID
}

func TestPaymentHandler_CompleteAppliesAllocations(t *testing.T) {
	f := newPaymentHandlerFixture()
	invoiceID := approvedInvoiceID(t, f)

	body, _ := json.Marshal(dto.CreatePaymentRequest{
		Amount:    decimal.NewFromInt(60),
		Currency:  "ZAR",
		Method:    "eft",
		CreatedBy: "thabo",
		Allocations: []dto.AllocationRequest{
			{Target: "invoice", TargetID: invoiceID, Amount: decimal.NewFromInt(60)},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.payments.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created dto.PaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if created.Number != "PAY-2026-00001" {
		t.Fatalf("expected payment number, got %s", created.Number)
	}

	action, _ := json.Marshal(dto.ActionRequest{By: "thabo"})
	req = httptest.NewRequest(http.MethodPost, "/payments/"+created.ID+"/complete", bytes.NewReader(action))
	req = setChiURLParam(req, "id", created.ID)
	rec = httptest.NewRecorder()
	f.payments.Complete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on complete, got %d: %s", rec.Code, rec.Body.String())
	}

	invoice, err := f.documents.GetByID(req.Context(), invoiceID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if invoice.Status != domain.DocumentStatusPartiallyPaid {
		t.Fatalf("expected partially paid invoice, got %s", invoice.Status)
	}

	if !invoice.OutstandingAmount.Amount().Equal(decimal.NewFromInt(55)) {
		t.Fatalf("expected 55 outstanding, got %s", invoice.OutstandingAmount.Amount())
	}
}

func TestPaymentHandler_OverAllocatedCompleteFails(t *testing.T) {
	f := newPaymentHandlerFixture()
	invoiceID := approvedInvoiceID(t, f)

	body, _ := json.Marshal(dto.CreatePaymentRequest{
		Amount:    decimal.NewFromInt(200),
		Currency:  "ZAR",
		Method:    "eft",
		CreatedBy: "thabo",
		Allocations: []dto.AllocationRequest{
			{Target: "invoice", TargetID: invoiceID, Amount: decimal.NewFromInt(200)},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.payments.Create(rec, req)

	var created dto.PaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	action, _ := json.Marshal(dto.ActionRequest{By: "thabo"})
	req = httptest.NewRequest(http.MethodPost, "/payments/"+created.ID+"/complete", bytes.NewReader(action))
	req = setChiURLParam(req, "id", created.ID)
	rec = httptest.NewRecorder()
	f.payments.Complete(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 when allocation exceeds outstanding, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPaymentHandler_Refund(t *testing.T) {
	f := newPaymentHandlerFixture()
	invoiceID := approvedInvoiceID(t, f)

	body, _ := json.Marshal(dto.CreatePaymentRequest{
		Amount:    decimal.NewFromInt(115),
		Currency:  "ZAR",
		Method:    "card",
		CreatedBy: "thabo",
		Allocations: []dto.AllocationRequest{
			{Target: "invoice", TargetID: invoiceID, Amount: decimal.NewFromInt(115)},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.payments.Create(rec, req)

	var created dto.PaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	action, _ := json.Marshal(dto.ActionRequest{By: "thabo"})
	req = httptest.NewRequest(http.MethodPost, "/payments/"+created.ID+"/complete", bytes.NewReader(action))
	req = setChiURLParam(req, "id", created.ID)
	rec = httptest.NewRecorder()
	f.payments.Complete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on complete, got %d: %s", rec.Code, rec.Body.String())
	}

	refundBody, _ := json.Marshal(dto.RefundPaymentRequest{
		Amount: decimal.NewFromInt(115),
		Reason: "order cancelled",
		By:     "lerato",
	})
	req = httptest.NewRequest(http.MethodPost, "/payments/"+created.ID+"/refund", bytes.NewReader(refundBody))
	req = setChiURLParam(req, "id", created.ID)
	rec = httptest.NewRecorder()
	f.payments.Refund(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 on refund, got %d: %s", rec.Code, rec.Body.String())
	}

	var refund dto.PaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &refund); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if refund.Kind != "refund" || refund.Status != "completed" {
		t.Fatalf("expected completed refund, got kind=%s status=%s", refund.Kind, refund.Status)
	}

	if refund.RefundOfID == nil || *refund.RefundOfID != created.ID {
		t.Fatalf("expected refund to reference the payment, got %+v", refund.RefundOfID)
	}
}
