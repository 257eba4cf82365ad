package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kasbook/kasbook/internal/adapter/http/dto"
	"github.com/kasbook/kasbook/internal/adapter/http/handler"
	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/usecase"
	"github.com/kasbook/kasbook/internal/usecase/mocks"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	txManager := mocks.NewMockTransactionManager()
	ledgerRepo := mocks.NewMockLedgerRepository()
	documentRepo := mocks.NewMockDocumentRepository()
	sequences := mocks.NewMockSequenceRepository()
	outbox := mocks.NewMockOutboxRepository()
	audit := mocks.NewMockAuditRepository()
	idGen := mocks.NewMockIDGenerator()
	clock := mocks.NewMockClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))

	journalUC := usecase.NewJournalUseCase(txManager, mocks.NewMockJournalRepository(), ledgerRepo, sequences, outbox, audit, idGen, clock)
	documentUC := usecase.NewDocumentUseCase(txManager, documentRepo, sequences, outbox, audit, idGen, clock)
	paymentUC := usecase.NewPaymentUseCase(txManager, mocks.NewMockPaymentRepository(), documentRepo, sequences, outbox, audit, idGen, clock)
	ledgerUC := usecase.NewLedgerUseCase(txManager, ledgerRepo, audit, idGen, clock)

	return NewRouter(RouterConfig{
		JournalHandler: handler.NewJournalHandler(journalUC),
		InvoiceHandler: handler.NewDocumentHandler(documentUC, domain.DocumentKindInvoice),
		BillHandler:    handler.NewDocumentHandler(documentUC, domain.DocumentKindBill),
		PaymentHandler: handler.NewPaymentHandler(paymentUC),
		LedgerHandler:  handler.NewLedgerHandler(ledgerUC, documentUC, nil),
		HealthHandler:  handler.NewHealthHandler(nil, nil),
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_JournalRoutes(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(dto.CreateJournalRequest{
		Description: "Opening stock purchase",
		EntryDate:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		CreatedBy:   "thabo",
		Lines: []dto.JournalLineRequest{
			{AccountID: "acct-stock", Side: "debit", Amount: decimal.NewFromInt(100), Currency: "ZAR"},
			{AccountID: "acct-bank", Side: "credit", Amount: decimal.NewFromInt(100), Currency: "ZAR"},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/journals", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created dto.JournalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/journals/"+created.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	action, _ := json.Marshal(dto.ActionRequest{By: "thabo"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/journals/"+created.ID+"/submit", bytes.NewReader(action))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on submit, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_DocumentAndLedgerRoutes(t *testing.T) {
	router := newTestRouter(t)

	vat := decimal.NewFromInt(15)
	body, _ := json.Marshal(dto.CreateDocumentRequest{
		CounterpartyID: "cust-42",
		IssueDate:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		Currency:       "ZAR",
		CreatedBy:      "thabo",
		Lines: []dto.LineItemRequest{
			{Description: "Consulting hours", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50), Currency: "ZAR", TaxPercentage: &vat},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/ledger/consistency", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on consistency, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/overdue-sweep", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on sweep, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
