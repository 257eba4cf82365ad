package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	adaptershttp "github.com/kasbook/kasbook/internal/adapter/http"
	"github.com/kasbook/kasbook/internal/adapter/http/handler"
	postgresrepo "github.com/kasbook/kasbook/internal/adapter/repository/postgres"
	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/infrastructure/clock"
	"github.com/kasbook/kasbook/internal/usecase"
	"github.com/kasbook/kasbook/tests/testutil"
)

// testEnv wires the full HTTP stack over a live database.
type testEnv struct {
	db     *testutil.TestDB
	router http.Handler
	outbox *postgresrepo.OutboxRepository
	audit  *postgresrepo.AuditRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)
	db.TruncateAll(context.Background())

	pool := db.Pool
	txManager := postgresrepo.NewTxManager(pool)
	journalRepo := postgresrepo.NewJournalRepository(pool)
	documentRepo := postgresrepo.NewDocumentRepository(pool)
	paymentRepo := postgresrepo.NewPaymentRepository(pool)
	ledgerRepo := postgresrepo.NewLedgerRepository(pool)
	sequenceRepo := postgresrepo.NewSequenceRepository(pool)
	outboxRepo := postgresrepo.NewOutboxRepository(pool)
	auditRepo := postgresrepo.NewAuditRepository(pool)
	idGen := postgresrepo.NewULIDGenerator()
	systemClock := clock.New()

	journalUC := usecase.NewJournalUseCase(txManager, journalRepo, ledgerRepo, sequenceRepo, outboxRepo, auditRepo, idGen, systemClock).
		WithRetrier(postgresrepo.NewRetrier())
	documentUC := usecase.NewDocumentUseCase(txManager, documentRepo, sequenceRepo, outboxRepo, auditRepo, idGen, systemClock)
	paymentUC := usecase.NewPaymentUseCase(txManager, paymentRepo, documentRepo, sequenceRepo, outboxRepo, auditRepo, idGen, systemClock)
	ledgerUC := usecase.NewLedgerUseCase(txManager, ledgerRepo, auditRepo, idGen, systemClock)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		JournalHandler: handler.NewJournalHandler(journalUC),
		InvoiceHandler: handler.NewDocumentHandler(documentUC, domain.DocumentKindInvoice),
		BillHandler:    handler.NewDocumentHandler(documentUC, domain.DocumentKindBill),
		PaymentHandler: handler.NewPaymentHandler(paymentUC),
		LedgerHandler:  handler.NewLedgerHandler(ledgerUC, documentUC, nil),
		HealthHandler:  handler.NewHealthHandler(pool, nil),
	})

	return &testEnv{
		db:     db,
		router: router,
		outbox: outboxRepo,
		audit:  auditRepo,
	}
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "marshal request body")
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "decode response %q", rec.Body.String())
}
