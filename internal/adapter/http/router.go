package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kasbook/kasbook/internal/adapter/http/handler"
	"github.com/kasbook/kasbook/internal/adapter/http/middleware"
	"github.com/kasbook/kasbook/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	JournalHandler    *handler.JournalHandler
	InvoiceHandler    *handler.DocumentHandler
	BillHandler       *handler.DocumentHandler
	PaymentHandler    *handler.PaymentHandler
	LedgerHandler     *handler.LedgerHandler
	HealthHandler     *handler.HealthHandler
	LoggingMiddleware *middleware.LoggingMiddleware
	IdempotencyStore  usecase.IdempotencyStore
	RateLimiter       *middleware.RateLimiter
	MetricsHandler    http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware.Wrap)
	} else {
		r.Use(chimiddleware.Logger)
	}

	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Journal entries
		r.Route("/journals", func(r chi.Router) {
			r.Post("/", cfg.JournalHandler.Create)
			r.Get("/", cfg.JournalHandler.List)
			r.Get("/{id}", cfg.JournalHandler.Get)
			r.Post("/{id}/lines", cfg.JournalHandler.AddLine)
			r.Put("/{id}/lines/{lineID}", cfg.JournalHandler.UpdateLine)
			r.Delete("/{id}/lines/{lineID}", cfg.JournalHandler.RemoveLine)
			r.Post("/{id}/submit", cfg.JournalHandler.Submit)
			r.Post("/{id}/approve", cfg.JournalHandler.Approve)
			r.Post("/{id}/post", cfg.JournalHandler.Post)
			r.Post("/{id}/reverse", cfg.JournalHandler.Reverse)
			r.Post("/{id}/cancel", cfg.JournalHandler.Cancel)
		})

		// Invoices and bills share the document routes
		r.Route("/invoices", documentRoutes(cfg.InvoiceHandler))
		r.Route("/bills", documentRoutes(cfg.BillHandler))

		// Payments
		r.Route("/payments", func(r chi.Router) {
			r.Post("/", cfg.PaymentHandler.Create)
			r.Get("/", cfg.PaymentHandler.List)
			r.Get("/{id}", cfg.PaymentHandler.Get)
			r.Post("/{id}/allocations", cfg.PaymentHandler.AddAllocation)
			r.Delete("/{id}/allocations/{allocationID}", cfg.PaymentHandler.RemoveAllocation)
			r.Post("/{id}/complete", cfg.PaymentHandler.Complete)
			r.Post("/{id}/refund", cfg.PaymentHandler.Refund)
			r.Post("/{id}/cancel", cfg.PaymentHandler.Cancel)
		})

		// General ledger
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/balances", cfg.LedgerHandler.ListBalances)
			r.Get("/balances/{accountID}", cfg.LedgerHandler.GetBalance)
			r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
			r.Post("/close", cfg.LedgerHandler.ClosePeriod)
		})

		// Maintenance
		r.Post("/admin/overdue-sweep", cfg.LedgerHandler.SweepOverdue)
	})

	return r
}

func documentRoutes(h *handler.DocumentHandler) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/lines", h.AddLineItem)
		r.Put("/{id}/lines/{lineID}", h.UpdateLineItem)
		r.Delete("/{id}/lines/{lineID}", h.RemoveLineItem)
		r.Post("/{id}/submit", h.Submit)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/cancel", h.Cancel)
	}
}
