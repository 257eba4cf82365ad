package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kasbook/kasbook/internal/adapter/http/dto"
	"github.com/kasbook/kasbook/internal/usecase"
)

// LedgerHandler handles general ledger HTTP requests.
type LedgerHandler struct {
	ledgerUC   *usecase.LedgerUseCase
	documentUC *usecase.DocumentUseCase
	cache      usecase.Cache
}

// NewLedgerHandler creates a new LedgerHandler. The cache is optional and
// short-circuits repeated consistency scans; pass nil to disable it.
func NewLedgerHandler(ledgerUC *usecase.LedgerUseCase, documentUC *usecase.DocumentUseCase, cache usecase.Cache) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, documentUC: documentUC, cache: cache}
}

// GetBalance retrieves one account balance for a period.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	period, err := parsePeriodQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	balance, err := h.ledgerUC.GetBalance(r.Context(), accountID, period)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerBalanceFromDomain(balance))
}

// ListBalances lists account balances for a period.
func (h *LedgerHandler) ListBalances(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	balances, err := h.ledgerUC.ListBalances(r.Context(), usecase.ListBalancesInput{
		PeriodStart: period,
		Limit:       parseIntQuery(r, "limit", 20),
		Offset:      parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list balances", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerBalancesFromDomain(balances))
}

const consistencyCacheKey = "ledger:consistency"

// CheckConsistency verifies that total debits equal total credits.
// An inconsistent ledger returns 409 along with the totals. Consistent
// results are cached briefly since the check scans every balance row.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), consistencyCacheKey); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
	}

	report, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrInconsistentLedger) {
			writeJSON(w, http.StatusConflict, dto.ConsistencyFromReport(report))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to check consistency", err.Error())
		return
	}

	resp := dto.ConsistencyFromReport(report)

	if h.cache != nil {
		if body, err := json.Marshal(resp); err == nil {
			h.cache.Set(r.Context(), consistencyCacheKey, body, 30*time.Second)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ClosePeriod closes all open balances for a period and rolls their
// closing balances into the next period.
func (h *LedgerHandler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	var req dto.ClosePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	period := usecase.PeriodStart(req.PeriodStart)

	closed, err := h.ledgerUC.ClosePeriod(r.Context(), period, req.By)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to close period", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ClosePeriodResponse{
		PeriodStart:    period,
		AccountsClosed: closed,
	})
}

// SweepOverdue marks approved documents past their due date as overdue.
func (h *LedgerHandler) SweepOverdue(w http.ResponseWriter, r *http.Request) {
	marked, err := h.documentUC.MarkOverdue(r.Context(), parseIntQuery(r, "batch_size", 100))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to sweep overdue documents", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SweepResponse{Marked: marked})
}

// parsePeriodQuery reads the period query parameter as YYYY-MM,
// defaulting to the current month.
func parsePeriodQuery(r *http.Request) (time.Time, error) {
	val := r.URL.Query().Get("period")
	if val == "" {
		return usecase.PeriodStart(time.Now().UTC()), nil
	}

	t, err := time.Parse("2006-01", val)
	if err != nil {
		return time.Time{}, err
	}

	return t, nil
}
