package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kasbook/kasbook/internal/adapter/http/dto"
	"github.com/kasbook/kasbook/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrJournalNotFound),
		errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrLineNotFound),
		errors.Is(err, domain.ErrAllocationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyReversed),
		errors.Is(err, domain.ErrPeriodClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPaymentExceedsOutstanding),
		errors.Is(err, domain.ErrRefundExceedsPayment),
		errors.Is(err, domain.ErrNotBalanced),
		errors.Is(err, domain.ErrTooFewLines),
		errors.Is(err, domain.ErrNoLineItems):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidAmountFormat),
		errors.Is(err, domain.ErrInvalidSide),
		errors.Is(err, domain.ErrInvalidTaxRate),
		errors.Is(err, domain.ErrInvalidLineItem),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidDescription),
		errors.Is(err, domain.ErrInvalidReference):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
