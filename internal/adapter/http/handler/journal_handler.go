package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kasbook/kasbook/internal/adapter/http/dto"
	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/usecase"
)

// JournalHandler handles journal entry HTTP requests.
type JournalHandler struct {
	journalUC *usecase.JournalUseCase
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journalUC *usecase.JournalUseCase) *JournalHandler {
	return &JournalHandler{journalUC: journalUC}
}

// Create creates a draft journal entry.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.journalUC.CreateJournal(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create journal entry", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalFromDomain(entry))
}

// Get retrieves a journal entry by ID.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing journal ID", "")
		return
	}

	entry, err := h.journalUC.GetJournal(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get journal entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalFromDomain(entry))
}

// List lists journal entries.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.journalUC.ListJournals(r.Context(), usecase.ListJournalsInput{
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list journal entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalsFromDomain(entries))
}

// AddLine adds a line to a draft journal entry.
func (h *JournalHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.AddJournalLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.journalUC.AddLine(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to add journal line", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalFromDomain(entry))
}

// UpdateLine replaces a line on a draft journal entry.
func (h *JournalHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lineID := chi.URLParam(r, "lineID")

	var req dto.AddJournalLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.journalUC.UpdateLine(r.Context(), id, lineID, req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update journal line", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalFromDomain(entry))
}

// RemoveLine deletes a line from a draft journal entry.
func (h *JournalHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lineID := chi.URLParam(r, "lineID")

	entry, err := h.journalUC.RemoveLine(r.Context(), id, lineID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to remove journal line", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalFromDomain(entry))
}

// Submit submits a draft journal entry.
func (h *JournalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.journalUC.Submit)
}

// Approve approves a submitted journal entry and posts it.
func (h *JournalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.journalUC.Approve)
}

// Post posts an approved journal entry.
func (h *JournalHandler) Post(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.journalUC.Post)
}

// Cancel cancels a draft or submitted journal entry.
func (h *JournalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.journalUC.Cancel)
}

// Reverse creates the posted mirror of a posted journal entry.
func (h *JournalHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	mirror, err := h.journalUC.Reverse(r.Context(), id, req.By)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reverse journal entry", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalFromDomain(mirror))
}

func (h *JournalHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id, by string) (*domain.JournalEntry, error),
) {
	id := chi.URLParam(r, "id")

	var req dto.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := fn(r.Context(), id, req.By)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update journal entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalFromDomain(entry))
}
