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

// DocumentHandler handles invoice and bill HTTP requests. One handler
// instance serves one document kind so the same routes can be mounted
// under /invoices and /bills.
type DocumentHandler struct {
	documentUC *usecase.DocumentUseCase
	kind       domain.DocumentKind
}

// NewDocumentHandler creates a DocumentHandler for the given kind.
func NewDocumentHandler(documentUC *usecase.DocumentUseCase, kind domain.DocumentKind) *DocumentHandler {
	return &DocumentHandler{documentUC: documentUC, kind: kind}
}

// Create creates a draft document.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	doc, err := h.documentUC.CreateDocument(r.Context(), req.ToUseCaseInput(h.kind))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create document", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.DocumentFromDomain(doc))
}

// Get retrieves a document by ID.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document ID", "")
		return
	}

	doc, err := h.documentUC.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get document", err.Error())
		return
	}

	if doc.Kind != h.kind {
		writeError(w, http.StatusNotFound, "failed to get document", domain.ErrDocumentNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc))
}

// List lists documents of this handler's kind.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documentUC.ListDocuments(r.Context(), usecase.ListDocumentsInput{
		Kind:   h.kind,
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentsFromDomain(docs))
}

// AddLineItem adds a line item to a draft document.
func (h *DocumentHandler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.AddLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	doc, err := h.documentUC.AddLineItem(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to add line item", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc))
}

// UpdateLineItem replaces a line item on a draft document.
func (h *DocumentHandler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lineID := chi.URLParam(r, "lineID")

	var req dto.AddLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	doc, err := h.documentUC.UpdateLineItem(r.Context(), id, lineID, req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update line item", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc))
}

// RemoveLineItem deletes a line item from a draft document.
func (h *DocumentHandler) RemoveLineItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lineID := chi.URLParam(r, "lineID")

	doc, err := h.documentUC.RemoveLineItem(r.Context(), id, lineID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to remove line item", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc))
}

// Submit submits a draft document for approval.
func (h *DocumentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.documentUC.Submit)
}

// Approve approves a submitted document.
func (h *DocumentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.documentUC.Approve)
}

// Cancel cancels an unpaid document.
func (h *DocumentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.documentUC.Cancel)
}

func (h *DocumentHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id, by string) (*domain.Document, error),
) {
	id := chi.URLParam(r, "id")

	var req dto.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	doc, err := fn(r.Context(), id, req.By)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update document", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc))
}
