package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndmokit/ndmokit/internal/standards"
)

// StandardsHandler serves the read-only standards catalogue.
type StandardsHandler struct {
	reg *standards.Registry
}

// NewStandardsHandler wraps a registry.
func NewStandardsHandler(reg *standards.Registry) *StandardsHandler {
	return &StandardsHandler{reg: reg}
}

// List returns every standard, optionally filtered by ?category=.
func (h *StandardsHandler) List(w http.ResponseWriter, r *http.Request) {
	if cat := queryString(r, "category"); cat != "" {
		stds := h.reg.ByCategory(standards.Category(cat))
		if len(stds) == 0 {
			writeError(w, http.StatusNotFound, "unknown category: "+cat)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"standards": stds})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"standards": h.reg.All()})
}

// Get returns a single standard by ID.
func (h *StandardsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "standardID")
	std, ok := h.reg.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown standard: "+id)
		return
	}
	writeJSON(w, http.StatusOK, std)
}
