package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ndmokit/ndmokit/internal/history"
)

// RunsHandler serves persisted run history.
type RunsHandler struct {
	store *history.Store
}

// NewRunsHandler wraps a history store.
func NewRunsHandler(store *history.Store) *RunsHandler {
	return &RunsHandler{store: store}
}

// List returns past runs newest first, filterable by ?kind= and ?table=.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context(),
		queryString(r, "kind"),
		queryString(r, "table"),
		queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// Get returns one run with its full payload.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}
