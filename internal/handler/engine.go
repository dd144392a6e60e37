// Package handler implements the HTTP endpoints of the scoring engine
// facade: assessment, remediation, processing, the standards catalogue, and
// run history.
package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ndmokit/ndmokit/internal/config"
	"github.com/ndmokit/ndmokit/internal/history"
	"github.com/ndmokit/ndmokit/internal/infer"
	"github.com/ndmokit/ndmokit/internal/model"
	"github.com/ndmokit/ndmokit/internal/process"
	"github.com/ndmokit/ndmokit/internal/remediate"
	"github.com/ndmokit/ndmokit/internal/scorer"

	"github.com/google/uuid"
)

// EngineHandler serves the assessment, remediation, and processing
// endpoints. The history store is optional; a nil store disables run
// persistence.
type EngineHandler struct {
	inf   *infer.Inferrer
	sc    *scorer.Scorer
	rem   *remediate.Pipeline
	proc  *process.Pipeline
	store *history.Store
	log   *slog.Logger
}

// NewEngineHandler wires the engine components behind the HTTP surface.
func NewEngineHandler(cfg config.Config, sc *scorer.Scorer, store *history.Store, log *slog.Logger) *EngineHandler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &EngineHandler{
		inf:   infer.New(cfg.Inference),
		sc:    sc,
		rem:   remediate.New(sc, cfg, log),
		proc:  process.New(sc, cfg, log),
		store: store,
		log:   log,
	}
}

// engineRequest is the shared request body: a schema, a dataset, or both.
// When the schema is absent it is inferred from the dataset.
type engineRequest struct {
	TableName string         `json:"table_name"`
	Schema    *model.Schema  `json:"schema,omitempty"`
	Dataset   *model.Dataset `json:"dataset,omitempty"`
}

// resolve validates the request and infers a schema when none was supplied.
func (h *EngineHandler) resolve(req *engineRequest, needDataset bool) (*model.Schema, *model.Dataset, string) {
	if req.Schema == nil && req.Dataset == nil {
		return nil, nil, "request must include a schema, a dataset, or both"
	}
	if needDataset && req.Dataset == nil {
		return nil, nil, "request must include a dataset"
	}
	if req.Dataset != nil && len(req.Dataset.Columns) == 0 {
		return nil, nil, "dataset must declare its columns"
	}

	schema := req.Schema
	if schema == nil {
		name := req.TableName
		if name == "" {
			name = "dataset"
		}
		schema = h.inf.Dataset(name, req.Dataset)
	}
	if req.TableName != "" {
		schema.TableName = req.TableName
	}
	return schema, req.Dataset, ""
}

// Assess runs a compliance assessment: schema-only, or data-aware when the
// request carries a dataset.
func (h *EngineHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req engineRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	schema, ds, problem := h.resolve(&req, false)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	var a model.Assessment
	if ds != nil {
		a = h.sc.AssessWithData(schema, ds)
	} else {
		a = h.sc.Assess(schema)
	}

	runID := uuid.Must(uuid.NewV7())
	h.persist(r, runID, history.KindAssessment, schema.TableName, a.OverallScore, string(a.Status), a)

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":     runID,
		"table_name": schema.TableName,
		"schema":     schema,
		"assessment": a,
	})
}

// Remediate runs the remediation pipeline and returns the staged report.
func (h *EngineHandler) Remediate(w http.ResponseWriter, r *http.Request) {
	var req engineRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	schema, ds, problem := h.resolve(&req, false)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	res := h.rem.Run(schema, ds)
	h.persist(r, res.RunID, history.KindRemediation, schema.TableName, res.After.OverallScore, string(res.After.Status), res)
	writeJSON(w, http.StatusOK, res)
}

// Process runs the data processing pipeline. Missing required columns are a
// structural error: a 422 with no partial result.
func (h *EngineHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req engineRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	schema, ds, problem := h.resolve(&req, true)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	res, err := h.proc.Run(schema, ds)
	if err != nil {
		var se *model.StructuralError
		if errors.As(err, &se) {
			writeError(w, http.StatusUnprocessableEntity, se.Error(), map[string]any{
				"table_name":      se.TableName,
				"missing_columns": se.MissingColumns,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.persist(r, res.RunID, history.KindProcessing, schema.TableName, res.Assessment.OverallScore, string(res.Assessment.Status), res)
	writeJSON(w, http.StatusOK, res)
}

// persist saves a run when a store is configured. Persistence failures are
// logged, never surfaced: the caller already has the full result.
func (h *EngineHandler) persist(r *http.Request, id uuid.UUID, kind, table string, score float64, status string, payload any) {
	if h.store == nil {
		return
	}
	if err := h.store.SaveRun(r.Context(), id, kind, table, score, status, payload); err != nil {
		h.log.Error("persist run", "run_id", id, "kind", kind, "error", err)
	}
}
