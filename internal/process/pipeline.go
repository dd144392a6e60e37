// Package process applies a schema to a dataset in seven ordered stages:
// structure validation, schema validation, type conversion, quality
// analysis, quality improvement, a data-aware compliance check, and a
// finalize step that assembles the before/after comparison. The pipeline
// works on its own copy of the dataset; only a missing required column is
// fatal, every other failure degrades to a counted violation or a stage
// warning.
package process

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ndmokit/ndmokit/internal/config"
	"github.com/ndmokit/ndmokit/internal/infer"
	"github.com/ndmokit/ndmokit/internal/model"
	"github.com/ndmokit/ndmokit/internal/scorer"
)

// Stage names, in execution order.
const (
	StageStructure   = "structure_validation"
	StageSchema      = "schema_validation"
	StageConvert     = "type_conversion"
	StageAnalysis    = "quality_analysis"
	StageImprovement = "quality_improvement"
	StageCompliance  = "compliance_check"
	StageFinalize    = "finalize"
)

// StageReport is the per-stage slice of a processing run. Only the fields
// the stage produces are set.
type StageReport struct {
	Stage              string                 `json:"stage"`
	Violations         map[string]int         `json:"violations,omitempty"`
	ConversionFailures map[string]int         `json:"conversion_failures,omitempty"`
	Metrics            *model.QualityMetrics  `json:"metrics,omitempty"`
	Assessment         *model.Assessment      `json:"assessment,omitempty"`
	Improvement        *improvement           `json:"improvement,omitempty"`
	Warning            *model.StageWarning    `json:"warning,omitempty"`
}

// Result is the full processing report: the processed dataset, both metric
// snapshots with deltas, the data-aware assessment, and every per-stage
// count.
type Result struct {
	RunID              uuid.UUID            `json:"run_id"`
	TableName          string               `json:"table_name"`
	Stages             []StageReport        `json:"stages"`
	Dataset            *model.Dataset       `json:"dataset"`
	Before             model.QualityMetrics `json:"before"`
	After              model.QualityMetrics `json:"after"`
	Deltas             model.MetricDeltas   `json:"deltas"`
	Assessment         model.Assessment     `json:"assessment"`
	RowsIn             int                  `json:"rows_in"`
	RowsOut            int                  `json:"rows_out"`
	Violations         map[string]int       `json:"violations,omitempty"`
	ConversionFailures int                  `json:"conversion_failures"`
	CellsFilled        int                  `json:"cells_filled"`
	CellsNormalized    int                  `json:"cells_normalized"`
	DuplicatesRemoved  int                  `json:"duplicates_removed"`
	Warnings           []model.StageWarning `json:"warnings,omitempty"`
}

// Pipeline runs datasets through the processing stages with a shared scorer.
type Pipeline struct {
	sc  *scorer.Scorer
	cfg config.Config
	log *slog.Logger
}

// New builds a processing pipeline. A nil logger discards.
func New(sc *scorer.Scorer, cfg config.Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{sc: sc, cfg: cfg, log: log}
}

// Run processes a copy of the dataset against the schema. It returns a
// *model.StructuralError with no partial result when required columns are
// missing; every other condition is reported on the Result.
func (p *Pipeline) Run(schema *model.Schema, dataset *model.Dataset) (*Result, error) {
	// Stage 1: required columns must exist before anything else runs.
	if err := validateStructure(schema, dataset); err != nil {
		return nil, err
	}

	ds := dataset.Clone()
	res := &Result{
		RunID:     uuid.Must(uuid.NewV7()),
		TableName: schema.TableName,
		RowsIn:    len(dataset.Rows),
	}
	res.Stages = append(res.Stages, StageReport{Stage: StageStructure})

	corrected := 0

	// Stage 2: per-cell violations, counted not fatal.
	p.guarded(res, StageSchema, func(sr *StageReport) {
		sr.Violations = validateCells(schema, ds)
		res.Violations = sr.Violations
	})

	// Stage 3: coerce cells to declared types; failures become nulls.
	p.guarded(res, StageConvert, func(sr *StageReport) {
		sr.ConversionFailures = convertDataset(schema, ds)
		for _, n := range sr.ConversionFailures {
			res.ConversionFailures += n
		}
		corrected += res.ConversionFailures
	})

	// Stage 4: the before-improvement metrics snapshot.
	p.guarded(res, StageAnalysis, func(sr *StageReport) {
		m := ComputeMetrics(schema, ds, p.cfg.MetricWeights, corrected)
		sr.Metrics = &m
		res.Before = m
	})

	// Stage 5: deterministic fixes.
	p.guarded(res, StageImprovement, func(sr *StageReport) {
		im := improveDataset(schema, ds)
		sr.Improvement = &im
		res.CellsFilled = im.CellsFilled
		res.CellsNormalized = im.CellsNormalized
		res.DuplicatesRemoved = im.RowsDeduped
		corrected += im.Touched()
	})

	// Stage 6: data-aware compliance assessment.
	p.guarded(res, StageCompliance, func(sr *StageReport) {
		a := p.sc.AssessWithData(schema, ds)
		sr.Assessment = &a
		res.Assessment = a
	})

	// Stage 7: the after snapshot and the comparison.
	p.guarded(res, StageFinalize, func(sr *StageReport) {
		m := ComputeMetrics(schema, ds, p.cfg.MetricWeights, corrected)
		sr.Metrics = &m
		res.After = m
		res.Deltas = model.Delta(res.Before, res.After)
	})

	res.Dataset = ds
	res.RowsOut = len(ds.Rows)

	p.log.Info("processing complete",
		"run_id", res.RunID,
		"table", schema.TableName,
		"rows_in", res.RowsIn,
		"rows_out", res.RowsOut,
		"conversion_failures", res.ConversionFailures,
		"quality_before", res.Before.OverallScore,
		"quality_after", res.After.OverallScore)
	return res, nil
}

// guarded runs one stage, converting a panic into a stage warning so the run
// continues on the last valid state.
func (p *Pipeline) guarded(res *Result, name string, fn func(*StageReport)) {
	sr := StageReport{Stage: name}
	func() {
		defer func() {
			if r := recover(); r != nil {
				w := model.StageWarning{Stage: name, Message: fmt.Sprintf("stage failed: %v", r)}
				sr.Warning = &w
				res.Warnings = append(res.Warnings, w)
				p.log.Warn("processing stage failed", "run_id", res.RunID, "stage", name, "panic", fmt.Sprint(r))
			}
		}()
		fn(&sr)
	}()
	res.Stages = append(res.Stages, sr)
}

// validateStructure checks that every required schema column exists in the
// dataset. Columns the remediation pipeline synthesized (those carrying a
// default) are exempt: their values are fillable.
func validateStructure(s *model.Schema, ds *model.Dataset) error {
	var missing []string
	for _, col := range s.Columns {
		if col.Nullable || col.Default != nil {
			continue
		}
		if !ds.HasColumn(col.Name) {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return &model.StructuralError{TableName: s.TableName, MissingColumns: missing}
	}
	return nil
}

// validateCells counts, per column, the cells failing their type or
// constraint checks.
func validateCells(s *model.Schema, ds *model.Dataset) map[string]int {
	violations := make(map[string]int)
	for _, col := range s.Columns {
		if !ds.HasColumn(col.Name) {
			continue
		}
		for _, row := range ds.Rows {
			if !infer.Conforms(col, row[col.Name]) {
				violations[col.Name]++
			}
		}
	}
	return violations
}
