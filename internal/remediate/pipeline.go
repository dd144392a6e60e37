// Package remediate rewrites a schema to close compliance gaps: key
// promotion, audit and lineage columns, type tightening, and security
// annotations, each as an isolated pipeline stage with its own snapshot. A
// failing stage becomes a no-op with a warning; the pipeline always runs to
// completion and reports before/after scores.
package remediate

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

// StageResult is the outcome of one pipeline stage: the schema snapshot
// after the stage ran, the structural changes it made, and the assessment it
// produced (analyze and validate stages only).
type StageResult struct {
	Stage      string              `json:"stage"`
	Schema     *model.Schema       `json:"schema"`
	Assessment *model.Assessment   `json:"assessment,omitempty"`
	Changes    []Change            `json:"changes,omitempty"`
	Warning    *model.StageWarning `json:"warning,omitempty"`
}

// Result is the full remediation report.
type Result struct {
	RunID         uuid.UUID           `json:"run_id"`
	TableName     string              `json:"table_name"`
	Stages        []StageResult       `json:"stages"`
	FinalSchema   *model.Schema       `json:"final_schema"`
	Before        model.Assessment    `json:"before"`
	After         model.Assessment    `json:"after"`
	Warnings      []model.StageWarning `json:"warnings,omitempty"`
	NoImprovement bool                 `json:"no_improvement"`
}

// Pipeline runs the remediation stages with a shared scorer and inferrer.
type Pipeline struct {
	sc  *scorer.Scorer
	inf *infer.Inferrer
	cfg config.Config
	log *slog.Logger
}

// New builds a remediation pipeline. A nil logger discards.
func New(sc *scorer.Scorer, cfg config.Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		sc:  sc,
		inf: infer.New(cfg.Inference),
		cfg: cfg,
		log: log,
	}
}

// Run executes all stages against a copy of the schema. The input schema is
// never mutated. A dataset, when provided, makes the before/after
// assessments data-aware; it is read-only to every stage.
func (p *Pipeline) Run(schema *model.Schema, ds *model.Dataset) *Result {
	st := &runState{schema: schema.Clone(), ds: ds}

	res := &Result{
		RunID:     uuid.Must(uuid.NewV7()),
		TableName: schema.TableName,
	}

	changed := false
	for _, stg := range pipelineStages() {
		snapshot := st.schema.Clone()

		if err := p.runStage(stg, st); err != nil {
			// Failed stages are no-ops: restore the snapshot and record
			// the warning, then keep going.
			st.schema = snapshot
			w := model.StageWarning{Stage: stg.name, Message: err.Error()}
			res.Warnings = append(res.Warnings, w)
			res.Stages = append(res.Stages, StageResult{
				Stage:   stg.name,
				Schema:  st.schema.Clone(),
				Warning: &w,
			})
			p.log.Warn("remediation stage failed", "run_id", res.RunID, "stage", stg.name, "error", err)
			continue
		}

		sr := StageResult{
			Stage:   stg.name,
			Schema:  st.schema.Clone(),
			Changes: Diff(snapshot, st.schema),
		}
		if len(sr.Changes) > 0 {
			changed = true
		}
		switch stg.name {
		case StageAnalyze:
			sr.Assessment = st.baseline
		case StageValidate:
			sr.Assessment = st.final
		}
		res.Stages = append(res.Stages, sr)
	}

	// A run where every stage was a no-op leaves the schema exactly as it
	// came in, version included.
	if changed {
		st.schema.Version++
	}
	res.FinalSchema = st.schema

	res.Before = p.ensureAssessment(st.baseline, st.backup, schema, ds)
	res.After = p.ensureAssessment(st.final, st.schema, st.schema, ds)
	res.NoImprovement = res.After.OverallScore <= res.Before.OverallScore &&
		res.After.OverallScore < 0.999

	p.log.Info("remediation complete",
		"run_id", res.RunID,
		"table", schema.TableName,
		"before", res.Before.OverallScore,
		"after", res.After.OverallScore,
		"warnings", len(res.Warnings),
		"no_improvement", res.NoImprovement)
	return res
}

// runStage executes one stage, containing panics so a broken stage degrades
// to a warning instead of aborting the run.
func (p *Pipeline) runStage(stg stage, st *runState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panicked: %v", r)
		}
	}()
	return stg.run(p, st)
}

func (p *Pipeline) assess(s *model.Schema, ds *model.Dataset) model.Assessment {
	if ds != nil {
		return p.sc.AssessWithData(s, ds)
	}
	return p.sc.Assess(s)
}

// ensureAssessment falls back to a fresh assessment when the analyze or
// validate stage was skipped by a failure.
func (p *Pipeline) ensureAssessment(a *model.Assessment, preferred, fallback *model.Schema, ds *model.Dataset) model.Assessment {
	if a != nil {
		return *a
	}
	s := preferred
	if s == nil {
		s = fallback
	}
	return p.assess(s, ds)
}
