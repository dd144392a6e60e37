// Package scorer aggregates per-standard compliance results into a single
// weighted assessment with a compliance status.
package scorer

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/ndmokit/ndmokit/internal/config"
	"github.com/ndmokit/ndmokit/internal/model"
	"github.com/ndmokit/ndmokit/internal/standards"
)

// Scorer evaluates a registry of standards against a schema and rolls the
// results up into category and overall scores.
type Scorer struct {
	reg *standards.Registry
	cfg config.Config
	log *slog.Logger
}

// New builds a scorer over the given registry. A nil logger discards.
func New(reg *standards.Registry, cfg config.Config, log *slog.Logger) *Scorer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scorer{reg: reg, cfg: cfg, log: log}
}

// Assess evaluates every standard against the schema alone.
func (sc *Scorer) Assess(schema *model.Schema) model.Assessment {
	return sc.assess(schema, nil)
}

// AssessWithData evaluates every standard against the schema and the dataset,
// letting data-aware evaluators verify declared properties against actual
// values.
func (sc *Scorer) AssessWithData(schema *model.Schema, ds *model.Dataset) model.Assessment {
	return sc.assess(schema, ds)
}

func (sc *Scorer) assess(schema *model.Schema, ds *model.Dataset) model.Assessment {
	a := model.Assessment{
		CategoryScores: make(map[string]float64),
		Results:        make(map[string]model.ComplianceResult, sc.reg.Len()),
		DataAware:      ds != nil,
		EvaluatedAt:    time.Now().UTC(),
	}

	type bucket struct {
		weighted float64
		weight   float64
	}
	buckets := make(map[standards.Category]*bucket)

	for _, std := range sc.reg.All() {
		res := sc.evaluate(std, schema, ds)
		a.Results[std.ID] = res

		b := buckets[std.Category]
		if b == nil {
			b = &bucket{}
			buckets[std.Category] = b
		}
		b.weighted += res.Score * std.Weight
		b.weight += std.Weight

		if !res.Passed && std.Critical {
			a.CriticalFailures = append(a.CriticalFailures, std.ID)
		}
	}
	sort.Strings(a.CriticalFailures)

	// Overall score is the category-weight-normalized mean over the
	// categories that actually contain standards.
	var overall, totalWeight float64
	for cat, b := range buckets {
		if b.weight == 0 {
			continue
		}
		catScore := b.weighted / b.weight
		a.CategoryScores[string(cat)] = catScore

		w := sc.categoryWeight(cat)
		overall += catScore * w
		totalWeight += w
	}
	if totalWeight > 0 {
		a.OverallScore = overall / totalWeight
	}

	a.Status = sc.status(a.OverallScore, len(a.CriticalFailures) > 0)
	a.Recommendations = sc.recommend(a)

	sc.log.Debug("assessment complete",
		"table", schema.TableName,
		"score", a.OverallScore,
		"status", a.Status,
		"critical_failures", len(a.CriticalFailures),
		"data_aware", a.DataAware)
	return a
}

// evaluate runs one standard, containing evaluator panics: a panicking
// evaluator records a failed result instead of taking the assessment down.
func (sc *Scorer) evaluate(std standards.Standard, schema *model.Schema, ds *model.Dataset) (res model.ComplianceResult) {
	defer func() {
		if r := recover(); r != nil {
			sc.log.Error("standard evaluator panicked", "standard", std.ID, "panic", fmt.Sprint(r))
			res = model.ComplianceResult{
				StandardID: std.ID,
				Passed:     false,
				Score:      0,
				Message:    fmt.Sprintf("evaluation failed: %v", r),
			}
		}
	}()
	return std.Evaluate(schema, ds)
}

// status maps the overall score to a compliance status. A critical failure
// caps the result at partially compliant regardless of score.
func (sc *Scorer) status(score float64, criticalFailed bool) model.ComplianceStatus {
	var st model.ComplianceStatus
	switch {
	case score >= sc.cfg.Thresholds.Compliant:
		st = model.StatusCompliant
	case score >= sc.cfg.Thresholds.Partial:
		st = model.StatusPartiallyCompliant
	default:
		st = model.StatusNonCompliant
	}
	if criticalFailed && st == model.StatusCompliant {
		st = model.StatusPartiallyCompliant
	}
	return st
}

func (sc *Scorer) categoryWeight(cat standards.Category) float64 {
	if w, ok := sc.cfg.CategoryWeights[string(cat)]; ok && w > 0 {
		return w
	}
	return 1
}
