// Package standards holds the NDMO compliance standards catalogue: weighted,
// possibly-critical rules evaluated against a schema and (optionally) a
// dataset. The catalogue is built once and read-only afterwards; tests can
// construct custom registries with their own standard sets.
package standards

import (
	"fmt"
	"sort"

	"github.com/ndmokit/ndmokit/internal/model"
)

// Category groups standards for weighted aggregation.
type Category string

const (
	Governance    Category = "Governance"
	Quality       Category = "Quality"
	Security      Category = "Security"
	Architecture  Category = "Architecture"
	BusinessRules Category = "BusinessRules"
)

// Categories lists all categories in reporting order.
func Categories() []Category {
	return []Category{Governance, Quality, Security, Architecture, BusinessRules}
}

// EvaluatorFunc scores a schema (and optional dataset) for one standard.
// It returns the raw score in [0,1], a human-readable message, and the
// columns the finding concerns. Evaluators are pure: they depend only on
// their arguments.
type EvaluatorFunc func(s *model.Schema, ds *model.Dataset) (score float64, message string, affected []string)

// Standard is one NDMO compliance rule.
type Standard struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Requirement string   `json:"requirement"`
	Threshold   float64  `json:"threshold"`
	Weight      float64  `json:"weight"` // category-local, normalized by the scorer
	Critical    bool     `json:"critical"`

	eval EvaluatorFunc
}

// NewStandard constructs a standard with its evaluator. Mostly useful for
// custom registries; the built-in catalogue constructs its standards
// directly.
func NewStandard(id, name string, cat Category, threshold, weight float64, critical bool, eval EvaluatorFunc) Standard {
	return Standard{
		ID:        id,
		Name:      name,
		Category:  cat,
		Threshold: threshold,
		Weight:    weight,
		Critical:  critical,
		eval:      eval,
	}
}

// Evaluate runs the standard's evaluator and derives the pass verdict from
// its threshold.
func (s Standard) Evaluate(schema *model.Schema, ds *model.Dataset) model.ComplianceResult {
	score, msg, affected := s.eval(schema, ds)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return model.ComplianceResult{
		StandardID:      s.ID,
		Passed:          score >= s.Threshold,
		Score:           score,
		Message:         msg,
		AffectedColumns: affected,
	}
}

// Registry is the read-only catalogue of standards.
type Registry struct {
	standards []Standard
	byID      map[string]int
}

// NewRegistry builds the default NDMO catalogue.
func NewRegistry() *Registry {
	reg, err := NewCustomRegistry(Catalogue())
	if err != nil {
		// The built-in catalogue has unique IDs; this cannot happen.
		panic(err)
	}
	return reg
}

// NewCustomRegistry builds a registry from an explicit standard set, mainly
// for tests. IDs must be unique and weights positive.
func NewCustomRegistry(stds []Standard) (*Registry, error) {
	r := &Registry{
		standards: make([]Standard, len(stds)),
		byID:      make(map[string]int, len(stds)),
	}
	copy(r.standards, stds)
	for i, s := range r.standards {
		if s.Weight <= 0 {
			return nil, fmt.Errorf("standard %s: weight must be positive", s.ID)
		}
		if s.eval == nil {
			return nil, fmt.Errorf("standard %s: missing evaluator", s.ID)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate standard id %s", s.ID)
		}
		r.byID[s.ID] = i
	}
	return r, nil
}

// All returns every standard sorted by ID.
func (r *Registry) All() []Standard {
	out := append([]Standard(nil), r.standards...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the standard with the given ID.
func (r *Registry) Get(id string) (Standard, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Standard{}, false
	}
	return r.standards[i], true
}

// ByCategory returns the standards in a category sorted by ID.
func (r *Registry) ByCategory(c Category) []Standard {
	var out []Standard
	for _, s := range r.standards {
		if s.Category == c {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Critical returns all critical standards sorted by ID.
func (r *Registry) Critical() []Standard {
	var out []Standard
	for _, s := range r.standards {
		if s.Critical {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of standards.
func (r *Registry) Len() int {
	return len(r.standards)
}
