package model

import "time"

// ComplianceStatus is the aggregate verdict of an assessment.
type ComplianceStatus string

const (
	StatusCompliant          ComplianceStatus = "compliant"
	StatusPartiallyCompliant ComplianceStatus = "partially_compliant"
	StatusNonCompliant       ComplianceStatus = "non_compliant"
)

// ComplianceResult is the outcome of evaluating one standard against a
// schema (and optionally a dataset).
type ComplianceResult struct {
	StandardID      string   `json:"standard_id"`
	Passed          bool     `json:"passed"`
	Score           float64  `json:"score"` // in [0,1]
	Message         string   `json:"message,omitempty"`
	AffectedColumns []string `json:"affected_columns,omitempty"`
}

// Recommendation is a deterministic remediation hint derived from a failing
// standard.
type Recommendation struct {
	StandardID string  `json:"standard_id"`
	Category   string  `json:"category"`
	Message    string  `json:"message"`
	Critical   bool    `json:"critical"`
	Weight     float64 `json:"weight"`
}

// Assessment is an immutable snapshot of a full compliance evaluation.
// Pipelines produce one per stage for before/after comparison.
type Assessment struct {
	OverallScore     float64                     `json:"overall_score"`
	Status           ComplianceStatus            `json:"status"`
	CategoryScores   map[string]float64          `json:"category_scores"`
	Results          map[string]ComplianceResult `json:"results"`
	CriticalFailures []string                    `json:"critical_failures,omitempty"`
	Recommendations  []Recommendation            `json:"recommendations,omitempty"`
	DataAware        bool                        `json:"data_aware"`
	EvaluatedAt      time.Time                   `json:"evaluated_at"`
}
