package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidWeights is returned when a configured weight set contains a
// non-positive weight.
var ErrInvalidWeights = errors.New("weights must be positive")

// Config holds every tunable of the scoring engine: category weights for the
// compliance scorer, dimension weights for quality metrics, status
// thresholds, and inference cutoffs. All fields have working defaults.
type Config struct {
	CategoryWeights map[string]float64 `yaml:"category_weights"`
	MetricWeights   MetricWeights      `yaml:"metric_weights"`
	Thresholds      Thresholds         `yaml:"thresholds"`
	Inference       Inference          `yaml:"inference"`
	Logging         Logging            `yaml:"logging"`
}

// MetricWeights weights the five quality dimensions in the overall quality
// score. Defaults are equal (0.2 each).
type MetricWeights struct {
	Completeness float64 `yaml:"completeness"`
	Accuracy     float64 `yaml:"accuracy"`
	Consistency  float64 `yaml:"consistency"`
	Uniqueness   float64 `yaml:"uniqueness"`
	Validity     float64 `yaml:"validity"`
}

// Sum returns the total of all five weights.
func (m MetricWeights) Sum() float64 {
	return m.Completeness + m.Accuracy + m.Consistency + m.Uniqueness + m.Validity
}

// Thresholds maps overall compliance scores to statuses: >= Compliant is
// compliant, >= Partial is partially compliant, anything lower is
// non-compliant.
type Thresholds struct {
	Compliant float64 `yaml:"compliant"`
	Partial   float64 `yaml:"partial"`
}

// Inference holds the type-detection cutoffs.
type Inference struct {
	// AcceptRatio is the fraction of non-null values a detector must match
	// to win the column.
	AcceptRatio float64 `yaml:"accept_ratio"`
	// RetypeRatio is the (lower) fraction used by the remediation pipeline
	// when tightening an already-typed text column.
	RetypeRatio float64 `yaml:"retype_ratio"`
	// CategoricalMaxRatio is the maximum distinct/total ratio for a column
	// to be considered categorical.
	CategoricalMaxRatio float64 `yaml:"categorical_max_ratio"`
	// AllowedValuesMax is the largest distinct-value count for which an
	// allowed-values constraint is recorded.
	AllowedValuesMax int `yaml:"allowed_values_max"`
	// SampleSize is how many raw values are retained on a column definition.
	SampleSize int `yaml:"sample_size"`
}

// Logging controls log output.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the engine defaults: equal category and metric weights,
// 0.85/0.60 status thresholds, 95% detector acceptance.
func Default() Config {
	return Config{
		CategoryWeights: map[string]float64{
			"Governance":    1.0,
			"Quality":       1.0,
			"Security":      1.0,
			"Architecture":  1.0,
			"BusinessRules": 1.0,
		},
		MetricWeights: MetricWeights{
			Completeness: 0.2,
			Accuracy:     0.2,
			Consistency:  0.2,
			Uniqueness:   0.2,
			Validity:     0.2,
		},
		Thresholds: Thresholds{
			Compliant: 0.85,
			Partial:   0.60,
		},
		Inference: Inference{
			AcceptRatio:         0.95,
			RetypeRatio:         0.90,
			CategoricalMaxRatio: 0.5,
			AllowedValuesMax:    20,
			SampleSize:          10,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file and overlays it on the defaults. Only the
// keys present in the file override the default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks weight positivity and threshold ordering.
func (c Config) Validate() error {
	for cat, w := range c.CategoryWeights {
		if w <= 0 {
			return fmt.Errorf("category %q: %w", cat, ErrInvalidWeights)
		}
	}
	for name, w := range map[string]float64{
		"completeness": c.MetricWeights.Completeness,
		"accuracy":     c.MetricWeights.Accuracy,
		"consistency":  c.MetricWeights.Consistency,
		"uniqueness":   c.MetricWeights.Uniqueness,
		"validity":     c.MetricWeights.Validity,
	} {
		if w <= 0 {
			return fmt.Errorf("metric %q: %w", name, ErrInvalidWeights)
		}
	}
	if c.Thresholds.Compliant <= c.Thresholds.Partial {
		return fmt.Errorf("compliant threshold %.2f must exceed partial threshold %.2f",
			c.Thresholds.Compliant, c.Thresholds.Partial)
	}
	if c.Inference.AcceptRatio <= 0 || c.Inference.AcceptRatio > 1 {
		return fmt.Errorf("inference accept_ratio %.2f out of range (0,1]", c.Inference.AcceptRatio)
	}
	return nil
}
