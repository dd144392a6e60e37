package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ndmokit.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Validate() on defaults = %v", err)
	}
}

func TestDefault_Values(t *testing.T) {
	cfg := Default()

	if cfg.Thresholds.Compliant != 0.85 || cfg.Thresholds.Partial != 0.60 {
		t.Errorf("thresholds = %+v, want 0.85/0.60", cfg.Thresholds)
	}
	if got := cfg.MetricWeights.Sum(); got != 1.0 {
		t.Errorf("metric weight sum = %v, want 1.0", got)
	}
	for cat, w := range cfg.CategoryWeights {
		if w != 1.0 {
			t.Errorf("category %q weight = %v, want 1.0", cat, w)
		}
	}
	if cfg.Inference.AcceptRatio <= cfg.Inference.RetypeRatio {
		t.Errorf("accept ratio %v should exceed retype ratio %v",
			cfg.Inference.AcceptRatio, cfg.Inference.RetypeRatio)
	}
}

func TestLoad_OverlaysOnDefaults(t *testing.T) {
	path := writeConfig(t, `
thresholds:
  compliant: 0.9
inference:
  sample_size: 25
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Thresholds.Compliant != 0.9 {
		t.Errorf("compliant threshold = %v, want 0.9 from file", cfg.Thresholds.Compliant)
	}
	if cfg.Thresholds.Partial != 0.60 {
		t.Errorf("partial threshold = %v, want default 0.60 preserved", cfg.Thresholds.Partial)
	}
	if cfg.Inference.SampleSize != 25 {
		t.Errorf("sample size = %d, want 25 from file", cfg.Inference.SampleSize)
	}
	if cfg.Inference.AcceptRatio != 0.95 {
		t.Errorf("accept ratio = %v, want default 0.95 preserved", cfg.Inference.AcceptRatio)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() on a missing file should error")
	}
}

func TestLoad_RejectsInvalidWeights(t *testing.T) {
	path := writeConfig(t, `
metric_weights:
  completeness: -1
  accuracy: 0.2
  consistency: 0.2
  uniqueness: 0.2
  validity: 0.2
`)

	_, err := Load(path)
	if !errors.Is(err, ErrInvalidWeights) {
		t.Fatalf("Load() error = %v, want ErrInvalidWeights", err)
	}
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "thresholds: [not: a: mapping")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() on malformed YAML should error")
	}
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	cfg := Default()
	cfg.Thresholds = Thresholds{Compliant: 0.5, Partial: 0.6}

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() should reject compliant <= partial")
	}
}

func TestValidate_AcceptRatioRange(t *testing.T) {
	for _, ratio := range []float64{0, -0.1, 1.5} {
		cfg := Default()
		cfg.Inference.AcceptRatio = ratio
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate() accepted accept_ratio %v", ratio)
		}
	}
}

func TestValidate_CategoryWeightPositivity(t *testing.T) {
	cfg := Default()
	cfg.CategoryWeights["Quality"] = 0

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidWeights) {
		t.Fatalf("Validate() error = %v, want ErrInvalidWeights", err)
	}
}
