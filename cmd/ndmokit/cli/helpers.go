package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ndmokit/ndmokit/internal/config"
	"github.com/ndmokit/ndmokit/internal/model"
	"github.com/ndmokit/ndmokit/internal/scorer"
	"github.com/ndmokit/ndmokit/internal/standards"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir, NDMOKIT_DATA_DIR,
// or ~/.ndmokit as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("NDMOKIT_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ndmokit")
}

// loadEngineConfig merges the engine defaults with the config file viper
// found, if any.
func loadEngineConfig() (config.Config, error) {
	cfg := config.Default()
	if path := viper.ConfigFileUsed(); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	}
	return cfg, nil
}

// newLogger builds the slog logger per the engine config.
func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Logging.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newScorer builds the default registry and a scorer over it.
func newScorer(cfg config.Config, log *slog.Logger) *scorer.Scorer {
	return scorer.New(standards.NewRegistry(), cfg, log)
}

// loadSchema reads a schema definition from a YAML or JSON file.
func loadSchema(path string) (*model.Schema, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var s model.Schema
	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(body, &s); err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", path, err)
		}
	}
	if s.TableName == "" {
		s.TableName = tableNameFromPath(path)
	}
	return &s, nil
}

// loadDataset reads a dataset from a CSV, YAML, or JSON file. CSV cells come
// in as strings with empty cells as nulls; type conversion is the processing
// pipeline's job.
func loadDataset(path string) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(f)
	case ".json":
		var ds model.Dataset
		if err := json.NewDecoder(f).Decode(&ds); err != nil {
			return nil, fmt.Errorf("parse dataset %s: %w", path, err)
		}
		return &ds, nil
	default:
		var ds model.Dataset
		if err := yaml.NewDecoder(f).Decode(&ds); err != nil {
			return nil, fmt.Errorf("parse dataset %s: %w", path, err)
		}
		return &ds, nil
	}
}

func readCSV(r io.Reader) (*model.Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	ds := &model.Dataset{Columns: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make(model.Row, len(header))
		for i, name := range header {
			if i >= len(record) || record[i] == "" {
				row[name] = nil
				continue
			}
			row[name] = record[i]
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// tableNameFromPath derives a table name from a file path: base name without
// extension, lowercased.
func tableNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// writeFile writes body to path with 0644 permissions.
func writeFile(path string, body []byte) error {
	return os.WriteFile(path, body, 0644)
}

// writeResult prints v as indented JSON to stdout, or to --output when set.
func writeResult(out io.Writer, outputPath string, v any) error {
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
