package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ndmokit/ndmokit/internal/config"
	"github.com/ndmokit/ndmokit/internal/infer"
	"github.com/ndmokit/ndmokit/internal/model"
)

func newAssessCmd() *cobra.Command {
	var (
		schemaPath  string
		datasetPath string
		tableName   string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score a schema (and optionally its data) against the standards catalogue",
		Long: `Assess runs every NDMO standard against a schema and prints the weighted
assessment. With --data the evaluation is data-aware: standards that depend on
actual values are checked against the dataset instead of schema intent alone.
Without --schema, a schema is inferred from the dataset first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if schemaPath == "" && datasetPath == "" {
				return fmt.Errorf("at least one of --schema or --data is required")
			}

			cfg, err := loadEngineConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			sc := newScorer(cfg, log)

			schema, ds, err := loadInputs(cfg, schemaPath, datasetPath, tableName)
			if err != nil {
				return err
			}

			var a model.Assessment
			if ds != nil {
				a = sc.AssessWithData(schema, ds)
			} else {
				a = sc.Assess(schema)
			}

			return writeResult(cmd.OutOrStdout(), output, map[string]any{
				"table_name": schema.TableName,
				"assessment": a,
			})
		},
	}

	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file (YAML or JSON)")
	cmd.Flags().StringVarP(&datasetPath, "data", "d", "", "dataset file (CSV, YAML, or JSON)")
	cmd.Flags().StringVarP(&tableName, "table", "t", "", "table name (default: derived from the input file)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to a file instead of stdout")

	return cmd
}

// loadInputs loads schema and dataset files, inferring the schema from the
// dataset when no schema file was given.
func loadInputs(cfg config.Config, schemaPath, datasetPath, tableName string) (*model.Schema, *model.Dataset, error) {
	var ds *model.Dataset
	if datasetPath != "" {
		loaded, err := loadDataset(datasetPath)
		if err != nil {
			return nil, nil, err
		}
		ds = loaded
	}

	var schema *model.Schema
	if schemaPath != "" {
		loaded, err := loadSchema(schemaPath)
		if err != nil {
			return nil, nil, err
		}
		schema = loaded
	} else {
		name := tableName
		if name == "" {
			name = tableNameFromPath(datasetPath)
		}
		schema = infer.New(cfg.Inference).Dataset(name, ds)
		schema.SourceFile = datasetPath
	}
	if tableName != "" {
		schema.TableName = tableName
	}
	return schema, ds, nil
}
