package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ndmokit/ndmokit/internal/model"
	"github.com/ndmokit/ndmokit/internal/process"
	"github.com/ndmokit/ndmokit/internal/remediate"
)

func newProcessCmd() *cobra.Command {
	var (
		schemaPath  string
		datasetPath string
		tableName   string
		output      string
		remediateTo bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Apply a schema to a dataset with quality metrics and fixes",
		Long: `Process runs the staged data processing pipeline: structure validation,
per-cell schema validation, type conversion, quality analysis, deterministic
quality fixes, a data-aware compliance check, and a before/after metric
comparison. With --remediate the schema is run through the remediation
pipeline first, so the dataset is processed against the corrected schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetPath == "" {
				return fmt.Errorf("--data is required")
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

			if remediateTo {
				rres := remediate.New(sc, cfg, log).Run(schema, ds)
				schema = rres.FinalSchema
			}

			res, err := process.New(sc, cfg, log).Run(schema, ds)
			if err != nil {
				var se *model.StructuralError
				if errors.As(err, &se) {
					return fmt.Errorf("structural error: %w", se)
				}
				return err
			}

			return writeResult(cmd.OutOrStdout(), output, res)
		},
	}

	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file (YAML or JSON); inferred from the dataset when absent")
	cmd.Flags().StringVarP(&datasetPath, "data", "d", "", "dataset file (CSV, YAML, or JSON)")
	cmd.Flags().StringVarP(&tableName, "table", "t", "", "table name (default: derived from the input file)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&remediateTo, "remediate", false, "remediate the schema before processing")

	return cmd
}
