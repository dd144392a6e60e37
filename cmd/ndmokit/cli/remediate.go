package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ndmokit/ndmokit/internal/remediate"
)

func newRemediateCmd() *cobra.Command {
	var (
		schemaPath  string
		datasetPath string
		tableName   string
		output      string
		schemaOut   string
	)

	cmd := &cobra.Command{
		Use:   "remediate",
		Short: "Rewrite a schema toward compliance and report before/after scores",
		Long: `Remediate runs the staged remediation pipeline: primary key promotion,
audit and lineage columns, type tightening, security annotations, and
constraint attachment. Every stage produces its own schema snapshot and
change list; stage failures degrade to warnings. The report always includes
before and after assessments and flags runs that did not improve the score.`,
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

			res := remediate.New(sc, cfg, log).Run(schema, ds)

			if schemaOut != "" {
				if err := writeSchemaYAML(schemaOut, res.FinalSchema); err != nil {
					return err
				}
			}
			return writeResult(cmd.OutOrStdout(), output, res)
		},
	}

	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file (YAML or JSON)")
	cmd.Flags().StringVarP(&datasetPath, "data", "d", "", "dataset file (CSV, YAML, or JSON)")
	cmd.Flags().StringVarP(&tableName, "table", "t", "", "table name (default: derived from the input file)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().StringVar(&schemaOut, "schema-out", "", "also write the remediated schema as YAML to this file")

	return cmd
}

func writeSchemaYAML(path string, v any) error {
	body, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if err := writeFile(path, body); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	return nil
}
