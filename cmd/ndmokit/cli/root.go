package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ndmokit",
		Short: "NDMO schema compliance and data quality scoring",
		Long: `ndmokit scores tabular schemas and datasets against the NDMO standards
catalogue, remediates schemas toward compliance, and processes datasets with
quality metrics and before/after comparison.

Schemas are YAML files; datasets are CSV, YAML, or JSON. When no schema is
given, one is inferred from the dataset.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ndmokit.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for run history (default: ~/.ndmokit)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newAssessCmd())
	cmd.AddCommand(newRemediateCmd())
	cmd.AddCommand(newProcessCmd())
	cmd.AddCommand(newStandardsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ndmokit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.ndmokit")
	}

	viper.SetEnvPrefix("NDMOKIT")
	viper.AutomaticEnv()
	viper.ReadInConfig() // config file is optional
}
