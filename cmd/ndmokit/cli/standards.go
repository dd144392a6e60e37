package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ndmokit/ndmokit/internal/standards"
)

func newStandardsCmd() *cobra.Command {
	var (
		category   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "standards",
		Short: "List the NDMO standards catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := standards.NewRegistry()

			stds := reg.All()
			if category != "" {
				stds = reg.ByCategory(standards.Category(category))
				if len(stds) == 0 {
					return fmt.Errorf("unknown category %q", category)
				}
			}

			if jsonOutput {
				return writeResult(cmd.OutOrStdout(), "", map[string]any{"standards": stds})
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tWEIGHT\tTHRESHOLD\tCRITICAL")
			for _, std := range stds {
				critical := ""
				if std.Critical {
					critical = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
					std.ID, std.Name, std.Category, std.Weight, std.Threshold, critical)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category (Governance, Quality, Security, Architecture, BusinessRules)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
