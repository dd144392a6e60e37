package cli

import (
	"github.com/spf13/cobra"

	"github.com/ndmokit/ndmokit/internal/openapi"
	"github.com/ndmokit/ndmokit/internal/standards"
)

func newOpenAPICmd() *cobra.Command {
	var (
		baseURL string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := openapi.Generate(baseURL, standards.NewRegistry())
			return writeResult(cmd.OutOrStdout(), output, doc)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "server URL embedded in the document")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the document to a file instead of stdout")

	return cmd
}
