// Package policies implements the policies command, a remote listing view
// over the catalog with an optional export of the policy-id mapping.
package policies

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stablemark/stablemark"
	"github.com/stablemark/stablemark/internal/cmd/output"
)

// AppContext defines the interface that the policies command needs from the app.
// This allows for better testability and decoupling from the full app.
type AppContext interface {
	Client() (stablemark.Client, error)
	Logger() *zerolog.Logger
	OutputFormat() string
	Quiet() bool
}

// NewCommand creates the policies command with app dependencies.
func NewCommand(app AppContext) *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:     "policies",
		GroupID: "inspection",
		Short:   "List policies from the remote catalog",
		Long: `Policies lists every policy the configured filters reach, across all
listing pages, with its id, category and current version.

With --export the listing is also written as a policy-id mapping CSV
(policyName, policyId, category) for spreadsheet use.`,
		Example: `  stablemark policies                           # List all policies
  stablemark policies --rule-type DATA_QUALITY  # Quality policies only
  stablemark policies --export policy-ids.csv   # Write the id mapping CSV`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := app.Logger()

			client, err := app.Client()
			if err != nil {
				return err
			}

			listing, err := client.Policies(cmd.Context())
			if err != nil {
				return err
			}

			summaries := listing.List()
			if !app.Quiet() {
				logger.Info().Msgf("Found %d policies", len(summaries))
			}

			if exportPath != "" {
				if err := exportMapping(exportPath, summaries); err != nil {
					return err
				}
				if !app.Quiet() {
					fmt.Fprintf(os.Stderr, "✅ Exported %d policies to %s\n", len(summaries), exportPath)
				}
			}

			// Table output renders the listing, structured output the
			// raw summaries.
			format := output.DetectFormat(app.OutputFormat())
			var data any = summaries
			if format == output.FormatTable {
				data = output.PoliciesData(summaries)
			}
			return output.NewFormatter(format).Format(os.Stdout, data)
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "write the policy-id mapping CSV to this file")

	return cmd
}
