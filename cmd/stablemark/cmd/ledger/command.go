// Package ledger implements the ledger command, offline inspection of the
// persisted identity ledgers.
package ledger

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stablemark/stablemark/internal/cmd/output"
	pkgledger "github.com/stablemark/stablemark/pkg/ledger"
	"github.com/stablemark/stablemark/pkg/policy"
)

// AppContext defines the interface that the ledger command needs from the
// app. Reading the ledger is a local operation, so no client is involved.
type AppContext interface {
	LedgerDir() string
	Logger() *zerolog.Logger
	OutputFormat() string
	Quiet() bool
}

// NewCommand creates the ledger command with app dependencies.
func NewCommand(app AppContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:     "ledger",
		GroupID: "inspection",
		Short:   "Show the persisted identity ledgers",
		Long: `Ledger prints the locally persisted identity rows exactly as harvest
and sync recorded them, without touching the catalog.

By default both ledgers are shown; --category narrows the output to the
quality checks or the reconciliation mappings.`,
		Example: `  stablemark ledger                     # Both ledgers
  stablemark ledger --category quality  # Quality checks only
  stablemark ledger --format json       # Machine-readable rows`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := pkgledger.NewStore(app.LedgerDir())

			var selected policy.Category
			if category != "" {
				parsed, err := policy.ParseCategory(category)
				if err != nil {
					return err
				}
				selected = parsed
			}

			format := output.DetectFormat(app.OutputFormat())
			formatter := output.NewFormatter(format)

			switch selected {
			case policy.CategoryQuality:
				checks, err := store.LoadChecks()
				if err != nil {
					return err
				}
				logRows(app, checks.Len())
				if format == output.FormatTable {
					return formatter.Format(os.Stdout, output.ChecksData(checks.Rows()))
				}
				return formatter.Format(os.Stdout, checks.Rows())

			case policy.CategoryReconciliation:
				mappings, err := store.LoadMappings()
				if err != nil {
					return err
				}
				logRows(app, mappings.Len())
				if format == output.FormatTable {
					return formatter.Format(os.Stdout, output.MappingsData(mappings.Rows()))
				}
				return formatter.Format(os.Stdout, mappings.Rows())

			default:
				checks, err := store.LoadChecks()
				if err != nil {
					return err
				}
				mappings, err := store.LoadMappings()
				if err != nil {
					return err
				}
				logRows(app, checks.Len()+mappings.Len())

				if format == output.FormatTable {
					if err := formatter.Format(os.Stdout, output.ChecksData(checks.Rows())); err != nil {
						return err
					}
					fmt.Fprintln(os.Stdout)
					return formatter.Format(os.Stdout, output.MappingsData(mappings.Rows()))
				}

				payload := struct {
					Checks   []pkgledger.CheckRow   `json:"checks" yaml:"checks"`
					Mappings []pkgledger.MappingRow `json:"mappings" yaml:"mappings"`
				}{checks.Rows(), mappings.Rows()}
				return formatter.Format(os.Stdout, payload)
			}
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "ledger to show: quality or recon (default both)")

	return cmd
}

// logRows reports how many rows the ledger holds.
func logRows(app AppContext, n int) {
	if !app.Quiet() {
		app.Logger().Info().Msgf("Found %d ledger rows", n)
	}
}
