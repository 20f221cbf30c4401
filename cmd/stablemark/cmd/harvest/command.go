// Package harvest implements the harvest command, the initial seeding pass
// that records policy baselines in the local ledger.
package harvest

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stablemark/stablemark"
	"github.com/stablemark/stablemark/internal/cmd/output"
	"github.com/stablemark/stablemark/pkg/policy"
	pkgsync "github.com/stablemark/stablemark/pkg/sync"
)

// AppContext defines the interface that the harvest command needs from the app.
type AppContext interface {
	Client() (stablemark.Client, error)
	Logger() *zerolog.Logger
	OutputFormat() string
	Quiet() bool
}

// Flags holds the harvest command flags.
type Flags struct {
	Category string
	DryRun   bool
	FailFast bool
}

// NewCommand creates the harvest command with app dependencies.
func NewCommand(app AppContext) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "harvest",
		GroupID: "core",
		Short:   "Seed the ledger from policy baselines",
		Long: `Harvest seeds the local ledger from the version 1 baseline of every
policy the configured filters reach.

Each baseline check or column mapping is recorded once with its identity
key and the remote id it carried at version 1. Re-running harvest never
duplicates rows, so it is safe to run whenever new policies appear in
the catalog.`,
		Example: `  stablemark harvest                     # Seed both ledgers
  stablemark harvest --category quality  # Quality checks only
  stablemark harvest --dry-run           # Report without writing`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.runOptions()
			if err != nil {
				return err
			}

			client, err := app.Client()
			if err != nil {
				return err
			}

			if !app.Quiet() {
				fmt.Fprintf(os.Stderr, "\n🌱 Harvesting policy baselines...\n\n")
			}

			result, err := client.Harvest(cmd.Context(), opts...)
			if err != nil {
				return err
			}

			// Display results based on output format
			if format, _ := output.ParseFormat(app.OutputFormat()); format == output.FormatJSON || format == output.FormatYAML {
				return output.NewFormatter(format).Format(os.Stdout, result)
			}

			if !app.Quiet() {
				displayResults(result)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.Category, "category", "", "policy category: quality or recon (default both)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "report what would be appended without writing")
	cmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "stop at the first policy failure instead of skipping it")

	return cmd
}

// runOptions translates the command flags into run options.
func (f *Flags) runOptions() ([]pkgsync.Option, error) {
	var opts []pkgsync.Option

	if f.Category != "" {
		category, err := policy.ParseCategory(f.Category)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pkgsync.WithCategories(category))
	}
	if f.DryRun {
		opts = append(opts, pkgsync.WithDryRun(true))
	}
	if f.FailFast {
		opts = append(opts, pkgsync.WithFailFast(true))
	}

	return opts, nil
}

// displayResults shows the per-policy outcomes and the run totals.
func displayResults(result *pkgsync.Result) {
	if !result.HasChanges() && result.SkippedPolicies == 0 {
		fmt.Fprintf(os.Stderr, "✅ Ledger already covers every policy - nothing to append\n")
		return
	}

	fmt.Fprintf(os.Stderr, "=== HARVEST RESULTS ===\n\n")
	for _, pr := range result.Policies {
		switch {
		case pr.Err != nil:
			fmt.Fprintf(os.Stderr, "  ⚠️  %s\n", pr.Summary())
		case pr.HasChanges():
			fmt.Fprintf(os.Stderr, "  🌱 %s\n", pr.Summary())
		}
	}

	if result.DryRun {
		fmt.Fprintf(os.Stderr, "\n🔍 Dry run mode - nothing was written\n")
	}
	fmt.Fprintf(os.Stderr, "\n📊 Total: %s\n", result.Summary())
	fmt.Fprintf(os.Stderr, "🆔 Run id: %s\n", result.RunID)
}
