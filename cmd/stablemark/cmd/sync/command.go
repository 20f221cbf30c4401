// Package sync implements the sync command, the version diff and label
// write-back pass over the catalog.
package sync

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

// AppContext defines the interface that the sync command needs from the app.
type AppContext interface {
	Client() (stablemark.Client, error)
	Logger() *zerolog.Logger
	OutputFormat() string
	Quiet() bool
}

// Flags holds the sync command flags.
type Flags struct {
	Category string
	DryRun   bool
	Override bool
	FailFast bool
}

// NewCommand creates the sync command with app dependencies.
func NewCommand(app AppContext) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Diff policy versions and write labels back",
		Long: `Sync walks every ledger-known policy that has moved past version 1,
diffs the latest version against the version 1 baseline, appends newly
discovered checks and mappings to the ledger, and writes each item's
original id back to the catalog as a label.

Labels already present are left alone unless --override is given, in
which case every tracked item is relabeled from the ledger and stale
labels are dropped.`,
		Example: `  stablemark sync                     # Sync both categories
  stablemark sync --category recon    # Reconciliation policies only
  stablemark sync --dry-run           # Report without writing
  stablemark sync --override          # Rebuild labels from the ledger`,
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
				fmt.Fprintf(os.Stderr, "\n🔄 Starting sync...\n\n")
			}

			result, err := client.Sync(cmd.Context(), opts...)
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
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "report changes without writing the ledger or the catalog")
	cmd.Flags().BoolVar(&flags.Override, "override", false, "rebuild every tracked label from the ledger (env OVERRIDE_LABELS)")
	cmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "stop at the first policy failure instead of skipping it")

	return cmd
}

// runOptions translates the command flags into run options. Flags only
// enable behavior; leaving one unset keeps the instance default, so
// OVERRIDE_LABELS from the environment still applies.
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
	if f.Override {
		opts = append(opts, pkgsync.WithOverride(true))
	}
	if f.FailFast {
		opts = append(opts, pkgsync.WithFailFast(true))
	}

	return opts, nil
}

// displayResults shows the per-policy outcomes and the run totals.
func displayResults(result *pkgsync.Result) {
	if !result.HasChanges() && result.SkippedPolicies == 0 {
		fmt.Fprintf(os.Stderr, "✅ All policies are up to date - no changes needed\n")
		return
	}

	fmt.Fprintf(os.Stderr, "=== SYNC RESULTS ===\n\n")
	for _, pr := range result.Policies {
		switch {
		case pr.Err != nil:
			fmt.Fprintf(os.Stderr, "  ⚠️  %s\n", pr.Summary())
		case pr.HasChanges():
			fmt.Fprintf(os.Stderr, "  🔄 %s\n", pr.Summary())
		}
	}

	if result.DryRun {
		fmt.Fprintf(os.Stderr, "\n🔍 Dry run mode - no changes were made\n")
	}
	fmt.Fprintf(os.Stderr, "\n📊 Total: %s\n", result.Summary())
	fmt.Fprintf(os.Stderr, "🆔 Run id: %s\n", result.RunID)
}
