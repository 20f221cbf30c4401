package app

import (
	"github.com/spf13/cobra"

	"github.com/stablemark/stablemark/cmd/stablemark/cmd/harvest"
	"github.com/stablemark/stablemark/cmd/stablemark/cmd/ledger"
	"github.com/stablemark/stablemark/cmd/stablemark/cmd/policies"
	synccmd "github.com/stablemark/stablemark/cmd/stablemark/cmd/sync"
)

// CreateHarvestCommand creates the harvest command with app dependencies.
func (a *App) CreateHarvestCommand() *cobra.Command {
	return harvest.NewCommand(a)
}

// CreateSyncCommand creates the sync command with app dependencies.
func (a *App) CreateSyncCommand() *cobra.Command {
	return synccmd.NewCommand(a)
}

// CreatePoliciesCommand creates the policies command with app dependencies.
func (a *App) CreatePoliciesCommand() *cobra.Command {
	return policies.NewCommand(a)
}

// CreateLedgerCommand creates the ledger command with app dependencies.
func (a *App) CreateLedgerCommand() *cobra.Command {
	return ledger.NewCommand(a)
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("stablemark %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
