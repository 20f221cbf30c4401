package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/stablemark/stablemark/internal/cmd/output"
)

// Execute runs the stablemark CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	// Create root command with app context
	rootCmd := a.createRootCommand()

	// Set arguments
	rootCmd.SetArgs(args)

	// Execute with context
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "stablemark",
		Short:   "Keep policy labels stable across versions",
		Version: a.version,
		Long: `Stablemark keeps identity labels stable across versions of the data
policies in a rule catalog.

It records each policy's version 1 checks and column mappings in a local
append-only ledger, diffs later versions against that baseline, and
writes the original ids back to the catalog as labels so a check keeps
its identity no matter how often the policy is revised.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "inspection",
		Title: "Inspection Commands:",
	})

	// Add global flags. The defaults come from the loaded configuration,
	// so a flag left unset keeps the env or config file value and a flag
	// given on the command line wins.
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	flags.StringVar(&a.config.Host, "host", a.config.Host, "catalog base URL (env HOST)")
	flags.StringVar(&a.config.AccessKey, "access-key", a.config.AccessKey, "catalog access key (env ACCESS_KEY)")
	flags.StringVar(&a.config.SecretKey, "secret-key", a.config.SecretKey, "catalog secret key (env SECRET_KEY)")
	flags.StringVar(&a.config.LedgerDir, "ledger-dir", a.config.LedgerDir, "directory for the ledger CSV files (env LEDGER_DIR)")

	flags.StringVar(&a.config.RuleStatus, "rule-status", a.config.RuleStatus, "listing filter: rule status, e.g. ACTIVE (env RULE_STATUS)")
	flags.StringVar(&a.config.RuleType, "rule-type", a.config.RuleType, "listing filter: DATA_QUALITY or EQUALITY (env RULE_TYPE)")
	flags.StringVar(&a.config.Tag, "tag", a.config.Tag, "listing filter: tag (env TAG)")
	flags.StringVar(&a.config.AssemblyIDs, "assembly-ids", a.config.AssemblyIDs, "listing filter: comma-separated assembly ids (env ASSEMBLY_IDS)")

	// Customize version output to match version subcommand
	rootCmd.SetVersionTemplate("stablemark {{.Version}}\n")

	// Register all commands
	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs. The persistent flags are
// bound straight onto the config, so by the time cobra invokes this hook the
// precedence chain is settled and only the logger needs to be rebuilt to
// pick up the final level and color settings.
func (a *App) setupCommand(_ *cobra.Command, _ []string) error {
	// Validate the output format early so every command can trust it
	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return err
	}

	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// registerCommands registers all subcommands with the root command.
// This is where we wire up all the command handlers.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(a.CreateHarvestCommand())
	rootCmd.AddCommand(a.CreateSyncCommand())

	// Inspection commands
	rootCmd.AddCommand(a.CreatePoliciesCommand())
	rootCmd.AddCommand(a.CreateLedgerCommand())

	// Utility commands
	rootCmd.AddCommand(a.CreateVersionCommand())
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
