// Package app provides the application context and dependency management
// for the stablemark CLI. It follows idiomatic Go patterns for CLI
// applications by centralizing configuration, dependency injection, and
// lifecycle management.
package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/stablemark/stablemark"
	"github.com/stablemark/stablemark/pkg/ledger"
)

// App represents the stablemark application with all its dependencies.
// It provides a centralized place for configuration, logging, and the
// stablemark client, following the dependency injection pattern.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Stablemark client (lazy-initialized, singleton)
	mu     sync.RWMutex
	client stablemark.Client
}

// New creates a new App instance with the given version information.
// The app is initialized with default configuration that can be
// customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	// Load configuration
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	// Initialize logger
	logger := NewLogger(config)
	app.logger = &logger

	// Apply any custom options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Quiet reports whether minimal output was requested.
func (a *App) Quiet() bool {
	return a.config.Quiet
}

// LedgerDir returns the directory holding the ledger CSV files.
func (a *App) LedgerDir() string {
	if a.config.LedgerDir == "" {
		return ledger.DefaultDir()
	}
	return a.config.LedgerDir
}

// Client returns the stablemark client, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Client() (stablemark.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	// Create the client with options from config
	c, err := stablemark.New(a.buildClientOptions()...)
	if err != nil {
		return nil, err
	}

	a.client = c
	return c, nil
}

// buildClientOptions constructs stablemark options from the app configuration.
func (a *App) buildClientOptions() []stablemark.Option {
	opts := []stablemark.Option{
		stablemark.WithCatalog(a.config.Host, a.config.AccessKey, a.config.SecretKey),
		stablemark.WithLogger(*a.logger),
	}

	// Add ledger directory if configured
	if a.config.LedgerDir != "" {
		opts = append(opts, stablemark.WithLedgerDir(a.config.LedgerDir))
	}

	// Add listing filters if configured
	filters := stablemark.Filters{
		RuleStatus:  a.config.RuleStatus,
		RuleType:    a.config.RuleType,
		Tag:         a.config.Tag,
		AssemblyIDs: a.config.AssemblyIDs,
	}
	if filters != (stablemark.Filters{}) {
		opts = append(opts, stablemark.WithFilters(filters))
	}

	// OVERRIDE_LABELS makes override mode the instance default
	if a.config.OverrideLabels {
		opts = append(opts, stablemark.WithOverride(true))
	}

	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom stablemark client (useful for testing).
func WithClient(client stablemark.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}
