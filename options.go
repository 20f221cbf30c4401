package stablemark

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stablemark/stablemark/internal/catalog"
	"github.com/stablemark/stablemark/pkg/ledger"
	pkgsync "github.com/stablemark/stablemark/pkg/sync"
)

// Filters narrow the policy listing to a subset of the catalog. Zero-value
// filters list everything.
type Filters struct {
	RuleStatus  string // e.g. "ACTIVE"
	RuleType    string // "DATA_QUALITY" or "EQUALITY"
	Tag         string
	AssemblyIDs string // comma-separated asset ids
}

// config holds the assembled client configuration.
type config struct {
	catalog   catalog.Config
	ledgerDir string
	logger    *zerolog.Logger
	run       []pkgsync.Option
}

func defaultConfig() *config {
	return &config{
		ledgerDir: ledger.DefaultDir(),
	}
}

// Option is a function that configures a Client instance.
type Option func(*config) error

// options applies the given options to the client configuration.
func (c *client) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c.config); err != nil {
			return err
		}
	}
	return nil
}

// WithCatalog configures the catalog service connection. The host is the
// base URL including scheme; the key pair authenticates every request.
func WithCatalog(host, accessKey, secretKey string) Option {
	return func(c *config) error {
		c.catalog.Host = host
		c.catalog.AccessKey = accessKey
		c.catalog.SecretKey = secretKey
		return nil
	}
}

// WithFilters narrows the policy listing.
func WithFilters(filters Filters) Option {
	return func(c *config) error {
		c.catalog.Filters = catalog.Filters(filters)
		return nil
	}
}

// WithLedgerDir configures the directory holding the ledger files.
// Defaults to the current directory.
func WithLedgerDir(dir string) Option {
	return func(c *config) error {
		if dir != "" {
			c.ledgerDir = dir
		}
		return nil
	}
}

// WithLogger replaces the process-wide default logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = &logger
		return nil
	}
}

// WithHTTPClient replaces the HTTP client used for catalog requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) error {
		c.catalog.HTTPClient = httpClient
		return nil
	}
}

// WithDryRun makes every run report would-be changes without writing to
// the ledger or the catalog. Per-call options can still override it.
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.run = append(c.run, pkgsync.WithDryRun(enabled))
		return nil
	}
}

// WithOverride makes every sync discard existing labels before re-applying
// the ledger ones. Per-call options can still override it.
func WithOverride(enabled bool) Option {
	return func(c *config) error {
		c.run = append(c.run, pkgsync.WithOverride(enabled))
		return nil
	}
}
