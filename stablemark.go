// Package stablemark keeps durable identity labels on data-quality and
// reconciliation policies in a catalog service. Remote rule ids are
// reassigned on every policy edit; stablemark records the id each check
// and column-mapping had when first observed in an append-only ledger and
// writes that identity back onto the live definitions as labels.
//
// Example usage:
//
//	sm, err := stablemark.New(
//	    stablemark.WithCatalog("https://catalog.example.com", accessKey, secretKey),
//	    stablemark.WithLedgerDir("./ledgers"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Seed the ledger from baseline policy snapshots.
//	if _, err := sm.Harvest(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Diff upgraded policies and reapply labels.
//	result, err := sm.Sync(ctx, sync.WithDryRun(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package stablemark

import (
	"context"

	"github.com/stablemark/stablemark/internal/catalog"
	"github.com/stablemark/stablemark/internal/pipeline"
	"github.com/stablemark/stablemark/pkg/ledger"
	"github.com/stablemark/stablemark/pkg/logging"
	"github.com/stablemark/stablemark/pkg/policy"
	pkgsync "github.com/stablemark/stablemark/pkg/sync"
)

// Client drives the policy label workflows against one catalog service
// and one ledger directory.
type Client interface {
	// Policies returns the catalog's current policy listing, narrowed by
	// the configured filters.
	Policies(ctx context.Context) (*policy.Policies, error)

	// Harvest seeds the ledger from the baseline snapshot of every
	// listed policy.
	Harvest(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error)

	// Sync diffs upgraded policies against their baselines, appends new
	// ledger rows, and reapplies durable labels to the live definitions.
	Sync(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error)

	// Checks returns the quality-check ledger as persisted.
	Checks() (*ledger.Checks, error)

	// Mappings returns the reconciliation-mapping ledger as persisted.
	Mappings() (*ledger.Mappings, error)

	// LedgerDir returns the directory holding the ledger files.
	LedgerDir() string
}

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// client is the internal implementation of the Client interface.
type client struct {
	config   *config
	catalog  *catalog.Client
	store    *ledger.Store
	pipeline *pipeline.Pipeline
}

// New creates a new Client with the given options.
func New(opts ...Option) (Client, error) {
	c := &client{config: defaultConfig()}

	if err := c.options(opts...); err != nil {
		return nil, err
	}

	if c.config.logger != nil {
		logging.SetDefault(*c.config.logger)
	}

	cat, err := catalog.New(c.config.catalog)
	if err != nil {
		return nil, err
	}

	c.catalog = cat
	c.store = ledger.NewStore(c.config.ledgerDir)
	c.pipeline = pipeline.New(cat, c.store)
	return c, nil
}

// Policies returns the catalog's current policy listing.
func (c *client) Policies(ctx context.Context) (*policy.Policies, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.catalog.ListPolicies(ctx)
}

// Harvest seeds the ledger from baseline policy snapshots.
func (c *client) Harvest(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error) {
	return c.run(ctx, opts, c.pipeline.Harvest)
}

// Sync diffs upgraded policies and reapplies durable labels.
func (c *client) Sync(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error) {
	return c.run(ctx, opts, c.pipeline.Sync)
}

// run executes one pipeline flow with the configured defaults, per-call
// options, and timeout applied.
func (c *client) run(ctx context.Context, opts []pkgsync.Option, flow func(context.Context, *pkgsync.Options) (*pkgsync.Result, error)) (*pkgsync.Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Parse options, instance defaults first
	options := pkgsync.Defaults().Apply(c.config.run...).Apply(opts...)

	// Step 2: Validate options upfront
	if err := options.Validate(); err != nil {
		return nil, err
	}

	// Step 3: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {} // No-op cancel if no timeout
	}
	defer cancel()

	// Step 4: Run the flow
	return flow(ctx, options)
}

// Checks returns the quality-check ledger as persisted.
func (c *client) Checks() (*ledger.Checks, error) {
	return c.store.LoadChecks()
}

// Mappings returns the reconciliation-mapping ledger as persisted.
func (c *client) Mappings() (*ledger.Mappings, error) {
	return c.store.LoadMappings()
}

// LedgerDir returns the directory holding the ledger files.
func (c *client) LedgerDir() string {
	return c.store.Dir
}
