// Package sync provides options and result types for the harvest and
// label-sync runs.
package sync

import (
	"time"

	"github.com/stablemark/stablemark/pkg/errors"
	"github.com/stablemark/stablemark/pkg/policy"
)

// Options controls one harvest or sync run.
type Options struct {
	// Orchestration control
	DryRun   bool          // Detect and reconcile without writing anything
	FailFast bool          // Stop on the first policy error instead of skipping
	Timeout  time.Duration // Timeout for the entire run

	// Label behavior
	Override bool // Discard existing labels before re-applying ledger ones

	// Policy selection
	Categories []policy.Category // Which categories to process (empty means both)
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Defaults returns the default run options.
func Defaults() *Options {
	return &Options{
		DryRun:     false,
		FailFast:   false,
		Timeout:    0,
		Override:   false,
		Categories: nil,
	}
}

// Option is a function that configures run Options.
type Option func(*Options)

// Validate checks if the run options are valid.
func (o *Options) Validate() error {
	if o.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   o.Timeout,
			Message: "timeout must be non-negative",
		}
	}

	for _, category := range o.Categories {
		if !category.Valid() {
			return &errors.ValidationError{
				Field:   "Categories",
				Value:   category,
				Message: "unknown policy category",
			}
		}
	}

	return nil
}

// SelectedCategories returns the categories to process, both when none
// were chosen.
func (o *Options) SelectedCategories() []policy.Category {
	if len(o.Categories) == 0 {
		return policy.Categories()
	}
	return o.Categories
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithFailFast configures fail-fast behavior.
func WithFailFast(failFast bool) Option {
	return func(opts *Options) {
		opts.FailFast = failFast
	}
}

// WithTimeout configures the run timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithOverride configures override mode.
func WithOverride(override bool) Option {
	return func(opts *Options) {
		opts.Override = override
	}
}

// WithCategories configures which policy categories to process.
func WithCategories(categories ...policy.Category) Option {
	return func(opts *Options) {
		opts.Categories = categories
	}
}
