package sync

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stablemark/stablemark/pkg/policy"
)

// Result represents the complete result of a harvest or sync run.
type Result struct {
	// Run metadata
	RunID    string // Unique id for the run, carried through the logs
	DryRun   bool   // Whether this was a dry run
	Override bool   // Whether override mode was active

	// Per-policy outcomes in processing order
	Policies []*PolicyResult

	// Overall statistics
	TotalPolicies   int // Number of policies processed
	ChangedPolicies int // Number of policies with changes
	SkippedPolicies int // Number of policies with a stage skipped after an error
	RowsAppended    int // Ledger rows appended across all policies
	LabelsAdded     int // Labels added across all policies
	LabelsSkipped   int // Labels already present and left alone
	LabelsRemoved   int // Labels removed (override mode only)
	Writes          int // Definitions written back
}

// PolicyResult represents the run outcome for a single policy.
type PolicyResult struct {
	PolicyID int64
	Name     string
	Category policy.Category

	// Harvest outcome: identity keys first seen this run
	NewChecks   []string
	NewMappings []string

	// Sync outcome: label keys touched
	LabelsAdded   []string
	LabelsSkipped []string
	LabelsRemoved []string

	Written bool  // Whether the definition was written back
	Err     error // The error that skipped a stage for this policy
}

// NewResult creates an empty result with a fresh run id.
func NewResult(dryRun, override bool) *Result {
	return &Result{
		RunID:    uuid.NewString(),
		DryRun:   dryRun,
		Override: override,
	}
}

// Record folds one policy outcome into the run totals. An errored policy
// still contributes the counts from the stages that did run.
func (r *Result) Record(pr *PolicyResult) {
	r.Policies = append(r.Policies, pr)
	r.TotalPolicies++

	if pr.Err != nil {
		r.SkippedPolicies++
	}

	r.RowsAppended += len(pr.NewChecks) + len(pr.NewMappings)
	r.LabelsAdded += len(pr.LabelsAdded)
	r.LabelsSkipped += len(pr.LabelsSkipped)
	r.LabelsRemoved += len(pr.LabelsRemoved)

	if pr.Written {
		r.Writes++
	}
	if pr.HasChanges() {
		r.ChangedPolicies++
	}
}

// Errs returns the errors of every skipped policy.
func (r *Result) Errs() []error {
	var errs []error
	for _, pr := range r.Policies {
		if pr.Err != nil {
			errs = append(errs, pr.Err)
		}
	}
	return errs
}

// HasChanges returns true if the run produced any changes.
func (r *Result) HasChanges() bool {
	return r.RowsAppended > 0 || r.LabelsAdded > 0 || r.LabelsRemoved > 0
}

// HasChanges returns true if the policy outcome contains any changes.
func (pr *PolicyResult) HasChanges() bool {
	return len(pr.NewChecks) > 0 || len(pr.NewMappings) > 0 ||
		len(pr.LabelsAdded) > 0 || len(pr.LabelsRemoved) > 0
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	if !r.HasChanges() {
		summary := "No changes detected"
		if r.SkippedPolicies > 0 {
			summary += fmt.Sprintf(" (%d policies skipped)", r.SkippedPolicies)
		}
		return summary
	}

	var parts []string
	if r.RowsAppended > 0 {
		parts = append(parts, fmt.Sprintf("%d ledger rows appended", r.RowsAppended))
	}
	if r.LabelsAdded > 0 || r.LabelsRemoved > 0 {
		parts = append(parts, fmt.Sprintf("%d labels added, %d removed", r.LabelsAdded, r.LabelsRemoved))
	}

	summary := fmt.Sprintf("%s across %d of %d policies",
		strings.Join(parts, ", "), r.ChangedPolicies, r.TotalPolicies)
	if r.SkippedPolicies > 0 {
		summary += fmt.Sprintf(" (%d skipped)", r.SkippedPolicies)
	}
	if r.DryRun {
		summary += " (dry run)"
	}

	return summary
}

// Summary returns a human-readable summary of the policy outcome.
func (pr *PolicyResult) Summary() string {
	if pr.Err != nil {
		return fmt.Sprintf("%s: skipped (%v)", pr.Name, pr.Err)
	}
	if !pr.HasChanges() {
		return fmt.Sprintf("%s: no changes", pr.Name)
	}

	discovered := len(pr.NewChecks) + len(pr.NewMappings)
	return fmt.Sprintf("%s: %d new, %d labels added, %d skipped, %d removed",
		pr.Name, discovered, len(pr.LabelsAdded), len(pr.LabelsSkipped), len(pr.LabelsRemoved))
}
