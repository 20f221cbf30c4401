// Package reconcile rewrites the labels of a fetched policy definition so
// that every check or mapping whose identity key is recorded in the ledger
// carries its durable label. Everything except the labels collection is
// left untouched for write-back.
//
// Normal mode only adds labels that are missing; running it twice adds
// nothing the second time. Override mode first discards every existing
// label on every item, including labels unrelated to the ledger, then adds
// back only what the ledger implies. An item whose key has no ledger entry
// ends an override pass with no labels at all.
package reconcile

import (
	"fmt"
	"strconv"

	"github.com/stablemark/stablemark/pkg/identity"
	"github.com/stablemark/stablemark/pkg/policy"
)

// Outcome reports what one reconciliation pass did to a definition.
type Outcome struct {
	Added   []string // keys whose label was attached this pass
	Skipped []string // keys whose label already existed
	Removed []string // label keys discarded by an override pass
}

// NeedsWrite reports whether the definition should be written back. Only
// added labels trigger a write; an override pass that merely removed
// labels does not.
func (o *Outcome) NeedsWrite() bool {
	return len(o.Added) > 0
}

// Summary returns a one-line description of the pass.
func (o *Outcome) Summary() string {
	return fmt.Sprintf("%d added, %d skipped, %d removed",
		len(o.Added), len(o.Skipped), len(o.Removed))
}

// Checks reconciles the labels of every check in a quality definition
// against the policy's ledger map (identity key -> original id). The
// definition is rewritten in place; only item labels change.
func Checks(detail *policy.QualityDetail, ledgerMap map[string]int64, override bool) *Outcome {
	outcome := &Outcome{}

	items := detail.Details.Items
	for i := range items {
		key := identity.KeyForCheck(&items[i])
		items[i].Labels = reconcileLabels(items[i].Labels, key, ledgerMap, override, outcome)
	}
	return outcome
}

// Mappings reconciles the labels of every column-mapping in a
// reconciliation definition against the policy's ledger map. Matching is
// by the left_right column key, never by row id. The definition is
// rewritten in place; only mapping labels change.
func Mappings(detail *policy.ReconDetail, ledgerMap map[string]int64, override bool) *Outcome {
	outcome := &Outcome{}

	mappings := detail.Details.ColumnMappings
	for i := range mappings {
		key := identity.KeyForMapping(&mappings[i])
		mappings[i].Labels = reconcileLabels(mappings[i].Labels, key, ledgerMap, override, outcome)
	}
	return outcome
}

// reconcileLabels applies one item's label rewrite and records the result
// in the outcome. The label value is always the ledger's original id.
func reconcileLabels(existing []policy.Label, key string, ledgerMap map[string]int64, override bool, outcome *Outcome) []policy.Label {
	if override {
		for _, label := range existing {
			if label.Key != "" {
				outcome.Removed = append(outcome.Removed, label.Key)
			}
		}

		labels := []policy.Label{}
		if originalID, ok := ledgerMap[key]; ok {
			labels = append(labels, policy.Label{Key: key, Value: strconv.FormatInt(originalID, 10)})
			outcome.Added = append(outcome.Added, key)
		}
		return labels
	}

	originalID, ok := ledgerMap[key]
	if !ok {
		return existing
	}

	for _, label := range existing {
		if label.Key == key {
			outcome.Skipped = append(outcome.Skipped, key)
			return existing
		}
	}

	outcome.Added = append(outcome.Added, key)
	return append(existing, policy.Label{Key: key, Value: strconv.FormatInt(originalID, 10)})
}
