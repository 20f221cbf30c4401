// Package diff detects which checks and column-mappings appeared in a
// policy's latest version relative to a baseline version.
//
// Detection is by semantic presence sets built from the baseline, never by
// remote row id: ids are reassigned on every policy edit, while
// expressions, udf ids, and column names are stable.
package diff

import (
	"github.com/stablemark/stablemark/pkg/identity"
	"github.com/stablemark/stablemark/pkg/policy"
)

// Differ handles new-item detection between two policy versions.
type Differ interface {
	// Checks compares two data-quality item sets and returns the checks
	// present in latest but not in baseline.
	Checks(baseline, latest []policy.CheckItem) *CheckChangeset

	// Mappings compares two column-mapping sets and returns the mappings
	// present in latest but not in baseline.
	Mappings(baseline, latest []policy.ColumnMapping) *MappingChangeset
}

// differ is the default implementation of Differ.
type differ struct{}

// New creates a Differ.
func New() Differ {
	return &differ{}
}

// Checks compares two data-quality item sets.
func (d *differ) Checks(baseline, latest []policy.CheckItem) *CheckChangeset {
	base := newCheckBaseline(baseline)

	changeset := &CheckChangeset{
		Added: []policy.CheckItem{},
	}
	for i := range latest {
		if base.isNew(&latest[i]) {
			changeset.Added = append(changeset.Added, latest[i])
		}
	}
	return changeset
}

// Mappings compares two column-mapping sets.
func (d *differ) Mappings(baseline, latest []policy.ColumnMapping) *MappingChangeset {
	base := newMappingBaseline(baseline)

	changeset := &MappingChangeset{
		Added: []policy.ColumnMapping{},
	}
	for i := range latest {
		if base.isNew(&latest[i]) {
			changeset.Added = append(changeset.Added, latest[i])
		}
	}
	return changeset
}

// checkBaseline holds the per-kind presence sets of a baseline snapshot.
type checkBaseline struct {
	customExpressions    map[string]bool
	sqlMetricExpressions map[string]bool
	udfIDs               map[string]bool
	hasSizeCheck         bool
	columnNames          map[string]bool
}

func newCheckBaseline(items []policy.CheckItem) *checkBaseline {
	b := &checkBaseline{
		customExpressions:    make(map[string]bool),
		sqlMetricExpressions: make(map[string]bool),
		udfIDs:               make(map[string]bool),
		columnNames:          make(map[string]bool),
	}

	for i := range items {
		item := &items[i]
		switch item.MeasurementType {
		case policy.KindCustom:
			if item.RuleExpression != "" {
				b.customExpressions[item.RuleExpression] = true
			}
		case policy.KindSQLMetric:
			if item.RuleExpression != "" {
				b.sqlMetricExpressions[item.RuleExpression] = true
			}
		case policy.KindUDFPredicate:
			if id := item.UDFID(); id != "" {
				b.udfIDs[id] = true
			}
		case policy.KindSizeCheck:
			b.hasSizeCheck = true
		default:
			if item.ColumnName != "" {
				b.columnNames[item.ColumnName] = true
			}
		}
	}
	return b
}

// isNew classifies one latest-version check against the baseline sets.
func (b *checkBaseline) isNew(item *policy.CheckItem) bool {
	switch item.MeasurementType {
	case policy.KindCustom:
		if item.RuleExpression != "" && !b.customExpressions[item.RuleExpression] {
			return true
		}
		// Separate branch: an empty baseline set marks every non-empty
		// expression new.
		if len(b.customExpressions) == 0 && item.RuleExpression != "" {
			return true
		}
		return false

	case policy.KindSQLMetric:
		return item.RuleExpression != "" && !b.sqlMetricExpressions[item.RuleExpression]

	case policy.KindUDFPredicate:
		udfID := item.UDFID()
		return udfID != "" && !b.udfIDs[udfID]

	case policy.KindSizeCheck:
		return !b.hasSizeCheck

	default:
		// Membership is by bare column name only. A check that changes
		// kind on an unchanged column is not reported as new; the
		// identity key still disambiguates it at labeling time.
		return item.ColumnName != "" && !b.columnNames[item.ColumnName]
	}
}

// mappingBaseline holds the mapping-key presence set of a baseline snapshot.
type mappingBaseline struct {
	keys map[string]bool
}

func newMappingBaseline(mappings []policy.ColumnMapping) *mappingBaseline {
	b := &mappingBaseline{
		keys: make(map[string]bool),
	}
	for i := range mappings {
		m := &mappings[i]
		if m.LeftColumnName != "" && m.RightColumnName != "" {
			b.keys[identity.KeyForMapping(m)] = true
		}
	}
	return b
}

// isNew classifies one latest-version mapping against the baseline set.
// Mappings without both column names are never reported.
func (b *mappingBaseline) isNew(m *policy.ColumnMapping) bool {
	if m.LeftColumnName == "" || m.RightColumnName == "" {
		return false
	}
	return !b.keys[identity.KeyForMapping(m)]
}
