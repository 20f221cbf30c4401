// Package policy defines the domain types shared across the stablemark
// system: policy summaries as returned by the catalog listing, the two
// detail shapes (data-quality checks and reconciliation column-mappings),
// and the identity labels attached to them.
//
// Detail types keep an extra-fields bag alongside their typed fields so a
// fetched definition can be written back without losing remote-owned fields
// this system does not model.
package policy

import (
	"strings"

	"github.com/stablemark/stablemark/pkg/errors"
)

// Category identifies one of the two policy taxonomies. The values are the
// remote service's wire constants.
type Category string

// Policy categories.
const (
	// CategoryQuality is a single-asset data-quality policy.
	CategoryQuality Category = "DATA_QUALITY"

	// CategoryReconciliation is a cross-asset reconciliation policy.
	CategoryReconciliation Category = "EQUALITY"
)

// String returns the wire form of the category.
func (c Category) String() string {
	return string(c)
}

// Valid reports whether the category is one of the two known taxonomies.
func (c Category) Valid() bool {
	return c == CategoryQuality || c == CategoryReconciliation
}

// ParseCategory resolves a user-supplied category name. It accepts the wire
// constants as well as the short forms used by the CLI.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "data_quality", "quality", "dq":
		return CategoryQuality, nil
	case "equality", "reconciliation", "recon":
		return CategoryReconciliation, nil
	default:
		return "", errors.NewValidationError("category", s, "must be one of: quality, recon")
	}
}

// Categories returns both policy categories in processing order.
func Categories() []Category {
	return []Category{CategoryQuality, CategoryReconciliation}
}

// MeasurementKind is the kind of a single data-quality check. The set is
// open on the wire; kinds outside the named constants are treated as
// column-scoped checks.
type MeasurementKind string

// Measurement kinds with dedicated identity handling.
const (
	KindCustom       MeasurementKind = "CUSTOM"
	KindSQLMetric    MeasurementKind = "SQL_METRIC"
	KindUDFPredicate MeasurementKind = "UDF_PREDICATE"
	KindSizeCheck    MeasurementKind = "SIZE_CHECK"
)

// String returns the wire form of the kind.
func (k MeasurementKind) String() string {
	return string(k)
}

// Label is a durable identity attached to a check or mapping. Key is the
// identity key; Value is the remote id the check had when first observed,
// never the current one.
type Label struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Summary is one policy as returned by the catalog listing.
type Summary struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"type"`
	Version  int      `json:"version"`
}
