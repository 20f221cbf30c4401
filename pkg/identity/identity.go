// Package identity derives the durable identity key for data-quality checks
// and reconciliation column-mappings. The key is a pure function of a check's
// semantic content and never of its remote row id, so it survives the id
// churn the catalog service produces on every policy edit.
//
// The same derivation is shared by the diff engine and the label
// reconciler; both must see byte-identical keys for equal content.
package identity

import (
	"crypto/md5" //nolint:gosec // identity digests are not security material
	"encoding/hex"

	"github.com/stablemark/stablemark/pkg/policy"
)

// UnknownUDF is the key suffix used when a UDF_PREDICATE check carries no
// udfId.
const UnknownUDF = "unknown"

// UnknownColumn is the key used when a column-scoped check names neither a
// column nor a measurement kind.
const UnknownColumn = "UNKNOWN"

// Digest8 returns the first 8 hex characters of the MD5 digest of an
// expression, or the literal "empty" for an empty expression. The 32-bit
// truncation can collide in theory; collisions are not detected here.
func Digest8(expression string) string {
	if expression == "" {
		return "empty"
	}
	sum := md5.Sum([]byte(expression)) //nolint:gosec // identity digests are not security material
	return hex.EncodeToString(sum[:])[:8]
}

// KeyForCheck derives the identity key for one data-quality check.
//
// Expression-scoped kinds (CUSTOM, SQL_METRIC) key on a digest of the
// expression. UDF_PREDICATE keys on the udfId. SIZE_CHECK is a singleton
// per policy. Every other kind is column-scoped and keys on kind plus
// column name so two check kinds on the same column stay distinct.
func KeyForCheck(item *policy.CheckItem) string {
	switch item.MeasurementType {
	case policy.KindCustom, policy.KindSQLMetric:
		return string(item.MeasurementType) + "-" + Digest8(item.RuleExpression)

	case policy.KindUDFPredicate:
		udfID := item.UDFID()
		if udfID == "" {
			udfID = UnknownUDF
		}
		return string(policy.KindUDFPredicate) + "-" + udfID

	case policy.KindSizeCheck:
		return string(policy.KindSizeCheck)

	default:
		kind := string(item.MeasurementType)
		column := item.ColumnName
		switch {
		case kind != "" && column != "":
			return kind + "-" + column
		case column != "":
			return column
		case kind != "":
			return kind
		default:
			return UnknownColumn
		}
	}
}

// MappingKey derives the identity key for a left/right column pairing.
func MappingKey(leftColumn, rightColumn string) string {
	return leftColumn + "_" + rightColumn
}

// KeyForMapping derives the identity key for one reconciliation
// column-mapping.
func KeyForMapping(m *policy.ColumnMapping) string {
	return MappingKey(m.LeftColumnName, m.RightColumnName)
}
