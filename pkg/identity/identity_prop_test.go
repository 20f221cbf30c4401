package identity

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/stablemark/stablemark/pkg/policy"
)

func TestKeyDeterminism_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("equal content yields byte-identical keys", prop.ForAll(
		func(kind string, column string, expression string) bool {
			a := policy.CheckItem{
				MeasurementType: policy.MeasurementKind(kind),
				ColumnName:      column,
				RuleExpression:  expression,
			}
			b := policy.CheckItem{
				MeasurementType: policy.MeasurementKind(kind),
				ColumnName:      column,
				RuleExpression:  expression,
			}
			return KeyForCheck(&a) == KeyForCheck(&b)
		},
		gen.OneConstOf("CUSTOM", "SQL_METRIC", "UDF_PREDICATE", "SIZE_CHECK", "NULL_CHECK", ""),
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.Property("remote id never influences the key", prop.ForAll(
		func(idA int64, idB int64, expression string) bool {
			a := policy.CheckItem{ID: idA, MeasurementType: policy.KindCustom, RuleExpression: expression}
			b := policy.CheckItem{ID: idB, MeasurementType: policy.KindCustom, RuleExpression: expression}
			return KeyForCheck(&a) == KeyForCheck(&b)
		},
		gen.Int64Range(1, 1<<40),
		gen.Int64Range(1, 1<<40),
		gen.AlphaString(),
	))

	properties.Property("key is never empty", prop.ForAll(
		func(kind string, column string, expression string) bool {
			item := policy.CheckItem{
				MeasurementType: policy.MeasurementKind(kind),
				ColumnName:      column,
				RuleExpression:  expression,
			}
			return KeyForCheck(&item) != ""
		},
		gen.OneConstOf("CUSTOM", "SQL_METRIC", "UDF_PREDICATE", "SIZE_CHECK", "NULL_CHECK", ""),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("expression kinds carry their kind prefix", prop.ForAll(
		func(expression string) bool {
			custom := policy.CheckItem{MeasurementType: policy.KindCustom, RuleExpression: expression}
			metric := policy.CheckItem{MeasurementType: policy.KindSQLMetric, RuleExpression: expression}
			return strings.HasPrefix(KeyForCheck(&custom), "CUSTOM-") &&
				strings.HasPrefix(KeyForCheck(&metric), "SQL_METRIC-")
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestDigest8_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("digest of non-empty input is 8 lowercase hex chars", prop.ForAll(
		func(expression string) bool {
			d := Digest8(expression)
			if expression == "" {
				return d == "empty"
			}
			if len(d) != 8 {
				return false
			}
			for _, r := range d {
				if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("digest is stable across calls", prop.ForAll(
		func(expression string) bool {
			return Digest8(expression) == Digest8(expression)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestMappingKey_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("mapping key joins left and right with underscore", prop.ForAll(
		func(left string, right string) bool {
			return MappingKey(left, right) == left+"_"+right
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
