package output

import (
	"strconv"

	"github.com/stablemark/stablemark/pkg/ledger"
	"github.com/stablemark/stablemark/pkg/policy"
)

// PoliciesData shapes a policy listing for table output.
func PoliciesData(policies []policy.Summary) Data {
	rows := make([][]string, 0, len(policies))
	for _, p := range policies {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			string(p.Category),
			strconv.Itoa(p.Version),
		})
	}
	return Data{
		Headers: []string{"id", "name", "category", "version"},
		Rows:    rows,
	}
}

// ChecksData shapes quality-check ledger rows for table output.
func ChecksData(rows []ledger.CheckRow) Data {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{
			strconv.FormatInt(row.PolicyID, 10),
			row.PolicyName,
			strconv.FormatInt(row.CheckID, 10),
			string(row.CheckKind),
			row.ColumnIdentity,
		})
	}
	return Data{
		Headers: []string{"policy id", "policy name", "check id", "check kind", "column identity"},
		Rows:    out,
	}
}

// MappingsData shapes reconciliation-mapping ledger rows for table output.
func MappingsData(rows []ledger.MappingRow) Data {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{
			strconv.FormatInt(row.PolicyID, 10),
			row.PolicyName,
			strconv.FormatInt(row.MappingID, 10),
			string(row.ReconKind),
			row.LeftColumn,
			row.RightColumn,
		})
	}
	return Data{
		Headers: []string{"policy id", "policy name", "mapping id", "recon kind", "left column", "right column"},
		Rows:    out,
	}
}
