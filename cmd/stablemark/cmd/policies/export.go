package policies

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/stablemark/stablemark/pkg/errors"
	"github.com/stablemark/stablemark/pkg/policy"
)

// exportHeader is the policy-id mapping CSV header.
var exportHeader = []string{"policyName", "policyId", "category"}

// exportMapping writes the listing as a policy-id mapping CSV, one row per
// policy with the name first, the shape the spreadsheet consumers expect.
func exportMapping(path string, summaries []policy.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(exportHeader); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	for i := range summaries {
		record := []string{
			summaries[i].Name,
			strconv.FormatInt(summaries[i].ID, 10),
			string(summaries[i].Category),
		}
		if err := writer.Write(record); err != nil {
			_ = f.Close()
			return errors.WrapIO("write", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}

	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}
	return nil
}
