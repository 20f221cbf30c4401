package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/stablemark/stablemark/pkg/constants"
	"github.com/stablemark/stablemark/pkg/errors"
	"github.com/stablemark/stablemark/pkg/policy"
)

// Ledger file names inside the store directory.
const (
	ChecksFile   = "quality-checks.csv"
	MappingsFile = "reconciliation-mappings.csv"
)

var (
	checkHeader   = []string{"policyId", "policyName", "checkId", "checkKind", "columnIdentity"}
	mappingHeader = []string{"policyId", "policyName", "mappingId", "reconKind", "leftColumn", "rightColumn"}
)

// Store reads and writes ledgers as CSV files in a directory.
type Store struct {
	Dir string // Base directory for ledger files
}

// NewStore creates a store rooted at the given directory.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// DefaultDir returns the default ledger directory (current directory).
func DefaultDir() string {
	return "."
}

// ChecksPath returns the path of the quality-check ledger file.
func (s *Store) ChecksPath() string {
	return filepath.Join(s.Dir, ChecksFile)
}

// MappingsPath returns the path of the reconciliation-mapping ledger file.
func (s *Store) MappingsPath() string {
	return filepath.Join(s.Dir, MappingsFile)
}

// LoadChecks reads the quality-check ledger. A missing file yields an
// empty ledger. Duplicate (policy, key) rows keep the first occurrence.
func (s *Store) LoadChecks() (*Checks, error) {
	ledger := NewChecks()

	records, err := readCSV(s.ChecksPath(), checkHeader)
	if err != nil {
		return nil, err
	}

	for i, record := range records {
		policyID, err := parseID(s.ChecksPath(), i, "policyId", record[0])
		if err != nil {
			return nil, err
		}
		checkID, err := parseID(s.ChecksPath(), i, "checkId", record[2])
		if err != nil {
			return nil, err
		}
		ledger.AppendIfAbsent(CheckRow{
			PolicyID:       policyID,
			PolicyName:     record[1],
			CheckID:        checkID,
			CheckKind:      policy.MeasurementKind(record[3]),
			ColumnIdentity: record[4],
		})
	}

	ledger.markClean()
	return ledger, nil
}

// SaveChecks rewrites the quality-check ledger file in full.
func (s *Store) SaveChecks(ledger *Checks) error {
	records := make([][]string, 0, ledger.Len())
	for _, row := range ledger.Rows() {
		records = append(records, []string{
			strconv.FormatInt(row.PolicyID, 10),
			row.PolicyName,
			strconv.FormatInt(row.CheckID, 10),
			string(row.CheckKind),
			row.ColumnIdentity,
		})
	}

	if err := writeCSV(s.ChecksPath(), checkHeader, records); err != nil {
		return err
	}
	ledger.markClean()
	return nil
}

// LoadMappings reads the reconciliation-mapping ledger. A missing file
// yields an empty ledger. Duplicate (policy, key) rows keep the first
// occurrence.
func (s *Store) LoadMappings() (*Mappings, error) {
	ledger := NewMappings()

	records, err := readCSV(s.MappingsPath(), mappingHeader)
	if err != nil {
		return nil, err
	}

	for i, record := range records {
		policyID, err := parseID(s.MappingsPath(), i, "policyId", record[0])
		if err != nil {
			return nil, err
		}
		mappingID, err := parseID(s.MappingsPath(), i, "mappingId", record[2])
		if err != nil {
			return nil, err
		}
		ledger.AppendIfAbsent(MappingRow{
			PolicyID:    policyID,
			PolicyName:  record[1],
			MappingID:   mappingID,
			ReconKind:   policy.MeasurementKind(record[3]),
			LeftColumn:  record[4],
			RightColumn: record[5],
		})
	}

	ledger.markClean()
	return ledger, nil
}

// SaveMappings rewrites the reconciliation-mapping ledger file in full.
func (s *Store) SaveMappings(ledger *Mappings) error {
	records := make([][]string, 0, ledger.Len())
	for _, row := range ledger.Rows() {
		records = append(records, []string{
			strconv.FormatInt(row.PolicyID, 10),
			row.PolicyName,
			strconv.FormatInt(row.MappingID, 10),
			string(row.ReconKind),
			row.LeftColumn,
			row.RightColumn,
		})
	}

	if err := writeCSV(s.MappingsPath(), mappingHeader, records); err != nil {
		return err
	}
	ledger.markClean()
	return nil
}

// readCSV reads all data records of a ledger file, validating the header.
// A missing file returns no records and no error.
func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(header)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	for i, name := range header {
		if records[0][i] != name {
			return nil, errors.NewParseError("csv", path,
				fmt.Sprintf("unexpected header column %q, want %q", records[0][i], name), nil)
		}
	}
	return records[1:], nil
}

// writeCSV rewrites a ledger file with a header and the given records.
func writeCSV(path string, header []string, records [][]string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("mkdir", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := writer.WriteAll(records); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
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

// parseID parses one numeric CSV field, reporting the data row on failure.
func parseID(path string, row int, field, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &errors.ParseError{
			Format:  "csv",
			File:    path,
			Line:    row + 2, // header is line 1
			Message: fmt.Sprintf("invalid %s %q", field, value),
			Err:     err,
		}
	}
	return id, nil
}
