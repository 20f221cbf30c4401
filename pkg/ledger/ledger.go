// Package ledger keeps the durable record of every identity ever observed:
// one row per (policy, identity key), holding the remote id the check or
// mapping had when it was first seen. Rows are written once and never
// revised; the remote id may churn on later edits, the ledger value does
// not.
package ledger

import (
	"sort"

	"github.com/stablemark/stablemark/pkg/identity"
	"github.com/stablemark/stablemark/pkg/policy"
)

// CheckRow is one persisted quality-check identity.
type CheckRow struct {
	PolicyID       int64                  `json:"policyId" yaml:"policyId"`
	PolicyName     string                 `json:"policyName" yaml:"policyName"`
	CheckID        int64                  `json:"checkId" yaml:"checkId"` // remote id at discovery time, never revised
	CheckKind      policy.MeasurementKind `json:"checkKind" yaml:"checkKind"`
	ColumnIdentity string                 `json:"columnIdentity" yaml:"columnIdentity"` // the identity key
}

// Key returns the row's identity key.
func (r *CheckRow) Key() string {
	return r.ColumnIdentity
}

// MappingRow is one persisted reconciliation-mapping identity.
type MappingRow struct {
	PolicyID    int64                  `json:"policyId" yaml:"policyId"`
	PolicyName  string                 `json:"policyName" yaml:"policyName"`
	MappingID   int64                  `json:"mappingId" yaml:"mappingId"` // remote id at discovery time, never revised
	ReconKind   policy.MeasurementKind `json:"reconKind" yaml:"reconKind"`
	LeftColumn  string                 `json:"leftColumn" yaml:"leftColumn"`
	RightColumn string                 `json:"rightColumn" yaml:"rightColumn"`
}

// Key returns the row's identity key.
func (r *MappingRow) Key() string {
	return identity.MappingKey(r.LeftColumn, r.RightColumn)
}

// Checks is the in-memory quality-check ledger. Rows keep their insertion
// order; the index answers (policy, key) lookups. Not safe for concurrent
// use; the pipeline is the only writer.
type Checks struct {
	rows     []CheckRow
	index    map[int64]map[string]int64 // policyID -> key -> original id
	appended int
}

// NewChecks creates an empty quality-check ledger.
func NewChecks() *Checks {
	return &Checks{
		index: make(map[int64]map[string]int64),
	}
}

// AppendIfAbsent records a row unless its (policy, key) pair is already
// present. Reports whether the row was appended. On a duplicate the
// existing row wins, whatever ids the duplicate carries.
func (l *Checks) AppendIfAbsent(row CheckRow) bool {
	keys, ok := l.index[row.PolicyID]
	if !ok {
		keys = make(map[string]int64)
		l.index[row.PolicyID] = keys
	}
	if _, exists := keys[row.Key()]; exists {
		return false
	}

	keys[row.Key()] = row.CheckID
	l.rows = append(l.rows, row)
	l.appended++
	return true
}

// Lookup returns the original id recorded for (policyID, key).
func (l *Checks) Lookup(policyID int64, key string) (int64, bool) {
	keys, ok := l.index[policyID]
	if !ok {
		return 0, false
	}
	id, ok := keys[key]
	return id, ok
}

// PolicyMap returns a copy of the key -> original id map for one policy.
func (l *Checks) PolicyMap(policyID int64) map[string]int64 {
	keys := l.index[policyID]
	result := make(map[string]int64, len(keys))
	for key, id := range keys {
		result[key] = id
	}
	return result
}

// LabelMap returns the reconcile-ready key -> original id map for one
// policy. Placeholder rows and rows without an identity or an original id
// carry no label and are left out.
func (l *Checks) LabelMap(policyID int64) map[string]int64 {
	result := make(map[string]int64)
	for i := range l.rows {
		row := &l.rows[i]
		if row.PolicyID != policyID || row.CheckID == 0 || row.ColumnIdentity == "" {
			continue
		}
		if _, exists := result[row.ColumnIdentity]; !exists {
			result[row.ColumnIdentity] = row.CheckID
		}
	}
	return result
}

// PolicyIDs returns every policy id holding at least one row, ascending.
func (l *Checks) PolicyIDs() []int64 {
	ids := make([]int64, 0, len(l.index))
	for id := range l.index {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Rows returns the rows in insertion order. The slice is shared; callers
// must not modify it.
func (l *Checks) Rows() []CheckRow {
	return l.rows
}

// Len returns the number of rows.
func (l *Checks) Len() int {
	return len(l.rows)
}

// Appended returns how many rows were added since the ledger was loaded.
func (l *Checks) Appended() int {
	return l.appended
}

// Dirty reports whether the ledger has rows not yet persisted.
func (l *Checks) Dirty() bool {
	return l.appended > 0
}

// markClean resets the appended counter after a load or save.
func (l *Checks) markClean() {
	l.appended = 0
}

// Mappings is the in-memory reconciliation-mapping ledger.
//
//nolint:dupl // Same shape as Checks for a different row type.
type Mappings struct {
	rows     []MappingRow
	index    map[int64]map[string]int64 // policyID -> key -> original id
	appended int
}

// NewMappings creates an empty reconciliation-mapping ledger.
func NewMappings() *Mappings {
	return &Mappings{
		index: make(map[int64]map[string]int64),
	}
}

// AppendIfAbsent records a row unless its (policy, key) pair is already
// present. Reports whether the row was appended.
func (l *Mappings) AppendIfAbsent(row MappingRow) bool {
	keys, ok := l.index[row.PolicyID]
	if !ok {
		keys = make(map[string]int64)
		l.index[row.PolicyID] = keys
	}
	if _, exists := keys[row.Key()]; exists {
		return false
	}

	keys[row.Key()] = row.MappingID
	l.rows = append(l.rows, row)
	l.appended++
	return true
}

// Lookup returns the original id recorded for (policyID, key).
func (l *Mappings) Lookup(policyID int64, key string) (int64, bool) {
	keys, ok := l.index[policyID]
	if !ok {
		return 0, false
	}
	id, ok := keys[key]
	return id, ok
}

// PolicyMap returns a copy of the key -> original id map for one policy.
func (l *Mappings) PolicyMap(policyID int64) map[string]int64 {
	keys := l.index[policyID]
	result := make(map[string]int64, len(keys))
	for key, id := range keys {
		result[key] = id
	}
	return result
}

// LabelMap returns the reconcile-ready key -> original id map for one
// policy. Placeholder rows and rows missing either column or the original
// id carry no label and are left out.
func (l *Mappings) LabelMap(policyID int64) map[string]int64 {
	result := make(map[string]int64)
	for i := range l.rows {
		row := &l.rows[i]
		if row.PolicyID != policyID || row.MappingID == 0 ||
			row.LeftColumn == "" || row.RightColumn == "" {
			continue
		}
		if _, exists := result[row.Key()]; !exists {
			result[row.Key()] = row.MappingID
		}
	}
	return result
}

// PolicyIDs returns every policy id holding at least one row, ascending.
func (l *Mappings) PolicyIDs() []int64 {
	ids := make([]int64, 0, len(l.index))
	for id := range l.index {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Rows returns the rows in insertion order. The slice is shared; callers
// must not modify it.
func (l *Mappings) Rows() []MappingRow {
	return l.rows
}

// Len returns the number of rows.
func (l *Mappings) Len() int {
	return len(l.rows)
}

// Appended returns how many rows were added since the ledger was loaded.
func (l *Mappings) Appended() int {
	return l.appended
}

// Dirty reports whether the ledger has rows not yet persisted.
func (l *Mappings) Dirty() bool {
	return l.appended > 0
}

// markClean resets the appended counter after a load or save.
func (l *Mappings) markClean() {
	l.appended = 0
}
