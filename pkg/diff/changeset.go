package diff

import (
	"fmt"

	"github.com/stablemark/stablemark/pkg/policy"
)

// CheckChangeset holds the data-quality checks new in the latest version.
type CheckChangeset struct {
	Added []policy.CheckItem // New checks
}

// HasChanges returns true if the changeset contains any new checks.
func (c *CheckChangeset) HasChanges() bool {
	return len(c.Added) > 0
}

// IsEmpty returns true if the changeset contains no new checks.
func (c *CheckChangeset) IsEmpty() bool {
	return len(c.Added) == 0
}

// Summary returns a one-line description of the changeset.
func (c *CheckChangeset) Summary() string {
	if len(c.Added) == 1 {
		return "1 new check"
	}
	return fmt.Sprintf("%d new checks", len(c.Added))
}

// MappingChangeset holds the column-mappings new in the latest version.
type MappingChangeset struct {
	Added []policy.ColumnMapping // New mappings
}

// HasChanges returns true if the changeset contains any new mappings.
func (c *MappingChangeset) HasChanges() bool {
	return len(c.Added) > 0
}

// IsEmpty returns true if the changeset contains no new mappings.
func (c *MappingChangeset) IsEmpty() bool {
	return len(c.Added) == 0
}

// Summary returns a one-line description of the changeset.
func (c *MappingChangeset) Summary() string {
	if len(c.Added) == 1 {
		return "1 new mapping"
	}
	return fmt.Sprintf("%d new mappings", len(c.Added))
}
