package policy

import (
	"maps"
	"sort"
	"strconv"
	"sync"

	"github.com/stablemark/stablemark/pkg/errors"
)

// Policies is a concurrent safe map of policy summaries keyed by id.
type Policies struct {
	mu       sync.RWMutex
	policies map[int64]*Summary
}

// PoliciesOption defines a function that configures a Policies instance.
type PoliciesOption func(*Policies)

// WithPoliciesCapacity sets the initial capacity of the policies map.
func WithPoliciesCapacity(capacity int) PoliciesOption {
	return func(p *Policies) {
		p.policies = make(map[int64]*Summary, capacity)
	}
}

// WithPoliciesMap initializes the map with existing summaries.
func WithPoliciesMap(policies map[int64]*Summary) PoliciesOption {
	return func(p *Policies) {
		if policies != nil {
			p.policies = make(map[int64]*Summary, len(policies))
			maps.Copy(p.policies, policies)
		}
	}
}

// NewPolicies creates a new Policies map with optional configuration.
func NewPolicies(opts ...PoliciesOption) *Policies {
	p := &Policies{
		policies: make(map[int64]*Summary),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Get returns a summary by id and whether it exists.
func (p *Policies) Get(id int64) (*Summary, bool) {
	p.mu.RLock()
	summary, ok := p.policies[id]
	p.mu.RUnlock()
	return summary, ok
}

// Set sets a summary by id. Returns an error if summary is nil.
func (p *Policies) Set(id int64, summary *Summary) error {
	if summary == nil {
		return &errors.ValidationError{
			Field:   "summary",
			Message: "cannot be nil",
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.policies[id] = summary
	return nil
}

// Add adds a summary, returning an error if it already exists.
func (p *Policies) Add(summary *Summary) error {
	if summary == nil {
		return &errors.ValidationError{
			Field:   "summary",
			Message: "cannot be nil",
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.policies[summary.ID]; exists {
		return &errors.ValidationError{
			Field:   "summary.ID",
			Value:   summary.ID,
			Message: "already exists",
		}
	}

	p.policies[summary.ID] = summary
	return nil
}

// Delete removes a summary by id. Returns an error if the summary doesn't exist.
func (p *Policies) Delete(id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.policies[id]; !exists {
		return &errors.NotFoundError{
			Resource: "policy",
			ID:       strconv.FormatInt(id, 10),
		}
	}

	delete(p.policies, id)
	return nil
}

// Exists checks if a summary exists without returning it.
func (p *Policies) Exists(id int64) bool {
	p.mu.RLock()
	_, exists := p.policies[id]
	p.mu.RUnlock()
	return exists
}

// Len returns the number of summaries.
func (p *Policies) Len() int {
	p.mu.RLock()
	length := len(p.policies)
	p.mu.RUnlock()
	return length
}

// List returns a slice of all summaries as values (copies).
func (p *Policies) List() []Summary {
	p.mu.RLock()
	summaries := make([]Summary, 0, len(p.policies))
	for _, summary := range p.policies {
		summaries = append(summaries, *summary)
	}
	p.mu.RUnlock()

	// Sort by ID for deterministic ordering
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})

	return summaries
}

// ListByCategory returns all summaries of the given category, sorted by id.
func (p *Policies) ListByCategory(category Category) []Summary {
	p.mu.RLock()
	summaries := make([]Summary, 0, len(p.policies))
	for _, summary := range p.policies {
		if summary.Category == category {
			summaries = append(summaries, *summary)
		}
	}
	p.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})

	return summaries
}

// IDs returns all policy ids in ascending order.
func (p *Policies) IDs() []int64 {
	p.mu.RLock()
	ids := make([]int64, 0, len(p.policies))
	for id := range p.policies {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Map returns a copy of all summaries.
func (p *Policies) Map() map[int64]*Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[int64]*Summary, len(p.policies))
	maps.Copy(result, p.policies)
	return result
}
