// Package pipeline orchestrates the harvest and sync runs: listing
// policies, pairing snapshot fetches, diffing versions, appending ledger
// rows, and reconciling labels back onto live definitions.
//
// Processing is sequential across policies; the only parallelism is the
// baseline/latest snapshot pair fetched for one diff candidate, which keeps
// the number of outstanding requests bounded. A per-policy failure skips
// the rest of the current stage for that policy and is counted on the run
// result; it never aborts the batch.
package pipeline

import (
	"github.com/stablemark/stablemark/internal/catalog"
	"github.com/stablemark/stablemark/pkg/diff"
	"github.com/stablemark/stablemark/pkg/ledger"
	"github.com/stablemark/stablemark/pkg/policy"
	pkgsync "github.com/stablemark/stablemark/pkg/sync"
)

// Pipeline runs the harvest and sync flows against one catalog service
// and one ledger directory.
type Pipeline struct {
	catalog *catalog.Client
	store   *ledger.Store
	differ  diff.Differ
}

// New creates a pipeline over the given catalog client and ledger store.
func New(client *catalog.Client, store *ledger.Store) *Pipeline {
	return &Pipeline{
		catalog: client,
		store:   store,
		differ:  diff.New(),
	}
}

// results tracks one PolicyResult per policy across pipeline stages, in
// first-touch order.
type results struct {
	byID  map[int64]*pkgsync.PolicyResult
	order []int64
}

func newResults() *results {
	return &results{byID: make(map[int64]*pkgsync.PolicyResult)}
}

// get returns the policy's result, creating it on first touch. A known
// name fills in a blank one from an earlier touch.
func (r *results) get(id int64, name string, category policy.Category) *pkgsync.PolicyResult {
	if pr, ok := r.byID[id]; ok {
		if pr.Name == "" && name != "" {
			pr.Name = name
		}
		return pr
	}

	pr := &pkgsync.PolicyResult{PolicyID: id, Name: name, Category: category}
	r.byID[id] = pr
	r.order = append(r.order, id)
	return pr
}

// record folds every tracked policy into the run result.
func (r *results) record(result *pkgsync.Result) {
	for _, id := range r.order {
		result.Record(r.byID[id])
	}
}
