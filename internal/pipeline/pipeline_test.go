package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablemark/stablemark/internal/catalog"
	pkgerrors "github.com/stablemark/stablemark/pkg/errors"
	"github.com/stablemark/stablemark/pkg/ledger"
	"github.com/stablemark/stablemark/pkg/policy"
	pkgsync "github.com/stablemark/stablemark/pkg/sync"
)

// catalogStub fakes the catalog service. Detail bodies are keyed by
// "{id}@{version}", with "{id}@latest" for unversioned fetches; PUT
// captures are keyed by "quality:{id}" or "recon:{id}".
type catalogStub struct {
	t *testing.T

	mu      sync.Mutex
	listing string
	quality map[string]string
	recon   map[string]string

	getFails map[string]int
	putFails map[string]int

	detailGets map[string]int
	puts       map[string][]byte
}

func newCatalogStub(t *testing.T) *catalogStub {
	return &catalogStub{
		t:          t,
		quality:    map[string]string{},
		recon:      map[string]string{},
		getFails:   map[string]int{},
		putFails:   map[string]int{},
		detailGets: map[string]int{},
		puts:       map[string][]byte{},
	}
}

func (s *catalogStub) list(entries ...string) {
	s.listing = fmt.Sprintf(`{"rules":[%s],"totalCount":%d}`, strings.Join(entries, ","), len(entries))
}

func listedPolicy(id int64, name, category string, version int) string {
	return fmt.Sprintf(`{"rule":{"id":%d,"name":%q,"type":%q,"version":%d}}`, id, name, category, version)
}

func (s *catalogStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/catalog-server/api")
	switch {
	case path == "/rules":
		_, _ = io.WriteString(w, s.listing)
	case strings.HasPrefix(path, "/rules/data-quality/"):
		s.detail(w, r, "quality", s.quality, strings.TrimPrefix(path, "/rules/data-quality/"))
	case strings.HasPrefix(path, "/rules/reconciliation/"):
		s.detail(w, r, "recon", s.recon, strings.TrimPrefix(path, "/rules/reconciliation/"))
	default:
		http.NotFound(w, r)
	}
}

func (s *catalogStub) detail(w http.ResponseWriter, r *http.Request, kind string, bodies map[string]string, id string) {
	key := id + "@latest"
	if v := r.URL.Query().Get("version"); v != "" {
		key = id + "@" + v
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		s.detailGets[key]++
		if code, ok := s.getFails[key]; ok {
			http.Error(w, "stub failure", code)
			return
		}
		body, ok := bodies[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	case http.MethodPut:
		payload, err := io.ReadAll(r.Body)
		require.NoError(s.t, err)
		if code, ok := s.putFails[kind+":"+id]; ok {
			http.Error(w, "stub failure", code)
			return
		}
		s.puts[kind+":"+id] = payload
	default:
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
	}
}

func newTestPipeline(t *testing.T, stub *catalogStub) (*Pipeline, *ledger.Store) {
	t.Helper()
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	client, err := catalog.New(catalog.Config{Host: server.URL, AccessKey: "ak", SecretKey: "sk"})
	require.NoError(t, err)

	store := ledger.NewStore(t.TempDir())
	return New(client, store), store
}

func seedChecks(t *testing.T, store *ledger.Store, rows ...ledger.CheckRow) {
	t.Helper()
	checks := ledger.NewChecks()
	for _, row := range rows {
		checks.AppendIfAbsent(row)
	}
	require.NoError(t, store.SaveChecks(checks))
}

func seedMappings(t *testing.T, store *ledger.Store, rows ...ledger.MappingRow) {
	t.Helper()
	mappings := ledger.NewMappings()
	for _, row := range rows {
		mappings.AppendIfAbsent(row)
	}
	require.NoError(t, store.SaveMappings(mappings))
}

func TestHarvestSeedsLedgers(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(
		listedPolicy(1, "orders quality", "DATA_QUALITY", 1),
		listedPolicy(2, "cash recon", "EQUALITY", 1),
		listedPolicy(3, "empty quality", "DATA_QUALITY", 1),
	)
	stub.quality["1@1"] = `{
		"rule": {"id": 1, "name": "orders quality", "type": "DATA_QUALITY", "version": 1},
		"details": {"items": [
			{"id": 11, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": []},
			{"id": 12, "measurementType": "CUSTOM", "ruleExpression": "amount > 0", "labels": []}
		]}
	}`
	stub.recon["2@1"] = `{
		"rule": {"id": 2, "name": "cash recon", "type": "EQUALITY", "version": 1},
		"details": {
			"items": [{"id": 21, "measurementType": "HASHED_EQUALITY"}],
			"columnMappings": [{"id": 31, "leftColumnName": "id", "rightColumnName": "order_id", "labels": []}]
		}
	}`
	stub.quality["3@1"] = `{
		"rule": {"id": 3, "name": "empty quality", "type": "DATA_QUALITY", "version": 1},
		"details": {"items": []}
	}`

	p, store := newTestPipeline(t, stub)
	result, err := p.Harvest(context.Background(), pkgsync.Defaults())
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalPolicies)
	assert.Equal(t, 3, result.RowsAppended)
	assert.Equal(t, 0, result.Writes)
	assert.Equal(t, 0, result.SkippedPolicies)

	checks, err := store.LoadChecks()
	require.NoError(t, err)
	assert.Equal(t, 3, checks.Len()) // two real rows plus the placeholder
	assert.Equal(t, map[string]int64{
		"COLUMN_DEFAULT-amount": 11,
		"CUSTOM-f2fc802c":       12,
	}, checks.LabelMap(1))
	assert.Empty(t, checks.LabelMap(3))
	assert.Equal(t, []int64{1, 3}, checks.PolicyIDs())

	mappings, err := store.LoadMappings()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"id_order_id": 31}, mappings.LabelMap(2))
}

func TestHarvestPrefersDetailRuleName(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(listedPolicy(1, "listing name", "DATA_QUALITY", 1))
	stub.quality["1@1"] = `{
		"rule": {"id": 1, "name": "orders quality", "type": "DATA_QUALITY", "version": 1},
		"details": {"items": [{"id": 11, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": []}]}
	}`

	p, store := newTestPipeline(t, stub)
	_, err := p.Harvest(context.Background(), pkgsync.Defaults())
	require.NoError(t, err)

	checks, err := store.LoadChecks()
	require.NoError(t, err)
	rows := checks.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "orders quality", rows[0].PolicyName)
}

func TestHarvestIsIdempotent(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(listedPolicy(1, "orders quality", "DATA_QUALITY", 1))
	stub.quality["1@1"] = `{
		"rule": {"id": 1, "name": "orders quality", "type": "DATA_QUALITY", "version": 1},
		"details": {"items": [{"id": 11, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": []}]}
	}`

	p, _ := newTestPipeline(t, stub)

	first, err := p.Harvest(context.Background(), pkgsync.Defaults())
	require.NoError(t, err)
	require.Equal(t, 1, first.RowsAppended)

	second, err := p.Harvest(context.Background(), pkgsync.Defaults())
	require.NoError(t, err)
	assert.Equal(t, 0, second.RowsAppended)
	assert.False(t, second.HasChanges())
}

func TestHarvestSkipsPolicyOnFetchFailure(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(
		listedPolicy(1, "broken quality", "DATA_QUALITY", 1),
		listedPolicy(2, "orders quality", "DATA_QUALITY", 1),
	)
	stub.getFails["1@1"] = http.StatusInternalServerError
	stub.quality["2@1"] = `{
		"rule": {"id": 2, "name": "orders quality", "type": "DATA_QUALITY", "version": 1},
		"details": {"items": [{"id": 11, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": []}]}
	}`

	p, _ := newTestPipeline(t, stub)
	result, err := p.Harvest(context.Background(), pkgsync.Defaults())
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalPolicies)
	assert.Equal(t, 1, result.SkippedPolicies)
	assert.Equal(t, 1, result.RowsAppended)
	require.Len(t, result.Errs(), 1)
}

func TestSyncAppendsAndLabelsUpgradedPolicy(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(listedPolicy(1, "orders quality", "DATA_QUALITY", 3))
	stub.quality["1@1"] = `{
		"rule": {"id": 1, "name": "orders quality", "type": "DATA_QUALITY", "version": 1},
		"details": {"items": [{"id": 11, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": []}]}
	}`
	latest := `{
		"rule": {"id": 1, "name": "orders quality", "type": "DATA_QUALITY", "version": 3},
		"details": {"items": [
			{"id": 41, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": []},
			{"id": 42, "measurementType": "COLUMN_DEFAULT", "columnName": "currency", "labels": []}
		]}
	}`
	stub.quality["1@3"] = latest
	stub.quality["1@latest"] = latest

	p, store := newTestPipeline(t, stub)
	seedChecks(t, store, ledger.CheckRow{
		PolicyID: 1, PolicyName: "orders quality", CheckID: 11,
		CheckKind: "COLUMN_DEFAULT", ColumnIdentity: "COLUMN_DEFAULT-amount",
	})

	result, err := p.Sync(context.Background(), pkgsync.Defaults())
	require.NoError(t, err)

	assert.Equal(t, 1, result.RowsAppended)
	assert.Equal(t, 2, result.LabelsAdded)
	assert.Equal(t, 0, result.LabelsSkipped)
	assert.Equal(t, 1, result.Writes)
	assert.Equal(t, 1, result.ChangedPolicies)
	assert.Equal(t, 0, result.SkippedPolicies)

	// The new row keeps the id the check had when first observed.
	checks, err := store.LoadChecks()
	require.NoError(t, err)
	originalID, ok := checks.Lookup(1, "COLUMN_DEFAULT-currency")
	require.True(t, ok)
	assert.Equal(t, int64(42), originalID)

	var update struct {
		Items []policy.CheckItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(stub.puts["quality:1"], &update))
	require.Len(t, update.Items, 2)
	assert.Equal(t, []policy.Label{{Key: "COLUMN_DEFAULT-amount", Value: "11"}}, update.Items[0].Labels)
	assert.Equal(t, []policy.Label{{Key: "COLUMN_DEFAULT-currency", Value: "42"}}, update.Items[1].Labels)
}

func TestSyncSkipsDiffWhenPairFetchFails(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(listedPolicy(1, "orders quality", "DATA_QUALITY", 3))
	stub.getFails["1@1"] = http.StatusInternalServerError
	stub.quality["1@latest"] = `{
		"rule": {"id": 1, "name": "orders quality", "type": "DATA_QUALITY", "version": 3},
		"details": {"items": [{"id": 41, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": []}]}
	}`

	p, store := newTestPipeline(t, stub)
	seedChecks(t, store, ledger.CheckRow{
		PolicyID: 1, PolicyName: "orders quality", CheckID: 11,
		CheckKind: "COLUMN_DEFAULT", ColumnIdentity: "COLUMN_DEFAULT-amount",
	})

	result, err := p.Sync(context.Background(), pkgsync.Defaults())
	require.NoError(t, err)

	// The diff stage was skipped; the label stage still ran on the rows
	// the ledger already had.
	assert.Equal(t, 0, result.RowsAppended)
	assert.Equal(t, 1, result.SkippedPolicies)
	assert.Equal(t, 1, result.LabelsAdded)
	assert.Equal(t, 1, result.Writes)
	require.Len(t, result.Errs(), 1)
}

func TestSyncDryRunLeavesEverythingUntouched(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(listedPolicy(1, "orders quality", "DATA_QUALITY", 3))
	stub.quality["1@1"] = `{
		"rule": {"id": 1, "name": "orders quality", "type": "DATA_QUALITY", "version": 1},
		"details": {"items": [{"id": 11, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": []}]}
	}`
	latest := `{
		"rule": {"id": 1, "name": "orders quality", "type": "DATA_QUALITY", "version": 3},
		"details": {"items": [
			{"id": 41, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": []},
			{"id": 42, "measurementType": "COLUMN_DEFAULT", "columnName": "currency", "labels": []}
		]}
	}`
	stub.quality["1@3"] = latest
	stub.quality["1@latest"] = latest

	p, store := newTestPipeline(t, stub)
	seedChecks(t, store, ledger.CheckRow{
		PolicyID: 1, PolicyName: "orders quality", CheckID: 11,
		CheckKind: "COLUMN_DEFAULT", ColumnIdentity: "COLUMN_DEFAULT-amount",
	})

	result, err := p.Sync(context.Background(), pkgsync.Defaults().Apply(pkgsync.WithDryRun(true)))
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.RowsAppended)
	assert.Equal(t, 2, result.LabelsAdded)
	assert.Equal(t, 0, result.Writes)
	assert.Empty(t, stub.puts)

	checks, err := store.LoadChecks()
	require.NoError(t, err)
	assert.Equal(t, 1, checks.Len()) // the seeded row only
}

func TestSyncOverrideRebuildsLabels(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(listedPolicy(1, "orders quality", "DATA_QUALITY", 1))
	stub.quality["1@latest"] = `{
		"rule": {"id": 1, "name": "orders quality", "type": "DATA_QUALITY", "version": 1},
		"details": {"items": [
			{"id": 41, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": [{"key": "legacy", "value": "x"}]}
		]}
	}`

	p, store := newTestPipeline(t, stub)
	seedChecks(t, store, ledger.CheckRow{
		PolicyID: 1, PolicyName: "orders quality", CheckID: 11,
		CheckKind: "COLUMN_DEFAULT", ColumnIdentity: "COLUMN_DEFAULT-amount",
	})

	result, err := p.Sync(context.Background(), pkgsync.Defaults().Apply(pkgsync.WithOverride(true)))
	require.NoError(t, err)

	assert.True(t, result.Override)
	assert.Equal(t, 1, result.LabelsAdded)
	assert.Equal(t, 1, result.LabelsRemoved)
	assert.Equal(t, 1, result.Writes)

	var update struct {
		Items []policy.CheckItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(stub.puts["quality:1"], &update))
	require.Len(t, update.Items, 1)
	assert.Equal(t, []policy.Label{{Key: "COLUMN_DEFAULT-amount", Value: "11"}}, update.Items[0].Labels)
}

func TestSyncCountsExistingLabelsAsSkipped(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(listedPolicy(1, "orders quality", "DATA_QUALITY", 1))
	stub.quality["1@latest"] = `{
		"rule": {"id": 1, "name": "orders quality", "type": "DATA_QUALITY", "version": 1},
		"details": {"items": [
			{"id": 41, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": [{"key": "COLUMN_DEFAULT-amount", "value": "11"}]}
		]}
	}`

	p, store := newTestPipeline(t, stub)
	seedChecks(t, store, ledger.CheckRow{
		PolicyID: 1, PolicyName: "orders quality", CheckID: 11,
		CheckKind: "COLUMN_DEFAULT", ColumnIdentity: "COLUMN_DEFAULT-amount",
	})

	result, err := p.Sync(context.Background(), pkgsync.Defaults())
	require.NoError(t, err)

	assert.Equal(t, 0, result.LabelsAdded)
	assert.Equal(t, 1, result.LabelsSkipped)
	assert.Equal(t, 0, result.Writes)
	assert.Empty(t, stub.puts)
	assert.False(t, result.HasChanges())
}

func TestSyncReconAppendsAndLabels(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(listedPolicy(5, "cash recon", "EQUALITY", 2))
	stub.recon["5@1"] = `{
		"rule": {"id": 5, "name": "cash recon", "type": "EQUALITY", "version": 1},
		"details": {
			"items": [{"id": 21, "measurementType": "HASHED_EQUALITY"}],
			"columnMappings": [{"id": 31, "leftColumnName": "id", "rightColumnName": "order_id", "labels": []}]
		}
	}`
	latest := `{
		"rule": {"id": 5, "name": "cash recon", "type": "EQUALITY", "version": 2},
		"details": {
			"items": [{"id": 22, "measurementType": "HASHED_EQUALITY"}],
			"columnMappings": [
				{"id": 61, "leftColumnName": "id", "rightColumnName": "order_id", "labels": []},
				{"id": 77, "leftColumnName": "amount", "rightColumnName": "amount_cents", "labels": []}
			]
		}
	}`
	stub.recon["5@2"] = latest
	stub.recon["5@latest"] = latest

	p, store := newTestPipeline(t, stub)
	seedMappings(t, store, ledger.MappingRow{
		PolicyID: 5, PolicyName: "cash recon", MappingID: 31,
		ReconKind: "HASHED_EQUALITY", LeftColumn: "id", RightColumn: "order_id",
	})

	result, err := p.Sync(context.Background(), pkgsync.Defaults().Apply(
		pkgsync.WithCategories(policy.CategoryReconciliation)))
	require.NoError(t, err)

	assert.Equal(t, 1, result.RowsAppended)
	assert.Equal(t, 2, result.LabelsAdded)
	assert.Equal(t, 1, result.Writes)

	mappings, err := store.LoadMappings()
	require.NoError(t, err)
	rows := mappings.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(77), rows[1].MappingID)
	assert.Equal(t, policy.MeasurementKind("HASHED_EQUALITY"), rows[1].ReconKind)

	var update struct {
		Mappings []policy.ColumnMapping `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(stub.puts["recon:5"], &update))
	require.Len(t, update.Mappings, 2)
	assert.Equal(t, []policy.Label{{Key: "id_order_id", Value: "31"}}, update.Mappings[0].Labels)
	assert.Equal(t, []policy.Label{{Key: "amount_amount_cents", Value: "77"}}, update.Mappings[1].Labels)
}

func TestSyncFailFastStopsAtFirstError(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(
		listedPolicy(1, "broken quality", "DATA_QUALITY", 2),
		listedPolicy(2, "orders quality", "DATA_QUALITY", 2),
	)
	stub.getFails["1@1"] = http.StatusInternalServerError

	p, store := newTestPipeline(t, stub)
	seedChecks(t, store,
		ledger.CheckRow{PolicyID: 1, PolicyName: "broken quality", CheckID: 11, CheckKind: "COLUMN_DEFAULT", ColumnIdentity: "COLUMN_DEFAULT-amount"},
		ledger.CheckRow{PolicyID: 2, PolicyName: "orders quality", CheckID: 12, CheckKind: "COLUMN_DEFAULT", ColumnIdentity: "COLUMN_DEFAULT-currency"},
	)

	result, err := p.Sync(context.Background(), pkgsync.Defaults().Apply(pkgsync.WithFailFast(true)))
	require.Error(t, err)

	assert.Equal(t, 1, result.TotalPolicies)
	assert.Equal(t, 1, result.SkippedPolicies)
	assert.Zero(t, stub.detailGets["2@1"])
}

func TestSyncIgnoresPlaceholderOnlyPolicies(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(listedPolicy(9, "empty quality", "DATA_QUALITY", 1))

	p, store := newTestPipeline(t, stub)
	seedChecks(t, store, ledger.CheckRow{PolicyID: 9, PolicyName: "empty quality"})

	result, err := p.Sync(context.Background(), pkgsync.Defaults())
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalPolicies)
	assert.False(t, result.HasChanges())
	assert.Empty(t, stub.detailGets)
}

func TestSyncWriteFailureLeavesCountsUntouched(t *testing.T) {
	stub := newCatalogStub(t)
	stub.list(listedPolicy(1, "orders quality", "DATA_QUALITY", 1))
	stub.quality["1@latest"] = `{
		"rule": {"id": 1, "name": "orders quality", "type": "DATA_QUALITY", "version": 1},
		"details": {"items": [{"id": 41, "measurementType": "COLUMN_DEFAULT", "columnName": "amount", "labels": []}]}
	}`
	stub.putFails["quality:1"] = http.StatusConflict

	p, store := newTestPipeline(t, stub)
	seedChecks(t, store, ledger.CheckRow{
		PolicyID: 1, PolicyName: "orders quality", CheckID: 11,
		CheckKind: "COLUMN_DEFAULT", ColumnIdentity: "COLUMN_DEFAULT-amount",
	})

	result, err := p.Sync(context.Background(), pkgsync.Defaults())
	require.NoError(t, err)

	assert.Equal(t, 0, result.LabelsAdded)
	assert.Equal(t, 0, result.Writes)
	assert.Equal(t, 1, result.SkippedPolicies)
	require.Len(t, result.Errs(), 1)
	assert.True(t, pkgerrors.IsWriteConflict(result.Errs()[0]))
}
