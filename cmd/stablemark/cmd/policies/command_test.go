package policies

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablemark/stablemark"
	"github.com/stablemark/stablemark/pkg/policy"
)

type stubApp struct {
	client stablemark.Client
	logger *zerolog.Logger
}

func (s *stubApp) Client() (stablemark.Client, error) { return s.client, nil }
func (s *stubApp) Logger() *zerolog.Logger            { return s.logger }
func (s *stubApp) OutputFormat() string               { return "json" }
func (s *stubApp) Quiet() bool                        { return true }

func newTestApp(t *testing.T) *stubApp {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/catalog-server/api/rules", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"rules":[{"rule":{"id":1,"name":"orders quality","type":"DATA_QUALITY","version":1}},{"rule":{"id":2,"name":"orders recon","type":"EQUALITY","version":1}}],"totalCount":2}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := stablemark.New(
		stablemark.WithCatalog(server.URL, "ak", "sk"),
		stablemark.WithLedgerDir(t.TempDir()),
	)
	require.NoError(t, err)

	logger := zerolog.Nop()
	return &stubApp{client: client, logger: &logger}
}

func TestPoliciesCommandExportsMapping(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "policy-ids.csv")

	cmd := NewCommand(app)
	cmd.SetArgs([]string{"--export", path})
	require.NoError(t, cmd.Execute())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"policyName,policyId,category\norders quality,1,DATA_QUALITY\norders recon,2,EQUALITY\n",
		string(raw))
}

func TestExportMappingEmptyListing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, exportMapping(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "policyName,policyId,category\n", string(raw))
}

func TestExportMappingQuotesCommas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quoted.csv")
	summaries := []policy.Summary{
		{ID: 7, Name: `orders, refunds`, Category: policy.CategoryQuality},
	}
	require.NoError(t, exportMapping(path, summaries))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"orders, refunds",7,DATA_QUALITY`)
}
