// Package catalog implements the client for the catalog service's rule
// endpoints: listing policies, fetching quality and reconciliation
// definitions at a given version, and writing updated definitions back.
//
// Write-backs are full-definition replaces. The client echoes every field
// the service returned, typed or not, so a PUT never strips remote-owned
// configuration.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/stablemark/stablemark/internal/transport"
	"github.com/stablemark/stablemark/pkg/constants"
	pkgerrors "github.com/stablemark/stablemark/pkg/errors"
	"github.com/stablemark/stablemark/pkg/logging"
	"github.com/stablemark/stablemark/pkg/policy"
)

// LatestVersion requests the newest version of a policy definition.
const LatestVersion = 0

const basePath = "/catalog-server/api"

// Detail endpoint segments per policy category.
const (
	qualitySegment = "data-quality"
	reconSegment   = "reconciliation"
)

// Client talks to one catalog service.
type Client struct {
	transport *transport.Client
	cfg       Config
	base      string
}

// New creates a catalog client from the given configuration.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []transport.Option
	if cfg.HTTPClient != nil {
		opts = append(opts, transport.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		transport: transport.New(&transport.KeyPairAuth{
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		}, opts...),
		cfg:  cfg,
		base: strings.TrimRight(cfg.Host, "/") + basePath,
	}, nil
}

// listEnvelope is the listing response. Each entry wraps the rule object
// alongside execution data this system does not read.
type listEnvelope struct {
	Rules      []listEntry `json:"rules"`
	TotalCount int         `json:"totalCount"`
}

type listEntry struct {
	Rule policy.Summary `json:"rule"`
}

// ListPolicies fetches every policy the configured filters admit, paging
// through the listing endpoint. Entries without an id or a name are
// dropped. Versions missing from the listing default to the baseline
// version.
func (c *Client) ListPolicies(ctx context.Context) (*policy.Policies, error) {
	policies := policy.NewPolicies(policy.WithPoliciesCapacity(constants.DefaultPageSize))

	page := 0
	totalPages := 1
	for {
		resp, err := c.transport.Get(ctx, c.listURL(page))
		if err != nil {
			return nil, err
		}

		var env listEnvelope
		if err := transport.DecodeResponse(resp, &env); err != nil {
			return nil, err
		}
		if page == 0 {
			totalPages = pageCount(env.TotalCount, constants.DefaultPageSize)
		}
		if len(env.Rules) == 0 {
			break
		}

		for _, entry := range env.Rules {
			summary := entry.Rule
			if summary.ID == 0 || summary.Name == "" {
				continue
			}
			if summary.Version == 0 {
				summary.Version = constants.BaselineVersion
			}
			if err := policies.Set(summary.ID, &summary); err != nil {
				return nil, err
			}
		}

		logging.Debug().
			Int("page", page).
			Int("rules", len(env.Rules)).
			Int("total", env.TotalCount).
			Msg("fetched policy listing page")

		page++
		if page >= totalPages {
			break
		}
	}

	return policies, nil
}

// GetQualityDetail fetches the data-quality definition of a policy. Pass
// LatestVersion for the newest version.
func (c *Client) GetQualityDetail(ctx context.Context, id int64, version int) (*policy.QualityDetail, error) {
	resp, err := c.transport.Get(ctx, c.detailURL(qualitySegment, id, version))
	if err != nil {
		return nil, err
	}

	var detail policy.QualityDetail
	if err := transport.DecodeResponse(resp, &detail); err != nil {
		return nil, readError(id, err)
	}
	return &detail, nil
}

// GetReconDetail fetches the reconciliation definition of a policy. Pass
// LatestVersion for the newest version.
func (c *Client) GetReconDetail(ctx context.Context, id int64, version int) (*policy.ReconDetail, error) {
	resp, err := c.transport.Get(ctx, c.detailURL(reconSegment, id, version))
	if err != nil {
		return nil, err
	}

	var detail policy.ReconDetail
	if err := transport.DecodeResponse(resp, &detail); err != nil {
		return nil, readError(id, err)
	}
	return &detail, nil
}

// qualityUpdate is the flattened write-back body for a quality policy.
type qualityUpdate struct {
	Rule          policy.Rule        `json:"rule"`
	Items         []policy.CheckItem `json:"items"`
	TransformUDFs json.RawMessage    `json:"transformUDFs"`
	EngineType    string             `json:"engineType"`
}

// PutQualityDetail replaces a quality policy definition with the given
// detail. The body echoes what was fetched; only the item labels are
// expected to differ.
func (c *Client) PutQualityDetail(ctx context.Context, id int64, detail *policy.QualityDetail) error {
	update := qualityUpdate{
		Rule:          detail.Rule,
		Items:         detail.Details.Items,
		TransformUDFs: detail.Details.TransformUDFs,
		EngineType:    detail.Rule.EngineType,
	}
	if update.Items == nil {
		update.Items = []policy.CheckItem{}
	}
	if update.TransformUDFs == nil {
		update.TransformUDFs = json.RawMessage("[]")
	}
	if update.EngineType == "" {
		update.EngineType = constants.DefaultEngineType
	}
	return c.put(ctx, c.detailURL(qualitySegment, id, LatestVersion), id, update)
}

// reconUpdate is the flattened write-back body for a reconciliation policy.
// The service expects cloningDetails cleared on definition updates.
type reconUpdate struct {
	Rule                policy.Rule            `json:"rule"`
	Items               []policy.ReconItem     `json:"items"`
	Mappings            []policy.ColumnMapping `json:"mappings"`
	CloningDetails      json.RawMessage        `json:"cloningDetails"`
	AnalyticsPipelineID json.RawMessage        `json:"analyticsPipelineId"`
}

// PutReconDetail replaces a reconciliation policy definition with the given
// detail. The body echoes what was fetched; only the mapping labels are
// expected to differ.
func (c *Client) PutReconDetail(ctx context.Context, id int64, detail *policy.ReconDetail) error {
	update := reconUpdate{
		Rule:                detail.Rule,
		Items:               detail.Details.Items,
		Mappings:            detail.Details.ColumnMappings,
		AnalyticsPipelineID: detail.Rule.AnalyticsPipelineID,
	}
	if update.Items == nil {
		update.Items = []policy.ReconItem{}
	}
	if update.Mappings == nil {
		update.Mappings = []policy.ColumnMapping{}
	}
	return c.put(ctx, c.detailURL(reconSegment, id, LatestVersion), id, update)
}

// put marshals the body, sends it, and maps rejected writes.
func (c *Client) put(ctx context.Context, endpoint string, id int64, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.WrapParse("json", endpoint, err)
	}

	resp, err := c.transport.Put(ctx, endpoint, payload)
	if err != nil {
		return err
	}
	if err := transport.CheckStatus(resp); err != nil {
		return writeError(id, err)
	}
	return nil
}

// listURL builds the listing URL for one page.
func (c *Client) listURL(page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(constants.DefaultPageSize))
	q.Set("withLatestExecution", "true")
	q.Set("sortBy", "startedAt:DESC")
	c.cfg.Filters.apply(q)
	return c.base + "/rules?" + q.Encode()
}

// detailURL builds a detail URL, versioned unless version is LatestVersion.
func (c *Client) detailURL(segment string, id int64, version int) string {
	u := c.base + "/rules/" + segment + "/" + strconv.FormatInt(id, 10)
	if version > LatestVersion {
		u += "?version=" + strconv.Itoa(version)
	}
	return u
}

// pageCount returns how many fixed-size pages cover count entries, at
// least one.
func pageCount(count, size int) int {
	if count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// readError maps a 404 on a detail fetch to a NotFoundError for the policy.
func readError(id int64, err error) error {
	var apiErr *pkgerrors.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return pkgerrors.NewNotFoundError("policy", strconv.FormatInt(id, 10))
	}
	return err
}

// writeError maps a rejected write-back: 404 means the policy is gone,
// anything else is a write conflict carrying the remote status and body.
func writeError(id int64, err error) error {
	var apiErr *pkgerrors.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusNotFound {
			return pkgerrors.NewNotFoundError("policy", strconv.FormatInt(id, 10))
		}
		return pkgerrors.NewWriteConflictError(id, apiErr.StatusCode, apiErr.Message)
	}
	return err
}
