package catalog

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/stablemark/stablemark/pkg/errors"
)

// Config holds the connection settings for a catalog service.
type Config struct {
	// Host is the catalog base URL including scheme, e.g.
	// "https://acme.example.com".
	Host string

	// AccessKey and SecretKey are the credential header values.
	AccessKey string
	SecretKey string

	// Filters narrow the policy listing. Zero-value filters list everything.
	Filters Filters

	// HTTPClient overrides the default HTTP client when set.
	HTTPClient *http.Client
}

// Filters narrow the policy listing to a subset of the catalog.
type Filters struct {
	RuleStatus  string
	RuleType    string
	Tag         string
	AssemblyIDs string
}

// Validate checks that the required connection settings are present.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return errors.NewConfigError("catalog", "host is required", nil)
	}
	if c.AccessKey == "" {
		return errors.NewConfigError("catalog", "access key is required", nil)
	}
	if c.SecretKey == "" {
		return errors.NewConfigError("catalog", "secret key is required", nil)
	}
	return nil
}

// apply adds the non-empty filters to a listing query.
func (f Filters) apply(q url.Values) {
	if f.RuleStatus != "" {
		q.Set("ruleStatus", f.RuleStatus)
	}
	if f.RuleType != "" {
		q.Set("ruleType", f.RuleType)
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		q.Set("tag", tag)
	}
	if ids := strings.TrimSpace(f.AssemblyIDs); ids != "" {
		q.Set("assemblyIds", ids)
	}
}
