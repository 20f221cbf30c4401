package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stablemark/stablemark/pkg/constants"
	"github.com/stablemark/stablemark/pkg/errors"
)

// DecodeResponse decodes a JSON response into the target structure and
// closes the body. Any status other than 200 is returned as an APIError
// carrying the endpoint and a truncated remote body.
func DecodeResponse(resp *http.Response, target any) error {
	defer func() { _ = resp.Body.Close() }()

	endpoint := requestEndpoint(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		return &errors.APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    truncateBody(body),
		}
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", endpoint, err)
	}
	return nil
}

// CheckStatus drains and closes the body, returning an APIError for any
// status other than 200. Used for writes whose response body carries no
// data this system needs.
func CheckStatus(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", requestEndpoint(resp), err)
	}

	if resp.StatusCode != http.StatusOK {
		return &errors.APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   requestEndpoint(resp),
			Message:    truncateBody(body),
		}
	}
	return nil
}

func requestEndpoint(resp *http.Response) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return ""
}

func truncateBody(body []byte) string {
	if len(body) > constants.MaxErrorBodyLength {
		return string(body[:constants.MaxErrorBodyLength])
	}
	return string(body)
}
