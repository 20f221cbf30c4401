package errors_test

import (
	"fmt"
	"net/http"

	"github.com/stablemark/stablemark/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := &errors.NotFoundError{
		Resource: "policy",
		ID:       "1042",
	}

	if errors.IsNotFound(err) {
		fmt.Println("Policy not found")
	}

	// Output: Policy not found
}

// Example_writeConflict shows write-back rejection handling.
func Example_writeConflict() {
	err := errors.NewWriteConflictError(1042, 409, "policy version moved")

	if errors.IsWriteConflict(err) {
		fmt.Println("Write-back rejected; rerun the pipeline to converge")
	}

	// Output: Write-back rejected; rerun the pipeline to converge
}

// Example_policyError demonstrates per-policy failure reporting.
func Example_policyError() {
	base := errors.NewTransportError("/catalog-server/api/rules/data-quality/7", fmt.Errorf("connection reset"))
	err := errors.NewPolicyError(7, "baseline fetch", base)

	fmt.Println(errors.IsTransport(err))
	fmt.Println(err.PolicyID)

	// Output:
	// true
	// 7
}

// Example_hTTPStatusMapping maps HTTP codes to error types.
func Example_hTTPStatusMapping() {
	mapHTTPError := func(status int, endpoint string) error {
		switch status {
		case http.StatusNotFound:
			return &errors.NotFoundError{Resource: "policy", ID: endpoint}
		case http.StatusConflict:
			return &errors.WriteConflictError{StatusCode: status}
		default:
			return &errors.APIError{
				Endpoint:   endpoint,
				StatusCode: status,
				Message:    http.StatusText(status),
			}
		}
	}

	err := mapHTTPError(409, "/rules/data-quality/9")
	if errors.IsWriteConflict(err) {
		fmt.Println("Conflict detected")
	}

	// Output: Conflict detected
}
