package constants_test

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/stablemark/stablemark/pkg/constants"
)

// Example demonstrates using constants for common operations
func Example() {
	dir := filepath.Join(os.TempDir(), "stablemark-example")
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		panic(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	file := filepath.Join(dir, "quality-checks.csv")
	data := []byte("policyId,policyName,checkId,checkKind,columnIdentity\n")
	if err := os.WriteFile(file, data, constants.FilePermissions); err != nil {
		panic(err)
	}

	fmt.Printf("Created dir with %o permissions\n", constants.DirPermissions)
	fmt.Printf("Created file with %o permissions\n", constants.FilePermissions)
	// Output:
	// Created dir with 755 permissions
	// Created file with 644 permissions
}

// Example_timeouts demonstrates timeout constants
func Example_timeouts() {
	client := &http.Client{
		Timeout: constants.DefaultHTTPTimeout,
	}
	fmt.Printf("HTTP timeout: %v\n", client.Timeout)

	// Output:
	// HTTP timeout: 30s
}

// Example_paging demonstrates listing limits
func Example_paging() {
	fmt.Printf("Page size: %d\n", constants.DefaultPageSize)
	fmt.Printf("Baseline version: %d\n", constants.BaselineVersion)

	// Output:
	// Page size: 100
	// Baseline version: 1
}
