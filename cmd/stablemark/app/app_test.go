package app

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stablemark/stablemark"
)

// testConfig returns a config with enough catalog settings to build a client.
func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Host:      "http://localhost:1",
		AccessKey: "test-access",
		SecretKey: "test-secret",
		LedgerDir: t.TempDir(),
		LogFormat: "json",
		LogOutput: "stderr",
	}
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
}

// TestApp_Client_Singleton verifies that Client() returns the same instance.
func TestApp_Client_Singleton(t *testing.T) {
	app, err := New("1.0.0", "test", "2024-01-01", "test", WithConfig(testConfig(t)))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	// Get the client twice
	c1, err := app.Client()
	if err != nil {
		t.Fatalf("Client() failed: %v", err)
	}

	c2, err := app.Client()
	if err != nil {
		t.Fatalf("Client() failed on second call: %v", err)
	}

	// Verify it's the same instance (same pointer)
	if c1 != c2 {
		t.Error("Client() returned different instances, expected singleton")
	}
}

// TestApp_Client_ThreadSafe verifies concurrent Client() calls are safe.
func TestApp_Client_ThreadSafe(t *testing.T) {
	app, err := New("1.0.0", "test", "2024-01-01", "test", WithConfig(testConfig(t)))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]stablemark.Client, goroutines)
	errs := make([]error, goroutines)

	// Launch many goroutines to test concurrent access
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			c, err := app.Client()
			results[idx] = c
			errs[idx] = err
		}(i)
	}

	wg.Wait()

	// Verify all calls succeeded
	for i, err := range errs {
		if err != nil {
			t.Errorf("Goroutine %d: Client() failed: %v", i, err)
		}
	}

	// Verify all got the same instance
	first := results[0]
	for i, c := range results[1:] {
		if c != first {
			t.Errorf("Goroutine %d got different client instance", i+1)
		}
	}
}

// TestApp_Client_RequiresCatalogConfig verifies that a missing catalog
// configuration surfaces on first use rather than at startup.
func TestApp_Client_RequiresCatalogConfig(t *testing.T) {
	app, err := New("1.0.0", "test", "2024-01-01", "test", WithConfig(&Config{}))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if _, err := app.Client(); err == nil {
		t.Error("Client() succeeded without catalog configuration, expected error")
	}
}

// TestApp_WithOptions tests the functional options pattern.
func TestApp_WithOptions(t *testing.T) {
	// Create custom config
	customConfig := &Config{
		Verbose: true,
		Quiet:   false,
		Format:  "json",
	}

	// Create custom logger
	customLogger := zerolog.Nop() // No-op logger for testing

	// Create app with options
	app, err := New("1.0.0", "test", "2024-01-01", "test",
		WithConfig(customConfig),
		WithLogger(&customLogger),
	)
	if err != nil {
		t.Fatalf("New() with options failed: %v", err)
	}

	// Verify options were applied
	if app.Config() != customConfig {
		t.Error("WithConfig() option not applied")
	}
	if app.Logger() != &customLogger {
		t.Error("WithLogger() option not applied")
	}
	if app.OutputFormat() != "json" {
		t.Errorf("OutputFormat() = %s, want json", app.OutputFormat())
	}
}

// TestApp_LedgerDir verifies the ledger directory default.
func TestApp_LedgerDir(t *testing.T) {
	app, err := New("1.0.0", "test", "2024-01-01", "test", WithConfig(&Config{}))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if app.LedgerDir() != "." {
		t.Errorf("LedgerDir() = %s, want .", app.LedgerDir())
	}

	app, err = New("1.0.0", "test", "2024-01-01", "test", WithConfig(&Config{LedgerDir: "/tmp/ledgers"}))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if app.LedgerDir() != "/tmp/ledgers" {
		t.Errorf("LedgerDir() = %s, want /tmp/ledgers", app.LedgerDir())
	}
}

// TestApp_BuildClientOptions verifies config fields turn into client options.
func TestApp_BuildClientOptions(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected int
	}{
		{
			name:     "minimal config",
			config:   &Config{Host: "http://localhost:1", AccessKey: "a", SecretKey: "s"},
			expected: 2, // catalog + logger
		},
		{
			name: "ledger dir adds an option",
			config: &Config{
				Host: "http://localhost:1", AccessKey: "a", SecretKey: "s",
				LedgerDir: "/tmp/ledgers",
			},
			expected: 3,
		},
		{
			name: "filters and override add options",
			config: &Config{
				Host: "http://localhost:1", AccessKey: "a", SecretKey: "s",
				RuleStatus:     "ACTIVE",
				OverrideLabels: true,
			},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := New("1.0.0", "test", "2024-01-01", "test", WithConfig(tt.config))
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}
			if got := len(app.buildClientOptions()); got != tt.expected {
				t.Errorf("buildClientOptions() returned %d options, want %d", got, tt.expected)
			}
		})
	}
}
