// Package constants provides shared constants used throughout the
// stablemark codebase. This includes timeouts, limits, file permissions,
// and other configuration values that should be consistent across the
// application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the catalog service
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// SyncTimeout is the timeout for a full sync run
	SyncTimeout = 30 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for sensitive files like credentials (rw-------)
	SecureFilePermissions = 0600
)

// Limit constants define various limits and capacities
const (
	// DefaultPageSize is the page size used when listing policies
	DefaultPageSize = 100

	// MaxPageSize is the maximum allowed page size for paginated results
	MaxPageSize = 1000

	// MaxErrorBodyLength is how much of a remote error body is kept in messages
	MaxErrorBodyLength = 512
)

// Default values
const (
	// BaselineVersion is the policy version used as the diff baseline
	BaselineVersion = 1

	// DefaultEngineType is assumed when a quality policy does not name one
	DefaultEngineType = "JDBC_SQL"

	// DefaultReconKind is assumed when a reconciliation policy has no items
	DefaultReconKind = "EQUALITY"
)

// Format constants
const (
	// TimeFormatISO8601 is the ISO 8601 time format
	TimeFormatISO8601 = time.RFC3339

	// TimeFormatLog is the format used in log files
	TimeFormatLog = "2006-01-02 15:04:05.000"

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)
