// Package errors provides custom error types for the stablemark system.
// These errors enable programmatic error checking across the catalog
// client, the ledger, and the sync pipelines.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the stablemark system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrWriteConflict indicates that the remote service rejected a write-back
	ErrWriteConflict = errors.New("write conflict")

	// ErrUnauthorized indicates that the remote service rejected the credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates that the remote service is temporarily unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// TransportError represents a connection-level failure before any HTTP
// status was received
type TransportError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("transport error calling %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransportError) Is(target error) bool {
	return target == ErrUnavailable
}

// NewTransportError creates a new TransportError
func NewTransportError(endpoint string, err error) *TransportError {
	return &TransportError{Endpoint: endpoint, Err: err}
}

// APIError represents a non-2xx response from the catalog service
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return target == ErrUnauthorized
	case e.StatusCode == 429:
		return target == ErrRateLimited
	case e.StatusCode >= 500:
		return target == ErrUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(endpoint string, statusCode int, message string) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// WriteConflictError represents a rejected write-back for a single policy.
// The already-persisted ledger rows for that policy are not rolled back;
// rerunning the pipeline is the recovery path.
type WriteConflictError struct {
	PolicyID   int64
	StatusCode int
	Detail     string
}

// Error implements the error interface
func (e *WriteConflictError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("write-back rejected for policy %d (status %d): %s", e.PolicyID, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("write-back rejected for policy %d (status %d)", e.PolicyID, e.StatusCode)
}

// Is implements errors.Is support
func (e *WriteConflictError) Is(target error) bool {
	return target == ErrWriteConflict
}

// NewWriteConflictError creates a new WriteConflictError
func NewWriteConflictError(policyID int64, statusCode int, detail string) *WriteConflictError {
	return &WriteConflictError{
		PolicyID:   policyID,
		StatusCode: statusCode,
		Detail:     detail,
	}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// PolicyError represents a failure while processing a single policy.
// The pipeline records it and moves on; it never aborts the batch.
type PolicyError struct {
	PolicyID int64
	Stage    string
	Err      error
}

// Error implements the error interface
func (e *PolicyError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("policy %d failed during %s: %v", e.PolicyID, e.Stage, e.Err)
	}
	return fmt.Sprintf("policy %d failed: %v", e.PolicyID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PolicyError) Unwrap() error {
	return e.Err
}

// NewPolicyError creates a new PolicyError
func NewPolicyError(policyID int64, stage string, err error) *PolicyError {
	return &PolicyError{
		PolicyID: policyID,
		Stage:    stage,
		Err:      err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "csv", "yaml", etc.
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsWriteConflict checks if an error is a write conflict
func IsWriteConflict(err error) bool {
	return errors.Is(err, ErrWriteConflict)
}

// IsTransport checks if an error is a connection-level transport error
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsUnauthorized checks if an error is an authentication failure
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsUnavailable checks if an error indicates remote unavailability
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapTransport wraps an error as a TransportError
func WrapTransport(endpoint string, err error) error {
	if err == nil {
		return nil
	}
	return NewTransportError(endpoint, err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(endpoint string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
