// Package errors provides custom error types for the meetingfeed system.
// These errors enable programmatic error checking and keep the crawl
// pipeline's failure taxonomy in one place.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the meetingfeed system
var (
	// ErrNotFound indicates that a requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrRejected indicates that an observation was rejected during normalization
	ErrRejected = errors.New("observation rejected")

	// ErrExtractorFailed indicates that an agency's extractor failed
	ErrExtractorFailed = errors.New("extractor failed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrStoreFault indicates an internal record store failure; unlike
	// rejections and extractor failures this one is fatal to a run
	ErrStoreFault = errors.New("record store fault")
)

// RejectReason identifies why the normalizer dropped an observation.
type RejectReason string

// Normalization rejection reasons.
const (
	RejectUnparseableDate RejectReason = "UNPARSEABLE_DATE"
	RejectAmbiguousDate   RejectReason = "AMBIGUOUS_DATE"
	RejectMissingField    RejectReason = "MISSING_REQUIRED_FIELD"
)

// RejectionError represents a normalization rejection. The observation
// is dropped and counted; rejections never abort a run.
type RejectionError struct {
	Reason  RejectReason
	Agency  string
	Field   string
	Value   string
	Message string
}

// Error implements the error interface
func (e *RejectionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %s %q: %s", e.Reason, e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Is implements errors.Is support
func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

// NewRejectionError creates a new RejectionError
func NewRejectionError(reason RejectReason, agency, field, value, message string) *RejectionError {
	return &RejectionError{
		Reason:  reason,
		Agency:  agency,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ReasonOf returns the rejection reason carried by err, if any.
func ReasonOf(err error) (RejectReason, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}

// ExtractorError represents a failure of one agency's extractor.
// Extractor failures are contained per agency and never affect
// processing of other agencies.
type ExtractorError struct {
	Agency  string
	Timeout bool
	Err     error
}

// Error implements the error interface
func (e *ExtractorError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("extractor for %s timed out: %v", e.Agency, e.Err)
	}
	return fmt.Sprintf("extractor for %s failed: %v", e.Agency, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ExtractorError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ExtractorError) Is(target error) bool {
	if e.Timeout {
		return target == ErrExtractorFailed || target == ErrTimeout
	}
	return target == ErrExtractorFailed
}

// NewExtractorError creates a new ExtractorError
func NewExtractorError(agency string, err error) *ExtractorError {
	return &ExtractorError{Agency: agency, Err: err}
}

// NewExtractorTimeout creates an ExtractorError marking a run-deadline expiry
func NewExtractorTimeout(agency string, err error) *ExtractorError {
	return &ExtractorError{Agency: agency, Timeout: true, Err: err}
}

// NotFoundError represents an error when a record is not found
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
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "yaml", "json", etc.
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
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
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete"
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

// Is implements errors.Is support. Store I/O faults violate the
// durability guarantee the pipeline depends on, so they map to
// ErrStoreFault.
func (e *IOError) Is(target error) bool {
	return target == ErrStoreFault
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{Operation: operation, Path: path, Message: message, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRejection checks if an error is a normalization rejection
func IsRejection(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsExtractorFailure checks if an error is an extractor failure
func IsExtractorFailure(err error) bool {
	return errors.Is(err, ErrExtractorFailed)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsStoreFault checks if an error is a fatal record store fault
func IsStoreFault(err error) bool {
	return errors.Is(err, ErrStoreFault)
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
