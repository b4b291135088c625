// Package errors provides a lightweight structured error type (LuxError)
// for category-based classification in the HTTP layer and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a luxd error for classification
type ErrorCategory string

const (
	// User-facing input errors
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryConflict   ErrorCategory = "conflict"

	// Remote write rejected during an active local lockout window
	CategoryLocked ErrorCategory = "locked"

	// Configuration errors
	CategoryConfig ErrorCategory = "config"

	// Runtime and infrastructure errors
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryRuntime    ErrorCategory = "runtime"
	CategoryDaemon     ErrorCategory = "daemon"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// LuxError is a structured error with category, severity, and context
type LuxError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for LuxError
type ContextFields map[string]any

// Error implements the error interface
func (e *LuxError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *LuxError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *LuxError) WithContext(key string, value any) *LuxError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new LuxError
func New(category ErrorCategory, severity ErrorSeverity, message string) *LuxError {
	return &LuxError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new LuxError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *LuxError {
	return &LuxError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// AsLux attempts to convert an error to a LuxError
func AsLux(err error) (*LuxError, bool) {
	if le, ok := err.(*LuxError); ok {
		return le, true
	}
	return nil, false
}

// HasCategory checks if an error is a LuxError of the given category
func HasCategory(err error, category ErrorCategory) bool {
	if le, ok := AsLux(err); ok {
		return le.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal
func GetCategory(err error) ErrorCategory {
	if le, ok := AsLux(err); ok {
		return le.Category
	}
	return CategoryInternal
}
