// Package errors provides classified errors for the planner engine.
// Every engine failure carries a category so callers can degrade
// per-task instead of aborting a whole batch: a malformed record is
// dropped, an unparsable recurrence rule downgrades one task to
// non-recurring, a duplicate occurrence is logged and discarded.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies engine failures.
type ErrorCategory string

const (
	// Engine categories.
	CategoryRecord     ErrorCategory = "record"     // malformed persisted task record
	CategoryRule       ErrorCategory = "rule"       // unparsable recurrence rule
	CategoryProjection ErrorCategory = "projection" // projection anomaly (duplicate occurrence)

	// Host categories.
	CategoryStorage    ErrorCategory = "storage"
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how a failure should be handled.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// ErrorContext carries structured key/value detail on an error.
type ErrorContext map[string]any

// Set returns a copy with key set.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = value
	return out
}

// ClassifiedError is a structured error with category and severity.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

// Error implements the standard error interface.
func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

// Unwrap implements Go 1.13+ error unwrapping.
func (e *ClassifiedError) Unwrap() error { return e.cause }

// Category returns the error category.
func (e *ClassifiedError) Category() ErrorCategory { return e.category }

// Severity returns the error severity.
func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

// Context returns the error context.
func (e *ClassifiedError) Context() ErrorContext { return e.context }

// WithContext adds a context value and returns a new error.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	return &ClassifiedError{
		category: e.category,
		severity: e.severity,
		message:  e.message,
		cause:    e.cause,
		context:  e.context.Set(key, value),
	}
}

// Is matches two classified errors on category and message.
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// IsCategory checks if the error belongs to a specific category.
func (e *ClassifiedError) IsCategory(category ErrorCategory) bool {
	return e.category == category
}

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder { return b.WithSeverity(SeverityFatal) }

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder { return b.WithSeverity(SeverityWarning) }

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Convenience constructors for the engine taxonomy.

// RecordError creates a malformed-record error. Sanitizer drops the
// record and continues; never fatal to a batch.
func RecordError(message string) *ErrorBuilder {
	return NewError(CategoryRecord, message).Warning()
}

// RuleError creates a recurrence-rule parse error. Callers fall back
// to treating the task as non-recurring.
func RuleError(message string) *ErrorBuilder {
	return NewError(CategoryRule, message).Warning()
}

// ProjectionError creates a projection anomaly error.
func ProjectionError(message string) *ErrorBuilder {
	return NewError(CategoryProjection, message).Warning()
}

// StorageError creates a task-store error.
func StorageError(message string) *ErrorBuilder {
	return NewError(CategoryStorage, message)
}

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError creates a validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message)
}

// HasCategory reports whether err (or anything it wraps) is a
// ClassifiedError of the given category.
func HasCategory(err error, category ErrorCategory) bool {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.IsCategory(category)
	}
	return false
}
