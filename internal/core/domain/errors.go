package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConflictingDefinition indicates a table or index exists with a
	// different definition than the one requested.
	ErrConflictingDefinition = errors.New("conflicting definition")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration is matched by every ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation error")

	// ErrDeleted indicates an operation on a document that has been deleted.
	ErrDeleted = errors.New("document deleted")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")
)

// ConfigurationError reports a fatal misconfiguration detected while types,
// applications or collections are registered. It is never produced while
// serving a request.
type ConfigurationError struct {
	// Subject names what was being registered (a type, application or collection).
	Subject string
	// Reason describes the problem.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

// NewConfigurationError creates a ConfigurationError with a formatted reason.
func NewConfigurationError(subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Subject != "" {
		msg += " in " + e.Subject
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ValidationError reports a document that does not conform to its schema,
// or a special value rejected by its value handler.
type ValidationError struct {
	// Path is the JSON pointer or property name of the offending value.
	Path string
	// Reason describes the problem.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

// NewValidationError creates a ValidationError with a formatted reason.
func NewValidationError(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	msg := "validation failed"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
