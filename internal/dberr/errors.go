// Package dberr defines the error kinds surfaced by the workspace core.
//
// Every error returned to a caller is either one of these kinds or a wrapped
// store failure. None of them is fatal: validation and not-found errors are
// user-visible messages, and a simulated failure is a retryable notification.
package dberr

import (
	"errors"
	"fmt"
)

// Code categorizes workspace errors.
type Code string

const (
	// CodeValidation indicates bad input: empty or duplicate names, missing
	// connection fields, empty column sets, mistyped values.
	CodeValidation Code = "VALIDATION"

	// CodeNotFound indicates a project, table, column or row is absent.
	CodeNotFound Code = "NOT_FOUND"

	// CodeSimulatedFailure indicates the simulated connector rejected a connection.
	CodeSimulatedFailure Code = "SIMULATED_FAILURE"
)

// Error is the structured error returned by registry, schema, records and
// connect operations.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Entity names the kind of thing involved ("project", "table", "row", ...).
	Entity string

	// Key identifies the entity instance, when known.
	Key string

	// Fields lists offending field names for validation failures.
	Fields []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Entity != "" && e.Key != "" {
		return fmt.Sprintf("%s: %s (%s=%s)", e.Code, e.Message, e.Entity, e.Key)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Entity)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validation creates a validation error for the given entity.
func Validation(entity, format string, args ...any) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
		Entity:  entity,
	}
}

// MissingFields creates a validation error listing absent required fields.
func MissingFields(entity, key string, fields []string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: fmt.Sprintf("missing required fields %v", fields),
		Entity:  entity,
		Key:     key,
		Fields:  fields,
	}
}

// NotFound creates a not-found error for the given entity and key.
func NotFound(entity, key string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: entity + " not found",
		Entity:  entity,
		Key:     key,
	}
}

// SimulatedFailure creates the error returned when a simulated connection fails.
func SimulatedFailure(kind, reason string) *Error {
	return &Error{
		Code:    CodeSimulatedFailure,
		Message: "failed to connect to database: " + reason,
		Entity:  "connection",
		Key:     kind,
	}
}

// CodeOf returns the code of a workspace error, or "" for other errors.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool {
	return CodeOf(err) == CodeValidation
}

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsSimulatedFailure returns true if err is a simulated connection failure.
func IsSimulatedFailure(err error) bool {
	return CodeOf(err) == CodeSimulatedFailure
}
