package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrInvalidGraph is returned when an edge references a vertex outside [0, n)
	ErrInvalidGraph = errors.New("invalid graph")
	// ErrInvalidParameter is returned for non-positive sizes and malformed
	// numeric parameters
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Error carries structured context for construction and validation failures.
type Error struct {
	Op     string // Operation that failed (e.g., "graph.New", "layout.New")
	Field  string // Parameter name, if any
	Value  any    // Offending value, if any
	Edge   int    // Edge position in the input list, -1 when not applicable
	Cause  error
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op
	if e.Edge >= 0 {
		msg += fmt.Sprintf(" edge %d", e.Edge)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" %s=%v", e.Field, e.Value)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return fmt.Sprintf("%s: %v", msg, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building Errors.
type ErrorBuilder struct {
	err Error
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Op: op, Edge: -1}}
}

// Param records the offending parameter and its value.
func (b *ErrorBuilder) Param(name string, value any) *ErrorBuilder {
	b.err.Field = name
	b.err.Value = value
	return b
}

// Edge records the index of the offending edge.
func (b *ErrorBuilder) Edge(i int) *ErrorBuilder {
	b.err.Edge = i
	return b
}

// Detail adds free-form context.
func (b *ErrorBuilder) Detail(format string, args ...any) *ErrorBuilder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the built error.
func (b *ErrorBuilder) Err() error {
	e := b.err
	return &e
}
