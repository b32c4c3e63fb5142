// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harp

import "fmt"

// ErrorKind classifies the failures a harp operation can return.
type ErrorKind int

const (
	// ErrOutOfMemory signals an allocation failure.
	ErrOutOfMemory ErrorKind = iota
	// ErrInvalidArgument signals structural misuse of an API.
	ErrInvalidArgument
	// ErrInvalidVariable signals a variable-level invariant violation.
	ErrInvalidVariable
	// ErrInvalidProduct signals a product-level invariant violation.
	ErrInvalidProduct
	// ErrVariableNotFound signals that a requested variable could not be
	// located or derived.
	ErrVariableNotFound
	// ErrUnitConversion signals a mathematically invalid unit conversion.
	ErrUnitConversion
	// ErrInvalidDatetime signals failure to establish a time source.
	ErrInvalidDatetime
	// ErrUnsupported signals a request outside the engine's capabilities.
	ErrUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case ErrOutOfMemory:
		return "out of memory"
	case ErrInvalidArgument:
		return "invalid argument"
	case ErrInvalidVariable:
		return "invalid variable"
	case ErrInvalidProduct:
		return "invalid product"
	case ErrVariableNotFound:
		return "variable not found"
	case ErrUnitConversion:
		return "unit conversion error"
	case ErrInvalidDatetime:
		return "invalid datetime"
	case ErrUnsupported:
		return "unsupported"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by every fallible harp operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("harp: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("harp: %s: %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/As to see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.Cause }

// newError builds an *Error with a formatted message.
func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// wrapError builds an *Error that wraps an underlying cause.
func wrapError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ErrorContext accumulates human-readable location hints (the offending
// variable name, the rule that was being evaluated) onto an existing error
// without changing its Kind.
type ErrorContext struct {
	err *Error
}

// NewErrorContext wraps err (if it is a *harp.Error; otherwise it is
// re-wrapped as an Unsupported error) for further annotation.
func NewErrorContext(err error) *ErrorContext {
	if he, ok := err.(*Error); ok {
		return &ErrorContext{err: he}
	}
	return &ErrorContext{err: wrapError(ErrUnsupported, err, "unexpected error")}
}

// WithVariable prepends "variable '<name>': " to the error message.
func (c *ErrorContext) WithVariable(name string) *ErrorContext {
	c.err.Message = fmt.Sprintf("variable '%s': %s", name, c.err.Message)
	return c
}

// WithRule prepends "rule '<desc>': " to the error message.
func (c *ErrorContext) WithRule(desc string) *ErrorContext {
	c.err.Message = fmt.Sprintf("rule '%s': %s", desc, c.err.Message)
	return c
}

// Err returns the annotated error.
func (c *ErrorContext) Err() error { return c.err }
