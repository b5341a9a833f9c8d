// Package domain holds the shared data model and error taxonomy for the
// conversion pipeline.
package domain

import (
	"errors"
	"fmt"
)

// ErrorType classifies domain-specific errors.
type ErrorType string

const (
	ErrorTypeUnsupportedFormat ErrorType = "unsupported_format"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeUnsupportedModel  ErrorType = "unsupported_model"
	ErrorTypeModel             ErrorType = "model"
	ErrorTypeSchema            ErrorType = "schema"
	ErrorTypeConversion        ErrorType = "conversion"
	ErrorTypeConfig            ErrorType = "config"
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Type    ErrorType
	Message string
	// PageIndex is the 0-based page the error belongs to, or -1 when the
	// error is not tied to a page.
	PageIndex int
	Err       error
}

func (e *DomainError) Error() string {
	msg := e.Message
	if e.PageIndex >= 0 {
		msg = fmt.Sprintf("page %d: %s", e.PageIndex+1, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error.
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:      errType,
		Message:   message,
		PageIndex: -1,
		Err:       err,
	}
}

// Common error constructors.

func UnsupportedFormatError(message string, err error) *DomainError {
	return NewError(ErrorTypeUnsupportedFormat, message, err)
}

func NotFoundError(message string, err error) *DomainError {
	return NewError(ErrorTypeNotFound, message, err)
}

func UnsupportedModelError(message string, err error) *DomainError {
	return NewError(ErrorTypeUnsupportedModel, message, err)
}

func ModelError(message string, err error) *DomainError {
	return NewError(ErrorTypeModel, message, err)
}

func SchemaError(message string, err error) *DomainError {
	return NewError(ErrorTypeSchema, message, err)
}

func ConversionError(message string, err error) *DomainError {
	return NewError(ErrorTypeConversion, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

// PageConversionError wraps a page-level failure with its 0-based page index.
func PageConversionError(pageIndex int, message string, err error) *DomainError {
	e := NewError(ErrorTypeConversion, message, err)
	e.PageIndex = pageIndex
	return e
}

// IsType reports whether err is (or wraps) a DomainError of the given type.
func IsType(err error, t ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == t
	}
	return false
}

// IsUnsupportedFormat reports whether the error classifies as an unsupported
// input format.
func IsUnsupportedFormat(err error) bool { return IsType(err, ErrorTypeUnsupportedFormat) }

// IsNotFound reports whether the error classifies as a missing input.
func IsNotFound(err error) bool { return IsType(err, ErrorTypeNotFound) }
