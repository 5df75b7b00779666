// Package manifest parses YAML shipment manifests into domain values.
// This is part of the Functional Core - parsing performs no I/O.
package manifest

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrEmptyInput     = errors.New("manifest is empty")
	ErrInvalidYAML    = errors.New("invalid YAML syntax")
	ErrMissingAddress = errors.New("manifest must define from and to addresses")
	ErrNoParcels      = errors.New("manifest must define at least one parcel")
)

// ParseError wraps errors with context about where parsing failed.
type ParseError struct {
	Field   string // e.g., "parcels[1].weight"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
