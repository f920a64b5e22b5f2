package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord marks a single unparseable input record. The record is
	// skipped and processing continues.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrSourceUnavailable marks a collaborator that could not be read at all.
	// The current operation is aborted.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrNotFound marks a lookup for an id the source does not hold.
	ErrNotFound = errors.New("not found")
)

// ValidationError represents an error found during record validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// SourceError wraps an I/O or SQL failure of a collaborator so that raw driver
// errors never cross the public operations.
type SourceError struct {
	Source string
	Err    error
}

// NewSourceError wraps err as an unavailable-source error for the named source.
func NewSourceError(source string, err error) *SourceError {
	return &SourceError{Source: source, Err: err}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSourceUnavailable, e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSourceUnavailable) hold for every SourceError.
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}
