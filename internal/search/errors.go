package search

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid search parameters")

	// ErrStoreUnavailable matches every *StoreUnavailableError.
	ErrStoreUnavailable = errors.New("book store unavailable")

	errNoStore = errors.New("no store configured")
)

// ValidationError reports a malformed or contradictory parameter. It is
// raised before any store access.
type ValidationError struct {
	Facet   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Facet, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(facet, format string, args ...any) *ValidationError {
	return &ValidationError{Facet: facet, Message: fmt.Sprintf(format, args...)}
}

// StoreUnavailableError wraps a failure of the store collaborator. The
// engine never retries; retry policy belongs to the caller.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("book store unavailable (%s): %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// Unavailable wraps err as a StoreUnavailableError unless it already is one.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var su *StoreUnavailableError
	if errors.As(err, &su) {
		return err
	}
	return &StoreUnavailableError{Op: op, Err: err}
}
