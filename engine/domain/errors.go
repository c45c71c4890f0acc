package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the engine.
var (
	ErrInvalidProject   = errors.New("invalid project")
	ErrInvalidComponent = errors.New("invalid component")
	ErrMissingURL       = errors.New("project url is required")
	ErrNegativeStars    = errors.New("stars must be non-negative")
	ErrUnknownType      = errors.New("unknown component type")

	// ErrNotInitialized is returned when a graph session is requested
	// before the store has been bound to a backend.
	ErrNotInitialized = errors.New("graph store not initialized")

	// ErrRateLimited marks an upstream HTTP 403 from the search service.
	ErrRateLimited = errors.New("search rate limit exceeded")

	// ErrUpstream marks any other upstream search failure.
	ErrUpstream = errors.New("search upstream unavailable")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
