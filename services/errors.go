package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel failures surfaced by the idea lifecycle engine. Controllers map
// these to HTTP statuses; the engine never maps to statuses itself.
var (
	// ErrNotFound conceals existence: it covers missing ideas, drafts not
	// owned by the requester, and draft-only operations on non-drafts.
	ErrNotFound = errors.New("idea not found")

	// ErrInvalidTransition covers illegal state machine edges and lost
	// transition races (the precondition status changed before commit).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden is returned when the actor's role does not allow the
	// operation on an idea it is otherwise allowed to see.
	ErrForbidden = errors.New("insufficient permissions")
)

// ValidationError reports every offending field of a request at once.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// orNil collapses an empty error to nil so callers can return it directly.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
