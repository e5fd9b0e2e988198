// Package apperr defines the canonical service failure taxonomy. Services
// return these types; HTTP handlers translate them into status codes and
// response envelopes without inspecting error strings.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials covers bad email/password pairs without leaking which half failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports caller input that failed validation, field by field.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return fmt.Sprintf("%s: validation failed", e.Op)
	}
	return fmt.Sprintf("%s: invalid fields: %s", e.Op, strings.Join(names, ", "))
}

// NewValidation builds a ValidationError for a single bad field.
func NewValidation(op, field, reason string) *ValidationError {
	return &ValidationError{Op: op, Fields: map[string]string{field: reason}}
}

// NotFoundError reports a missing resource by kind and id.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.ID == uuid.Nil {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a uniqueness collision. ExistingID points at the row
// that already covers the attempted write when the service could resolve it.
type ConflictError struct {
	Op         string
	Message    string
	ExistingID uuid.UUID
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "conflict"
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// CircularDependencyError reports a rejected edge that would close a cycle.
// Path starts and ends at the same lecture id, e.g. [A, C, B, A].
type CircularDependencyError struct {
	Op          string
	Path        []uuid.UUID
	Description string
}

func (e *CircularDependencyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: circular dependency: %s", e.Op, e.PathString())
}

// PathString renders the cycle path as "a -> c -> b -> a".
func (e *CircularDependencyError) PathString() string {
	parts := make([]string, 0, len(e.Path))
	for _, id := range e.Path {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, " -> ")
}

// DatabaseError wraps infrastructure failures. Retryable marks transient
// conditions (serialization failures, deadlocks, timeouts) that callers may
// safely re-attempt.
type DatabaseError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *DatabaseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	kind := "database failure"
	if e.Retryable {
		kind = "transient database failure"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, kind, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a retryable database failure.
func IsRetryable(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Retryable
}
