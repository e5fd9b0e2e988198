package apperr

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// MapDB maps raw persistence failures into the service taxonomy. Errors that
// already carry taxonomy types pass through untouched, so services can layer
// richer context (existing ids, cycle paths) before the generic mapping runs.
func MapDB(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		conflictErr   *ConflictError
		circularErr   *CircularDependencyError
		dbErr         *DatabaseError
	)
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &notFoundErr),
		errors.As(err, &conflictErr),
		errors.As(err, &circularErr),
		errors.As(err, &dbErr):
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &NotFoundError{Resource: "record"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &DatabaseError{Op: op, Err: err, Retryable: true}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return &ConflictError{Op: op, Message: "duplicate key"} // unique_violation
		case "23503":
			return &NotFoundError{Resource: "referenced record"} // foreign_key_violation
		case "40001", "40P01", "55P03":
			return &DatabaseError{Op: op, Err: err, Retryable: true} // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "already exists"):
		return &ConflictError{Op: op, Message: "duplicate key"}
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return &DatabaseError{Op: op, Err: err, Retryable: true}
	default:
		return &DatabaseError{Op: op, Err: err, Retryable: false}
	}
}

// IsUniqueViolation reports whether err is a raw Postgres unique violation.
// Services use it to distinguish index races from other write failures before
// MapDB generalizes the error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key")
}
