package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ValidationError reports missing or malformed input. Handlers map it to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a missing entity. Handlers map it to 404.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// PersistenceError wraps a database failure. Handlers map it to 500 and log
// the cause.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// notFoundOr maps pgx.ErrNoRows to a NotFoundError and anything else to a
// PersistenceError.
func notFoundOr(op, resource, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return persistence(op, err)
}

// isUniqueViolation checks for pgconn error code 23505 on the named
// constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}
