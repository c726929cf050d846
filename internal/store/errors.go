package store

import (
	"errors"
	"fmt"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/paths"
	"github.com/nhle/evorbrain/internal/validate"
)

// Error categories. Use errors.Is to test for them.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrDatabase   = errors.New("database error")
	ErrValidation = validate.ErrInvalid
	ErrSecurity   = paths.ErrSecurity
)

// NotFoundError is returned when an entity with the given ID does not exist.
type NotFoundError struct {
	Kind model.Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind.Label(), e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError is returned when a hard delete is blocked by rows that
// still reference the entity.
type ConflictError struct {
	Kind      model.Kind
	ID        string
	Dependent model.Kind
	Count     int
}

func (e *ConflictError) Error() string {
	noun := e.Dependent.Label()
	if e.Count != 1 {
		noun = plural(e.Dependent)
	}
	return fmt.Sprintf("cannot delete %s %s: %d %s still associated with it",
		e.Kind.Label(), e.ID, e.Count, noun)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// DatabaseError wraps a failed query or statement.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrDatabase as well as the wrapped driver error.
func (e *DatabaseError) Is(target error) bool { return target == ErrDatabase }

func dbErr(op string, err error) error {
	return &DatabaseError{Op: op, Err: err}
}

func notFound(kind model.Kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func plural(k model.Kind) string {
	switch k {
	case model.KindLifeArea:
		return "life areas"
	case model.KindTask:
		return "tasks"
	default:
		return string(k) + "s"
	}
}
