// Package apperr defines the error taxonomy shared by the election and vote services
// and maps it onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateVote is returned when a user already voted in an election.
	ErrDuplicateVote = errors.New("user has already voted in this election")
	// ErrForbidden is returned when the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a unique record already exists (e.g. email).
	ErrConflict = errors.New("already exists")
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid returns a ValidationError for field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ValidationErrors collects every failed rule of one input.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// As lets errors.As find the first ValidationError inside the list.
func (es ValidationErrors) As(target any) bool {
	t, ok := target.(**ValidationError)
	if !ok || len(es) == 0 {
		return false
	}
	*t = es[0]
	return true
}

// OrNil returns nil for an empty list so callers can return it directly.
func (es ValidationErrors) OrNil() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// StoreError wraps a failure of the record store or another backing service.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError unless it is nil or already classified.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsClassified(err) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// NotFound wraps ErrNotFound with the entity name, e.g. "election not found".
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsClassified reports whether err already belongs to the taxonomy.
func IsClassified(err error) bool {
	var se *StoreError
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateVote) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrConflict) ||
		IsValidation(err) ||
		errors.As(err, &se)
}
