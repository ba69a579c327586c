package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError aggregates all field-level rule violations detected
// before persistence is attempted. Callers can fix their input and retry.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError is raised when the storage engine rejects a write because of
// a unique constraint (duplicate email, duplicate association pair...).
// Constraint names the violated index so boundary layers can map it to a
// specific user-facing message without parsing engine error text.
type ConflictError struct {
	Err        error
	Constraint string
}

func NewConflictError(err error, constraint string) error {
	return &ConflictError{Err: err, Constraint: constraint}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return "conflict"
	}
	return err.Err.Error()
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

// IntegrityError is raised when an association row references a
// non-existent row and the storage engine's foreign-key check rejects it.
type IntegrityError struct {
	Err        error
	Constraint string
}

func NewIntegrityError(err error, constraint string) error {
	return &IntegrityError{Err: err, Constraint: constraint}
}

func (err IntegrityError) Error() string {
	if err.Err == nil {
		return "referenced row does not exist"
	}
	return err.Err.Error()
}

func IsIntegrityError(err error) bool {
	_, ok := errors.Cause(err).(*IntegrityError)
	return ok
}

// hashingError signals a failure of the password hashing primitive
// (cost factor out of range, malformed digest). It is an internal
// condition, never a user input problem.
type hashingError struct {
	err error
}

func NewHashingError(err error) error {
	return &hashingError{err: err}
}

func (err hashingError) Error() string {
	if err.err == nil {
		return "hashing failed"
	}
	return err.err.Error()
}

func IsHashingError(err error) bool {
	_, ok := errors.Cause(err).(*hashingError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
