package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a referenced resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrRunInProgress is returned when a filter run is requested while another one holds the run lock.
	ErrRunInProgress = errors.New("a filter run is already in progress")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

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

// InvalidRuleError reports a malformed group rule, detected before any query is executed.
type InvalidRuleError struct {
	GroupID int
	Field   string
	Reason  string
}

func NewInvalidRuleError(groupID int, field, reason string) error {
	return &InvalidRuleError{GroupID: groupID, Field: field, Reason: reason}
}

func (err InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule for group %d: %s: %s", err.GroupID, err.Field, err.Reason)
}

// PersistenceError reports a failed storage operation.
type PersistenceError struct {
	Op  string
	Err error
}

func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (err PersistenceError) Error() string {
	return err.Op + ": " + err.Err.Error()
}

func (err PersistenceError) Unwrap() error { return err.Err }

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

// IsNotFound reports whether err, or any error it wraps, is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
