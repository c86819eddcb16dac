package store

import (
	"errors"
	"fmt"
)

// Errors shared by the ProfileStore implementations. Drivers translate their
// own error codes into these so services never see driver types.
var (
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate marks a unique key collision, such as a second card
	// for the same learner and word.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity marks a row rejected by validation or by a schema
	// constraint. The wrapped error names the constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed wraps begin and commit failures.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrProfileNotFound is returned by Load for a learner with no row yet.
	ErrProfileNotFound = fmt.Errorf("%w: learner profile", ErrNotFound)
)

// IsNotFoundError reports whether err wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StoreError records which entity and operation a driver error came from.
type StoreError struct {
	Entity    string // "profile", "card" or "activity"
	Operation string // "load", "save", "ensure", "list"
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

// Unwrap exposes the driver or mapped store error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError builds a StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
