package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when the requested entity or asset does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller does not own the entity or is not authenticated.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is wrapped by ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence marks a failed write against the record store.
	ErrPersistence = errors.New("persistence failed")
	// ErrStorage marks a failed asset write.
	ErrStorage = errors.New("asset storage failed")
)

// ValidationError carries a message per rejected form field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// PersistenceError wraps a store error as ErrPersistence.
func PersistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// StorageError wraps an asset store error as ErrStorage.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
