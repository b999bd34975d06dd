package repository

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable means the backend could not be reached or is busy.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrStorageIO means the backend was reached but the operation failed.
	ErrStorageIO = errors.New("storage I/O error")
	// ErrConstraintViolation means the backend rejected the record itself.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrNotFound means no record exists for the given key.
	ErrNotFound = errors.New("record not found")
)

// StorageError attaches an operation name and a taxonomy kind to a backend error.
type StorageError struct {
	Op   string
	Kind error
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *StorageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap builds a StorageError. A nil err stays nil.
func Wrap(op string, kind error, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Kind: kind, Err: err}
}

// Kind returns the taxonomy sentinel carried by err, or nil.
func Kind(err error) error {
	for _, kind := range []error{ErrStorageUnavailable, ErrConstraintViolation, ErrNotFound, ErrStorageIO} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// KindName is a short label for metrics and logs.
func KindName(err error) string {
	switch Kind(err) {
	case ErrStorageUnavailable:
		return "unavailable"
	case ErrConstraintViolation:
		return "constraint"
	case ErrNotFound:
		return "not_found"
	case ErrStorageIO:
		return "io"
	}
	return "unknown"
}

// IsContextError reports cancellations and deadlines, which the backends all
// treat as the storage being unavailable.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
