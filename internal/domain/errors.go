package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidStatus      = errors.New("invalid reading status")
	ErrVersionRegression  = errors.New("catalog version older than local")
	ErrUnknownEntityKind  = errors.New("unknown entity kind")
	ErrSafeModeLocked     = errors.New("safe mode password mismatch")
	ErrSafeModeNotEnabled = errors.New("safe mode is not enabled")
	ErrSafeModeEnabled    = errors.New("safe mode is already enabled")
	ErrPasswordTooShort   = errors.New("safe mode password too short")
)

// SchemaError means the local schema could not be created or migrated.
type SchemaError struct {
	Version int
	Err     error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema v%d: %v", e.Version, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// SyncError wraps the entity kind whose fetch or commit failed.
type SyncError struct {
	Kind EntityKind
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// QueryError covers bad pagination parameters and store read failures.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

var ErrInvalidPage = errors.New("invalid pagination parameters")

// ValidatePage checks offset/limit for list accessors.
func ValidatePage(offset, limit int) error {
	if offset < 0 {
		return fmt.Errorf("%w: offset %d is negative", ErrInvalidPage, offset)
	}
	if limit <= 0 {
		return fmt.Errorf("%w: limit %d must be positive", ErrInvalidPage, limit)
	}
	return nil
}
