package model

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionNotFound    = errors.New("session expired or revoked")
	ErrRouteNotFound      = errors.New("route not found")
	ErrDuplicateRoute     = errors.New("route already exists")
	ErrActivityNotFound   = errors.New("activity not found")
	ErrNoteNotFound       = errors.New("note not found")
	ErrInvalidPatch       = errors.New("invalid update")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPersistence        = errors.New("persistence failure")
)

// PersistenceError wraps a failure of the backing medium (disk, network, database).
type PersistenceError struct {
	Driver string
	Op     string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s store: %s: %v", e.Driver, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// NewPersistenceError returns nil when err is nil so drivers can wrap unconditionally.
func NewPersistenceError(driver, op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Driver: driver, Op: op, Err: err}
}
