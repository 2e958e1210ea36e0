package types

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the class of errors raised synchronously for a
// wrong object passed to an operation. Every argument error below wraps it.
var ErrInvalidArgument = errors.New("invalid argument")

// Argument errors.
var (
	ErrInvalidKind      = argError("invalid property kind")
	ErrInvalidName      = argError("invalid name")
	ErrInvalidID        = argError("invalid id")
	ErrInvalidPosition  = argError("invalid category position")
	ErrWrongSide        = argError("type is on the wrong side of the hierarchy")
	ErrNotOwned         = argError("object is not owned by the context type")
	ErrPropertyNotFound = argError("property not found")
	ErrCategoryNotFound = argError("category not found")
	ErrTypeNotFound     = argError("type not found")
)

// Persistence errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrReadOnly        = errors.New("backing store is read-only")
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
	ErrInvalidData     = errors.New("invalid entity data")
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrSyncStrategyUnknown = errors.New("unknown sync strategy")
	ErrDisplayOrderUnknown = errors.New("unknown display order")
)

type argErr struct{ msg string }

func (e *argErr) Error() string { return e.msg }

func (e *argErr) Unwrap() error { return ErrInvalidArgument }

func argError(msg string) error { return &argErr{msg: msg} }

// NotOwnedError reports which object a context type does not own.
func NotOwnedError(what, name, context string) error {
	return fmt.Errorf("%w: %s %q by %q", ErrNotOwned, what, name, context)
}
