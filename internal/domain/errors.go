package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied means the user denied (or policy restricted)
	// location access.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrLocationUnavailable means there is no usable fix yet. It is a
	// steady state, not a failure of the location system.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrInvalidSpecies means the species field is empty after trimming.
	ErrInvalidSpecies = errors.New("invalid species")

	// ErrInvalidCoordinate means a latitude or longitude is out of range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrUnreachable matches any SyncError of kind SyncUnreachable.
	ErrUnreachable = errors.New("remote store unreachable")

	// ErrMalformed matches any SyncError of kind SyncMalformed.
	ErrMalformed = errors.New("remote store response malformed")
)

// SyncErrorKind classifies a failed exchange with the remote store.
type SyncErrorKind int

const (
	// SyncUnreachable covers transport failures and non-2xx responses.
	SyncUnreachable SyncErrorKind = iota + 1
	// SyncMalformed covers bodies that cannot be decoded or fail validation.
	SyncMalformed
)

func (k SyncErrorKind) String() string {
	switch k {
	case SyncUnreachable:
		return "unreachable"
	case SyncMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// SyncError is returned by the sync gateway for every failed operation.
type SyncError struct {
	Kind SyncErrorKind
	Op   string // "create" or "fetch"
	Err  error
}

func (e *SyncError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s sightings: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s sightings: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match a SyncError against ErrUnreachable or ErrMalformed.
func (e *SyncError) Is(target error) bool {
	switch target {
	case ErrUnreachable:
		return e.Kind == SyncUnreachable
	case ErrMalformed:
		return e.Kind == SyncMalformed
	}
	return false
}

// Unreachable wraps err as a SyncUnreachable error for op.
func Unreachable(op string, err error) *SyncError {
	return &SyncError{Kind: SyncUnreachable, Op: op, Err: err}
}

// Malformed wraps err as a SyncMalformed error for op.
func Malformed(op string, err error) *SyncError {
	return &SyncError{Kind: SyncMalformed, Op: op, Err: err}
}
