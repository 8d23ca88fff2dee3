// Package errors provides common domain error types for netnotes.
//
// Sentinel errors describe conditions that callers branch on with errors.Is,
// such as a missing record or a storage failure during capture.
//
// Usage:
//
//	import nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
//
//	return nil, fmt.Errorf("find person: %w", nnerrors.ErrStorage)
//
//	if nnerrors.IsStorage(err) {
//	    // offer a retry
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested record was not found.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrStorage indicates the persistence layer failed.
	ErrStorage = errors.New("storage error")

	// ErrPermissionDenied indicates the location permission was refused.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrGeocodeUnavailable indicates no position or label could be resolved.
	ErrGeocodeUnavailable = errors.New("geocode unavailable")

	// ErrCancelled indicates the user abandoned an in-flight capture.
	ErrCancelled = errors.New("cancelled")

	// ErrSessionBusy indicates a capture is already in flight.
	ErrSessionBusy = errors.New("capture session already in progress")

	// ErrInvalidState indicates the operation is not valid for the current state.
	ErrInvalidState = errors.New("invalid state")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStorage reports whether any error in err's chain is ErrStorage.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsPermissionDenied reports whether any error in err's chain is ErrPermissionDenied.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsCancelled reports whether any error in err's chain is ErrCancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsSessionBusy reports whether any error in err's chain is ErrSessionBusy.
func IsSessionBusy(err error) bool {
	return errors.Is(err, ErrSessionBusy)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
