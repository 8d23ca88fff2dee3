package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a classified capture error.
type ErrorCode string

const (
	CodeStorageUnavailable  ErrorCode = "storage_unavailable"
	CodeStorageTimeout      ErrorCode = "storage_timeout"
	CodeNoteNotSaved        ErrorCode = "note_not_saved"
	CodeContextCancelled    ErrorCode = "context_cancelled"
	CodeCaptureCancelled    ErrorCode = "capture_cancelled"
	CodeValidation          ErrorCode = "validation"
	CodeNotFound            ErrorCode = "not_found"
	CodeSessionBusy         ErrorCode = "session_busy"
	CodeInvalidState        ErrorCode = "invalid_state"
	CodeLocationUnavailable ErrorCode = "location_unavailable"
	CodeUnknown             ErrorCode = "unknown"
)

// CaptureError is a structured error for a failed capture step.
type CaptureError struct {
	Code    ErrorCode
	Stage   string
	Message string
	Cause   error
}

func (e *CaptureError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CaptureError) Unwrap() error {
	return e.Cause
}

// ClassifyError inspects an error and returns a *CaptureError with the appropriate code.
// Errors that match no known condition are classified as CodeUnknown.
func ClassifyError(err error, stage string) *CaptureError {
	if err == nil {
		return nil
	}

	ce := &CaptureError{
		Stage:   stage,
		Message: err.Error(),
		Cause:   err,
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		ce.Code = CodeStorageTimeout
		ce.Message = "operation timed out"
	case errors.Is(err, context.Canceled):
		ce.Code = CodeContextCancelled
		ce.Message = "operation cancelled"
	case errors.Is(err, ErrCancelled):
		ce.Code = CodeCaptureCancelled
	case errors.Is(err, ErrSessionBusy):
		ce.Code = CodeSessionBusy
	case errors.Is(err, ErrInvalidState):
		ce.Code = CodeInvalidState
	case errors.Is(err, ErrValidation):
		ce.Code = CodeValidation
	case errors.Is(err, ErrNotFound):
		ce.Code = CodeNotFound
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrGeocodeUnavailable):
		ce.Code = CodeLocationUnavailable
	case errors.Is(err, ErrStorage):
		ce.Code = CodeStorageUnavailable
		if strings.Contains(stage, "note") {
			ce.Code = CodeNoteNotSaved
		}
	default:
		ce.Code = CodeUnknown
	}
	return ce
}
