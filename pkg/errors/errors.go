package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError provides a structured error that can be rendered to API consumers.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Is matches AppErrors by code so that derived errors (for example a
// NewBadRequest with a custom message) still compare equal to their sentinel.
func (e *AppError) Is(target error) bool {
	if e == nil {
		return false
	}
	appErr, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == appErr.Code
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// Common errors exposed to the rest of the application.
var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	// ErrDuplicateRecord covers uniqueness violations on subject identifiers
	// (passport, permit and registration numbers).
	ErrDuplicateRecord = &AppError{
		Code:       "DUPLICATE_RECORD",
		Message:    "A record with the same identifier already exists",
		StatusCode: http.StatusConflict,
	}

	// ErrDuplicateAlert signals an attempt to open a second alert of the same
	// type for the same subject. Callers recover by treating it as a no-op.
	ErrDuplicateAlert = &AppError{
		Code:       "DUPLICATE_ALERT",
		Message:    "An open alert of this type already exists for the subject",
		StatusCode: http.StatusConflict,
	}

	// ErrInvalidTransition signals an attempted regression in the alert
	// workflow. The prior state is preserved.
	ErrInvalidTransition = &AppError{
		Code:       "INVALID_TRANSITION",
		Message:    "Alert status cannot move backwards",
		StatusCode: http.StatusConflict,
	}

	ErrInternalServer = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap turns any error into an AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest wraps validation errors with a helpful message.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:       ErrBadRequest.Code,
		Message:    message,
		StatusCode: ErrBadRequest.StatusCode,
	}
}
