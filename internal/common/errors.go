package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared across the API surface.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeResourceExhausted = "RESOURCE_EXHAUSTED"
	CodeStorage           = "STORAGE_ERROR"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NewValidationError reports that a single input field failed a format or
// presence rule. The field name is carried in Details for re-display.
func NewValidationError(field, reason string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    fmt.Sprintf("%s %s", field, reason),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]string{"field": field, "reason": reason},
	}
}

// NewNotFoundError reports that the referenced row no longer exists.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s no longer exists", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"entity": entity, "id": id},
	}
}

// NewResourceExhausted wraps a pool-acquire or transaction timeout. Safe to
// retry with backoff on the caller's side.
func NewResourceExhausted(err error) *AppError {
	return &AppError{
		Code:       CodeResourceExhausted,
		Message:    "storage temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewStorageError wraps an underlying I/O or constraint failure. Raw storage
// internals stay in Err for logs and never reach the response body.
func NewStorageError(err error) *AppError {
	return &AppError{
		Code:       CodeStorage,
		Message:    "storage failure",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// IsNotFound reports whether the error carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	var target *AppError
	return errors.As(err, &target) && target.Code == CodeNotFound
}

// IsValidation reports whether the error carries the VALIDATION_ERROR code.
func IsValidation(err error) bool {
	var target *AppError
	return errors.As(err, &target) && target.Code == CodeValidation
}

// FromContextErr classifies a context failure observed while waiting on the
// connection pool: a deadline means the pool was saturated past the caller's
// budget, cancellation simply aborts.
func FromContextErr(err error) *AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewResourceExhausted(err)
	}
	return NewStorageError(err)
}
