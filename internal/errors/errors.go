package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a seqdex error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"  // 409
	ErrInvalidRecord  ErrorCode = "INVALID_RECORD"  // 422
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// SeqError represents a structured error with code, status, and details.
type SeqError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SeqError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SeqError {
	return &SeqError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing sequence or category.
func NewNotFound(kind, identifier string) *SeqError {
	return &SeqError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *SeqError {
	return &SeqError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewAlreadyExists creates a 409 error for ID or name collisions.
func NewAlreadyExists(kind, identifier string) *SeqError {
	return &SeqError{
		Code:    ErrAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("%s already exists: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewInvalidRecord creates a 422 error for a record that cannot back an entry.
func NewInvalidRecord(reason string) *SeqError {
	return &SeqError{
		Code:    ErrInvalidRecord,
		Status:  422,
		Message: fmt.Sprintf("invalid record: %s", reason),
		Details: map[string]any{"reason": reason},
	}
}

// NewCancelled creates a 499 error for an operation stopped by its context.
func NewCancelled(operation string) *SeqError {
	return &SeqError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SeqError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SeqError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if err is, or wraps, a SeqError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SeqError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}
