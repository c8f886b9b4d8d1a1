package errors

import (
	"fmt"
	"net/http"
)

// Error codes surfaced by the ledger core. Callers switch on these, never on
// message text.
const (
	CodeInvalidInput        = "InvalidInput"
	CodeNotFound            = "NotFound"
	CodeConstraintViolation = "ConstraintViolation"
	CodeDuplicateKey        = "DuplicateKey"
	CodeConnectionFailure   = "ConnectionFailure"
	CodeTimeout             = "Timeout"
	CodePartialFailure      = "PartialFailure"
	CodeUnexpected          = "UnexpectedError"
	CodeUnauthorized        = "Unauthorized"
)

// StandardError represents a standardized error result
type StandardError struct {
	Code    string `json:"error"`   // Error code/type (e.g., "NotFound", "ConstraintViolation")
	Message string `json:"message"` // Human-readable error message
	Details string `json:"details"` // Additional details (entity id, requested quantity, etc.)
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return e.Message
}

// Retryable reports whether the failure is transient and safe to retry.
func (e *StandardError) Retryable() bool {
	return e.Code == CodeConnectionFailure || e.Code == CodeTimeout
}

// HTTPStatus returns the appropriate HTTP status code for the error
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConstraintViolation, CodeDuplicateKey:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeConnectionFailure, CodeTimeout:
		return http.StatusServiceUnavailable
	case CodePartialFailure:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// NewStandardError creates a new StandardError
func NewStandardError(errorCode, message, details string) *StandardError {
	return &StandardError{
		Code:    errorCode,
		Message: message,
		Details: details,
	}
}

// CodeOf returns the error code carried by err, or CodeUnexpected for
// anything that is not a *StandardError.
func CodeOf(err error) string {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return CodeUnexpected
}

// Common error constructors
func NewInvalidInput(message, details string) *StandardError {
	return NewStandardError(CodeInvalidInput, message, details)
}

func NewNotFound(entity, id string) *StandardError {
	return NewStandardError(CodeNotFound, fmt.Sprintf("%s not found", entity), fmt.Sprintf("ID: %s", id))
}

func NewConstraintViolation(message, details string) *StandardError {
	return NewStandardError(CodeConstraintViolation, message, details)
}

func NewInsufficientStock(available, requested int) *StandardError {
	return NewStandardError(CodeConstraintViolation, "insufficient stock available",
		fmt.Sprintf("Available: %d, Requested: %d", available, requested))
}

func NewInvalidRelease(reserved, requested int) *StandardError {
	return NewStandardError(CodeConstraintViolation, "release exceeds reserved stock",
		fmt.Sprintf("Reserved: %d, Requested: %d", reserved, requested))
}

func NewDuplicateKey(message, details string) *StandardError {
	return NewStandardError(CodeDuplicateKey, message, details)
}

func NewIllegalTransition(from, to string) *StandardError {
	return NewStandardError(CodeInvalidInput, "illegal order status transition",
		fmt.Sprintf("From: %s, To: %s", from, to))
}

func NewConnectionFailure(operation string, err error) *StandardError {
	return NewStandardError(CodeConnectionFailure, fmt.Sprintf("storage operation failed: %s", operation), err.Error())
}

func NewTimeout(operation string, err error) *StandardError {
	return NewStandardError(CodeTimeout, fmt.Sprintf("storage operation timed out: %s", operation), err.Error())
}

func NewPartialFailure(message, details string) *StandardError {
	return NewStandardError(CodePartialFailure, message, details)
}

func NewUnexpected(message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return NewStandardError(CodeUnexpected, message, details)
}
