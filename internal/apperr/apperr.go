package apperr

import (
	"errors"
	"fmt"
)

// AppError is the error type raised by the domain layer. Every error carries
// a Code so the UI boundary can surface it as a user-visible message without
// string matching.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func Validation(msg string) error {
	return New(CodeValidation, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func Blocked(msg string) error {
	return New(CodeBlocked, msg)
}

func DuplicatePhone(msg string) error {
	return New(CodeDuplicatePhone, msg)
}

func NotAuthenticated(msg string) error {
	return New(CodeNotAuthenticated, msg)
}

func CapacityExceeded(msg string) error {
	return New(CodeCapacityExceeded, msg)
}

// CodeOf extracts the code from err, or CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
