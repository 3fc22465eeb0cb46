package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrorConfiguration     ErrorCode = "CONFIGURATION_ERROR"
	ErrorTransientNetwork  ErrorCode = "TRANSIENT_NETWORK_ERROR"
	ErrorFatalAPI          ErrorCode = "FATAL_API_ERROR"
	ErrorMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrorUnexpected        ErrorCode = "UNEXPECTED_ERROR"
	ErrorNotification      ErrorCode = "NOTIFICATION_ERROR"
	ErrorInternal          ErrorCode = "INTERNAL_ERROR"
)

// Error is a classified failure. Message is the text shown to the user; the
// support flow never surfaces a raw error.
type Error struct {
	Code    ErrorCode
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason, message string, err error) *Error {
	return &Error{Code: code, Reason: reason, Message: message, Err: err}
}

const genericApology = "I apologize, but I encountered an error processing your query. Please try again."

// UserMessage returns the user-facing text for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return genericApology
}
