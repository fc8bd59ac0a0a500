package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorUpstream     ErrorCode = "UPSTREAM_ERROR"
	ErrorTimeout      ErrorCode = "TIMEOUT"
	ErrorInternal     ErrorCode = "INTERNAL_ERROR"
)

const (
	msgEmptyQuery   = "Please provide a question to search for."
	msgQueryTooLong = "That question is too long. Please shorten it and try again."
	msgTimeout      = "The search service took too long to respond. Please try again."
	msgUnexpected   = "Unexpected error"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
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

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// userMessager is implemented by upstream errors whose text is meant for users.
type userMessager interface {
	error
	HTTPStatusCode() int
}

// UserMessage returns the text shown to a user for err. Upstream failures are
// surfaced verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ue *Error
	if !errors.As(err, &ue) {
		return msgUnexpected
	}
	switch ue.Code {
	case ErrorInvalidInput:
		if ue.Reason == "query_too_long" {
			return msgQueryTooLong
		}
		return msgEmptyQuery
	case ErrorTimeout:
		return msgTimeout
	case ErrorUpstream:
		var apiErr userMessager
		if errors.As(ue.Err, &apiErr) {
			return apiErr.Error()
		}
		if ue.Err != nil {
			return ue.Err.Error()
		}
	}
	return msgUnexpected
}
