package types

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	Unavailable          ErrorCode = "UNAVAILABLE"
	Unsupported          ErrorCode = "UNSUPPORTED"
	NotFound             ErrorCode = "NOT_FOUND"
	BadRequest           ErrorCode = "BAD_REQUEST"
)

func (e ErrorCode) String() string {
	return string(e)
}

// Error carries a status code next to the underlying error so callers
// can decide whether an operation is worth retrying.
type Error struct {
	Err    error
	Status ErrorCode
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(status ErrorCode, err error) *Error {
	return &Error{
		Err:    err,
		Status: status,
	}
}

func NewErrorWithMsg(status ErrorCode, msg string) *Error {
	return &Error{
		Err:    errors.New(msg),
		Status: status,
	}
}

func NewInternalServiceError(err error) *Error {
	return &Error{
		Err:    err,
		Status: InternalServiceError,
	}
}

// IsFatal reports whether err must abort the current batch without retries.
func IsFatal(err error) bool {
	var typedErr *Error
	if !errors.As(err, &typedErr) {
		return false
	}

	switch typedErr.Status {
	case Unsupported, BadRequest:
		return true
	default:
		return false
	}
}
