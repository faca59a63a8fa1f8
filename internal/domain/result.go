package domain

import "fmt"

// Error is the typed outcome carried by failed results. The zero value is
// the "no error" sentinel; every real error has a non-empty Code.
type Error struct {
	Code    string
	Message string
}

// ErrNone is the distinguished "no error" value returned by operations that
// can fail but produce nothing on success.
var ErrNone = Error{}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNone reports whether e is the "no error" sentinel.
func (e Error) IsNone() bool {
	return e.Code == ""
}

// Error codes, grouped by concern. Handlers at the boundary translate these
// to transport-level responses; the core never branches on exception types.
const (
	CodeValidation   = "validation"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeConflict     = "conflict"
	CodeExternal     = "external"
)

func ValidationError(message string) Error {
	return Error{Code: CodeValidation, Message: message}
}

func NotFoundError(message string) Error {
	return Error{Code: CodeNotFound, Message: message}
}

func UnauthorizedError(message string) Error {
	return Error{Code: CodeUnauthorized, Message: message}
}

func ConflictError(message string) Error {
	return Error{Code: CodeConflict, Message: message}
}

func ExternalError(message string) Error {
	return Error{Code: CodeExternal, Message: message}
}

// Result is the outcome of a fallible operation: either a success carrying a
// T or a failure carrying a non-sentinel Error. Expected business-rule
// violations travel through Result; panics are reserved for caller bugs.
type Result[T any] struct {
	value T
	err   Error
	ok    bool
}

// Success wraps a value in a successful result.
func Success[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Failure wraps an error in a failed result. Passing the ErrNone sentinel is
// a caller bug.
func Failure[T any](err Error) Result[T] {
	if err.IsNone() {
		panic("domain: Failure called with the no-error sentinel")
	}
	return Result[T]{err: err}
}

func (r Result[T]) IsSuccess() bool { return r.ok }

func (r Result[T]) IsFailure() bool { return !r.ok }

// Value returns the success payload. Calling it on a failed result is a
// programmer error and panics.
func (r Result[T]) Value() T {
	if !r.ok {
		panic(fmt.Sprintf("domain: Value called on failed result (%s)", r.err))
	}
	return r.value
}

// Err returns the failure payload. Calling it on a successful result is a
// programmer error and panics.
func (r Result[T]) Err() Error {
	if r.ok {
		panic("domain: Err called on successful result")
	}
	return r.err
}
