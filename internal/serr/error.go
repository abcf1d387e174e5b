// Package serr defines the error taxonomy services return to the HTTP layer.
package serr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindInvalidCredentials
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidOrExpired
)

var kindNames = map[Kind]string{
	KindInternal:           "internal",
	KindValidation:         "validation",
	KindConflict:           "conflict",
	KindInvalidCredentials: "invalid_credentials",
	KindUnauthenticated:    "unauthenticated",
	KindForbidden:          "forbidden",
	KindNotFound:           "not_found",
	KindInvalidOrExpired:   "invalid_or_expired",
}

var kindStatus = map[Kind]int{
	KindInternal:           http.StatusInternalServerError,
	KindValidation:         http.StatusBadRequest,
	KindConflict:           http.StatusConflict,
	KindInvalidCredentials: http.StatusUnauthorized,
	KindUnauthenticated:    http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindInvalidOrExpired:   http.StatusBadRequest,
}

func (k Kind) String() string {
	return kindNames[k]
}

// Status is the HTTP status code a kind is rendered with.
func (k Kind) Status() int {
	return kindStatus[k]
}

type ServiceError struct {
	Err        error
	Kind       Kind
	Msg        string
	StatusCode int
	StackTrace string
	Env        map[string]string
	// Public lets an Internal error render Msg instead of the generic text.
	Public bool
}

func New(kind Kind, err error, msg string, args ...any) *ServiceError {
	se := &ServiceError{
		Err:        err,
		Kind:       kind,
		Msg:        fmt.Sprintf(msg, args...),
		StatusCode: kind.Status(),
		Env:        make(map[string]string),
	}
	if kind == KindInternal {
		se.StackTrace = string(debug.Stack())
	}
	return se
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// With attaches a key/value pair that is logged alongside the error.
func (e *ServiceError) With(key, val string) *ServiceError {
	e.Env[key] = val
	return e
}

// Expose marks the error message as safe to show to clients.
func (e *ServiceError) Expose() *ServiceError {
	e.Public = true
	return e
}

func Validation(err error, msg string, args ...any) *ServiceError {
	return New(KindValidation, err, msg, args...)
}

func Conflict(err error, msg string, args ...any) *ServiceError {
	return New(KindConflict, err, msg, args...)
}

func InvalidCredentials(err error) *ServiceError {
	return New(KindInvalidCredentials, err, "invalid credentials")
}

func Unauthenticated(err error) *ServiceError {
	return New(KindUnauthenticated, err, "unauthenticated")
}

func Forbidden(err error, msg string, args ...any) *ServiceError {
	return New(KindForbidden, err, msg, args...)
}

func NotFound(err error, msg string, args ...any) *ServiceError {
	return New(KindNotFound, err, msg, args...)
}

func InvalidOrExpired(err error) *ServiceError {
	return New(KindInvalidOrExpired, err, "invalid or expired token")
}

func Internal(err error, msg string, args ...any) *ServiceError {
	return New(KindInternal, err, msg, args...)
}

// KindOf reports the kind of the first ServiceError in err's chain.
// Errors outside the taxonomy are Internal.
func KindOf(err error) Kind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// Is reports whether err carries a ServiceError of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
