package errors

import (
	"errors"
	"net/http"
)

// Kind classifies a business error; handlers map it to an HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidation
	KindConflict
)

// Error is a business error whose Message is returned to the caller verbatim.
type Error struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches on Code so that wrapped copies still compare equal to the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

// New creates a business error.
func New(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation builds an ad-hoc 400 error carrying a field-specific message.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: 10001, Message: message}
}

// As extracts the business error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps a Kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
