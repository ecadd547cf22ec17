// Package httpx provides HTTP response utilities.
package httpx

import (
	"context"
	"errors"
	"net/http"
)

// ErrUnavailable marks a dependency (backend, queue) that cannot serve.
var ErrUnavailable = errors.New("dependency unavailable")

// StatusCoder is implemented by errors that already know their HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// DependencyError reports a failed dependency with a message safe to show.
type DependencyError struct {
	Detail string
	Err    error
}

// Unavailable wraps err as ErrUnavailable with a client-facing detail.
func Unavailable(detail string, err error) error {
	return &DependencyError{Detail: detail, Err: err}
}

func (e *DependencyError) Error() string {
	return e.Detail
}

func (e *DependencyError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnavailable}
	}
	return []error{ErrUnavailable, e.Err}
}

// StatusFor maps err to an HTTP status code.
func StatusFor(err error) int {
	var coded StatusCoder
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &coded):
		return coded.HTTPStatus()
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807. Only
// client errors and unavailability echo the message.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	detail := ""
	if status < http.StatusInternalServerError || status == http.StatusServiceUnavailable || status == http.StatusBadGateway {
		detail = err.Error()
	}
	Problem(w, status, http.StatusText(status), detail)
}
