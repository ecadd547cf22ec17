package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoBaseURL is returned when the client was built without a backend address.
var ErrNoBaseURL = errors.New("backend: base url not configured")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// UploadError is a failed multipart upload. Message is the raw response text.
type UploadError struct {
	Status  int
	Message string
}

func (e *UploadError) Error() string {
	return e.Message
}

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnreachable reports whether err came from the transport rather than the backend.
func IsUnreachable(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

func statusFallback(status int) string {
	return fmt.Sprintf("HTTP error! status: %d", status)
}

// HTTPStatus passes client errors through and reports backend failures as 502.
func (e *APIError) HTTPStatus() int {
	if e.Status >= http.StatusInternalServerError || e.Status < http.StatusBadRequest {
		return http.StatusBadGateway
	}
	return e.Status
}

// HTTPStatus reports an unreachable backend as 503.
func (e *TransportError) HTTPStatus() int {
	return http.StatusServiceUnavailable
}
