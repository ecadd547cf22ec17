package shared

import (
	"context"
	"errors"
	"net/http"

	"github.com/thriftstock/thriftstock/internal/backend"
)

var (
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UnreachableMessage is shown when the backend cannot be contacted.
const UnreachableMessage = "Could not reach the inventory backend. Make sure it is running and try again."

// UserSafeMessage turns an error into text fit for a flash alert or an
// error panel. Backend messages are passed through because they are
// already written for operators; anything else is reduced to a generic line.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		apiErr    *backend.APIError
		uploadErr *backend.UploadError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The inventory backend took too long to answer."
	case backend.IsUnreachable(err):
		return UnreachableMessage
	case errors.As(err, &uploadErr):
		return uploadErr.Error()
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return http.StatusText(apiErr.Status)
	default:
		return "Something went wrong. Please try again."
	}
}
