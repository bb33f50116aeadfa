package errors

import (
	"net/http"

	"github.com/tixhub/tix-reservation/pkg/status"
)

// ApplicationError carries the HTTP status code and machine-readable status
// alongside the message, so handlers can render it without inspecting the
// underlying cause.
type ApplicationError struct {
	HTTPStatusCode int
	Status         string
	Message        string
	cause          error
}

func (e *ApplicationError) Error() string {
	return e.Message
}

func (e *ApplicationError) Unwrap() error {
	return e.cause
}

func New(httpStatusCode int, status string, message string) error {
	return &ApplicationError{
		HTTPStatusCode: httpStatusCode,
		Status:         status,
		Message:        message,
	}
}

// Wrap keeps the original error reachable via errors.Unwrap / errors.As while
// presenting the typed application error to callers.
func Wrap(cause error, httpStatusCode int, status string, message string) error {
	return &ApplicationError{
		HTTPStatusCode: httpStatusCode,
		Status:         status,
		Message:        message,
		cause:          cause,
	}
}

// Destruct normalizes any error into an ApplicationError. Errors that are not
// ApplicationError are treated as internal server errors.
func Destruct(err error) *ApplicationError {
	if ae, ok := err.(*ApplicationError); ok {
		return ae
	}

	return &ApplicationError{
		HTTPStatusCode: http.StatusInternalServerError,
		Status:         status.INTERNAL_SERVER_ERROR,
		Message:        err.Error(),
	}
}
