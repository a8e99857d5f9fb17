// Package apierr defines the single structured error type every endpoint
// raises for domain and not-found failures, plus its per-environment JSON
// rendering.
package apierr

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// Error carries an HTTP status code and a client-safe message. The rendered
// status field is "failed" for 4xx codes and "error" otherwise.
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func (e *Error) status() string {
	if e.Code >= 400 && e.Code < 500 {
		return "failed"
	}
	return "error"
}

// New creates an Error with an explicit status code.
func New(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound is a 404 for an id that does not resolve in the record store.
func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, format, args...)
}

// BadRequest is a 400 for an input shape or constraint violation.
func BadRequest(format string, args ...any) *Error {
	return New(http.StatusBadRequest, format, args...)
}

// Unauthorized is a 401 for identity failures.
func Unauthorized(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, format, args...)
}

// Forbidden is a 403 for role failures.
func Forbidden(format string, args ...any) *Error {
	return New(http.StatusForbidden, format, args...)
}

// Conflict is a 409 for domain-rule violations (expired coupon, duplicate
// unique field, mismatched parent category, and the like).
func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, format, args...)
}

// Render writes err as the uniform error envelope. Non-*Error values become
// opaque 500s. In verbose mode the body additionally carries the error chain
// and its stack trace for debugging; production responses stay terse.
func Render(w http.ResponseWriter, err error, verbose bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = New(http.StatusInternalServerError, "internal server error")
	}

	body := map[string]any{
		"status":  apiErr.status(),
		"message": apiErr.Message,
	}
	if verbose {
		body["error"] = err.Error()
		body["stack"] = fmt.Sprintf("%+v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	_ = json.NewEncoder(w).Encode(body)
}
