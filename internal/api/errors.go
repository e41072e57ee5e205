// internal/api/errors.go
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthenticated indicates the backend rejected the request with 401.
// The interceptor has already cleared the stored tokens by the time callers
// see this error; the expected reaction is a redirect to the login view.
var ErrUnauthenticated = errors.New("authentication required")

// FieldError is a validation failure scoped to a single form field. It is
// deliberately decoupled from the backend's error envelope so views never
// depend on a transport-specific shape.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a structured error returned by the backend API
type Error struct {
	Status  int
	Message string
	Details []FieldError
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("api: request failed with status %d", e.Status)
}

// Unwrap lets errors.Is(err, ErrUnauthenticated) work on 401 responses
func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	return nil
}

// IsValidation reports whether the backend rejected the request with
// field-level details that can be mapped back onto form controls
func (e *Error) IsValidation() bool {
	return len(e.Details) > 0 && e.Status >= 400 && e.Status < 500
}

// IsConflict reports whether the request hit a business-rule conflict
func (e *Error) IsConflict() bool {
	return e.Status == http.StatusConflict
}

// AsError extracts a structured *Error from an error chain
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Fields returns the field-level details of an error, if any
func Fields(err error) []FieldError {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Details
	}
	return nil
}
