package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a provider failure carrying an HTTP status code.
type StatusError struct {
	Err        error
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: request failed with status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: request failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether the failure is an authentication error.
func (e *StatusError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// StatusCode extracts the HTTP status code of err, or 0 when err does not
// carry one.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
