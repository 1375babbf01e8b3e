package notifier

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured indicates a notifier is missing its endpoint or credentials
	ErrNotConfigured = errors.New("notifier not configured")

	// ErrAPIError indicates the remote API answered with a business error
	ErrAPIError = errors.New("notification API error")
)

// HTTPError represents a non-200 answer from the notification endpoint
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP request failed: %s, response: %s", e.Status, e.Body)
}

// RetryError wraps the last failure after all attempts are used
type RetryError struct {
	Attempts int
	LastErr  error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("notification failed after %d attempts: %v", e.Attempts, e.LastErr)
}

// Unwrap supports errors.Is and errors.As
func (e *RetryError) Unwrap() error {
	return e.LastErr
}
