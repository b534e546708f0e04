package voice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput marks requests the synthesis service will never accept.
	ErrInvalidInput = errors.New("invalid synthesis input")

	ErrEmptyText = fmt.Errorf("%w: empty text", ErrInvalidInput)
)

// TransientError wraps failures that may succeed on a later attempt:
// network errors, timeouts, throttling and server-side errors.
type TransientError struct {
	Status int // 0 when no HTTP response was received
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transient synthesis error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient synthesis error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is worth one more attempt.
// Cancellation of the caller's context is never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidInput) {
		return false
	}
	var te *TransientError
	return errors.As(err, &te)
}

// classifyStatus maps a non-2xx response to a typed error.
func classifyStatus(status int, body string) error {
	err := fmt.Errorf("synthesis server returned %d: %s", status, body)
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return &TransientError{Status: status, Err: err}
	case status >= 400:
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return &TransientError{Status: status, Err: err}
	}
}
