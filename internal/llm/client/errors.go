package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ProviderError wraps a failed completion call with enough context for the
// caller to decide whether a resumed run could retry it.
type ProviderError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// classifyProviderError maps completion failures onto the retryable/fatal
// split. Rate limits and connectivity problems (including per-call timeouts)
// are retryable; malformed requests and auth failures are not. Nothing here
// retries automatically, the flag is informational for resume flows.
func classifyProviderError(provider string, err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ProviderError{Provider: provider, Retryable: true, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit"):
		return &ProviderError{Provider: provider, StatusCode: 429, Retryable: true, Err: err}
	case strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") || strings.Contains(msg, "temporarily unavailable"):
		return &ProviderError{Provider: provider, Retryable: true, Err: err}
	default:
		return &ProviderError{Provider: provider, Retryable: false, Err: err}
	}
}
