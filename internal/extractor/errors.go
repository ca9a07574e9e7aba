package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError indicates the upstream provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// UpstreamError is a non-2xx response from the extraction or embedding
// service. Whether it is retryable depends on the status class.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsRetryable reports whether the status signals a transient condition.
func (e *UpstreamError) IsRetryable() bool {
	return IsRetryableStatus(e.StatusCode)
}

// MalformedOutputError indicates the provider responded 2xx but the payload
// could not be parsed into the expected structure. Never retried: the same
// request would produce the same output.
type MalformedOutputError struct {
	Provider string
	Err      error
	Raw      string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%s returned unparsable output: %v", e.Provider, e.Err)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

// IsRetryableStatus reports whether an HTTP status code signals a transient
// upstream condition.
func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// IsTransient classifies an error as retryable. Rate limits and retryable
// upstream statuses are transient; malformed requests, auth failures, and
// caller cancellation are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.IsRetryable()
	}
	var moErr *MalformedOutputError
	if errors.As(err, &moErr) {
		return false
	}
	// Unclassified transport errors (connection reset, DNS) are worth a retry.
	return true
}
