package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ProviderError is a transient failure from an external provider: network
// errors, timeouts and 5xx responses. Retried with the provider schedule.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: provider error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RateLimitError is an explicit throttling signal (HTTP 429 or equivalent).
// Retried with the longer rate-limit schedule.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a ProviderError.
func NewProviderError(provider string, statusCode int, err error) *ProviderError {
	return &ProviderError{Provider: provider, StatusCode: statusCode, Err: err}
}

// NewRateLimitError wraps err as a RateLimitError.
func NewRateLimitError(provider string, retryAfter time.Duration, err error) *RateLimitError {
	return &RateLimitError{Provider: provider, RetryAfter: retryAfter, Err: err}
}

// IsRateLimited reports whether err (or any error in its chain) is a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsProviderError reports whether err is a ProviderError or looks like one
// (network timeouts, connection resets, DNS failures, per-call deadline).
func IsProviderError(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return true
	}
	return IsTransient(err)
}

// IsTransient returns true if err matches common transient network patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
		"unexpected eof",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true for status codes that are safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// FromStatus maps an HTTP failure to the taxonomy: 429 becomes a
// RateLimitError, other transient codes a ProviderError. Anything else is
// returned unchanged (permanent, not retried).
func FromStatus(provider string, statusCode int, header http.Header, err error) error {
	if statusCode == http.StatusTooManyRequests {
		return NewRateLimitError(provider, ParseRetryAfter(header), err)
	}
	if IsTransientHTTPStatus(statusCode) {
		return NewProviderError(provider, statusCode, err)
	}
	return err
}

// FromTransport classifies an error returned before any HTTP status was seen.
// A cancelled parent context is returned as-is so callers stop promptly.
func FromTransport(ctx context.Context, provider string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == context.Canceled {
		return err
	}
	if IsTransient(err) {
		return NewProviderError(provider, 0, err)
	}
	return err
}

// ParseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func ParseRetryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Classify names the error class for logs and stored results.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case IsRateLimited(err):
		return "rate_limit"
	case IsProviderError(err):
		return "provider"
	default:
		return "permanent"
	}
}
