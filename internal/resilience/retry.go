package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retry behavior with exponential backoff and jitter.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (including the first try).
	// A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// InitialBackoff is the base delay before the first retry. Default: 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 30s.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each attempt. Default: 2.0.
	Multiplier float64

	// JitterFraction adds random jitter as a fraction of the computed delay
	// (0.0 = no jitter, 0.5 = ±50%). Default: 0.25.
	JitterFraction float64
}

// DefaultRetryConfig returns a sensible retry configuration for API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

// Schedule builds a RetryConfig from configured values. Zero values keep the defaults.
func Schedule(maxAttempts, initialBackoffMs, maxBackoffMs int, multiplier, jitterFraction float64) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if initialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	}
	if maxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(maxBackoffMs) * time.Millisecond
	}
	if multiplier > 0 {
		cfg.Multiplier = multiplier
	}
	if jitterFraction >= 0 {
		cfg.JitterFraction = jitterFraction
	}
	return cfg
}

// Policy pairs the two retry schedules. RateLimit applies to RateLimitError,
// Provider to ProviderError; each counts its own attempts.
type Policy struct {
	RateLimit RetryConfig
	Provider  RetryConfig

	// OnRetry is called before each sleep with the error class and the
	// attempt number within that class.
	OnRetry func(class string, attempt int, err error)
}

// DefaultPolicy retries throttling up to five times and transient failures once.
func DefaultPolicy() Policy {
	rl := DefaultRetryConfig()
	rl.MaxAttempts = 5
	rl.InitialBackoff = 2 * time.Second
	rl.MaxBackoff = 60 * time.Second

	pr := DefaultRetryConfig()
	pr.MaxAttempts = 2
	return Policy{RateLimit: rl, Provider: pr}
}

// DoPolicy runs fn under a two-class policy. RateLimitError is retried with
// p.RateLimit (honoring Retry-After, capped at its MaxBackoff), ProviderError
// with p.Provider. Other errors return immediately.
func DoPolicy[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	rl := applyDefaults(p.RateLimit)
	pr := applyDefaults(p.Provider)

	var zero T
	var rlFails, prFails int
	for {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil {
			return zero, err
		}

		var delay time.Duration
		switch {
		case IsRateLimited(err):
			rlFails++
			if rlFails >= rl.MaxAttempts {
				return zero, err
			}
			delay = computeBackoff(rlFails-1, rl)
			if ra := retryAfter(err); ra > delay {
				delay = min(ra, rl.MaxBackoff)
			}
			if p.OnRetry != nil {
				p.OnRetry("rate_limit", rlFails, err)
			}
		case IsProviderError(err):
			prFails++
			if prFails >= pr.MaxAttempts {
				return zero, err
			}
			delay = computeBackoff(prFails-1, pr)
			if p.OnRetry != nil {
				p.OnRetry("provider", prFails, err)
			}
		default:
			return zero, err
		}

		if !sleep(ctx, delay) {
			return zero, err
		}
	}
}

func retryAfter(err error) time.Duration {
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		return 0
	}
	return rl.RetryAfter
}

// sleep waits for d or until ctx is done. It reports whether the full
// delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	return cfg
}

func computeBackoff(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxBackoff) {
		delay = float64(cfg.MaxBackoff)
	}

	// Apply jitter: ±JitterFraction of delay.
	if cfg.JitterFraction > 0 {
		jitterRange := delay * cfg.JitterFraction
		delay += (rand.Float64()*2 - 1) * jitterRange
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// RetryLogger returns an OnRetry callback for Policy that logs each attempt.
func RetryLogger(provider, operation string) func(string, int, error) {
	return func(class string, attempt int, err error) {
		zap.L().Warn("retrying provider call",
			zap.String("provider", provider),
			zap.String("operation", operation),
			zap.String("class", class),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
