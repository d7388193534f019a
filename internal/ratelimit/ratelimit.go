// Package ratelimit bounds the outbound request rate to each external provider.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Provider keys. Search and selector calls never share a bucket.
const (
	Search   = "search"
	Selector = "selector"
)

// ErrUnknownProvider is returned by Acquire for a key with no configured budget.
var ErrUnknownProvider = eris.New("ratelimit: unknown provider")

// Budget is a requests-per-window allowance.
type Budget struct {
	Requests int
	Window   time.Duration
}

// Limit converts the budget to a steady token refill rate.
func (b Budget) Limit() rate.Limit {
	if b.Requests <= 0 || b.Window <= 0 {
		return rate.Inf
	}
	return rate.Every(b.Window / time.Duration(b.Requests))
}

// AdaptiveLimiter wraps a rate.Limiter with adaptive rate adjustment.
// On 429 it halves the rate (down to a quarter of the budget). On success
// it recovers by 20% per call, never above the configured budget.
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	name        string
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates a limiter for one provider budget.
func NewAdaptiveLimiter(name string, b Budget) *AdaptiveLimiter {
	limit := b.Limit()
	burst := max(b.Requests, 1)
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(limit, burst),
		name:        name,
		maxRate:     limit,
		minRate:     limit / 4,
		currentRate: limit,
	}
}

// Wait blocks until a token is available. If ctx is done first the
// reservation is cancelled and its token returned to the bucket.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess raises the rate by 20%, up to the configured budget.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.currentRate >= a.maxRate {
		return
	}
	a.currentRate = min(a.currentRate*1.2, a.maxRate)
	a.limiter.SetLimit(a.currentRate)
}

// OnRateLimit halves the rate after a throttling response.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.maxRate == rate.Inf {
		return
	}
	a.currentRate = max(a.currentRate*0.5, a.minRate)
	a.limiter.SetLimit(a.currentRate)
	zap.L().Warn("ratelimit: reducing rate after 429",
		zap.String("provider", a.name),
		zap.Float64("new_rate", float64(a.currentRate)),
	)
}

// Limit returns the current rate limit.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRate
}

// Limiter holds one bucket per provider key. It is safe for concurrent use
// and is shared by every pipeline in a batch.
type Limiter struct {
	buckets  map[string]*AdaptiveLimiter
	adaptive bool
}

// New creates a Limiter from per-provider budgets. When adaptive is set,
// ReportRateLimited and ReportSuccess tune each bucket's rate.
func New(budgets map[string]Budget, adaptive bool) *Limiter {
	buckets := make(map[string]*AdaptiveLimiter, len(budgets))
	for key, b := range budgets {
		buckets[key] = NewAdaptiveLimiter(key, b)
	}
	return &Limiter{buckets: buckets, adaptive: adaptive}
}

// Acquire suspends the caller until a slot is available for provider. It
// never drops a request; it returns an error only when ctx ends first or
// provider has no budget.
func (l *Limiter) Acquire(ctx context.Context, provider string) error {
	b, ok := l.buckets[provider]
	if !ok {
		return eris.Wrapf(ErrUnknownProvider, "key %q", provider)
	}
	if err := b.Wait(ctx); err != nil {
		return eris.Wrapf(err, "ratelimit: wait %s", provider)
	}
	return nil
}

// ReportRateLimited slows the provider's bucket after a 429.
func (l *Limiter) ReportRateLimited(provider string) {
	if b, ok := l.buckets[provider]; ok && l.adaptive {
		b.OnRateLimit()
	}
}

// ReportSuccess lets the provider's bucket recover toward its budget.
func (l *Limiter) ReportSuccess(provider string) {
	if b, ok := l.buckets[provider]; ok && l.adaptive {
		b.OnSuccess()
	}
}

// Rate returns the current rate for provider, or 0 if unknown.
func (l *Limiter) Rate(provider string) rate.Limit {
	if b, ok := l.buckets[provider]; ok {
		return b.Limit()
	}
	return 0
}
