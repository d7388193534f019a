package selector

import (
	"context"

	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/resilience"
	"github.com/sells-group/staff-finder/internal/resolver"
)

// Breaker guards a selector with a circuit breaker.
type Breaker struct {
	next resolver.Selector
	cb   *resilience.CircuitBreaker
}

// WithBreaker wraps next with cb.
func WithBreaker(next resolver.Selector, cb *resilience.CircuitBreaker) *Breaker {
	return &Breaker{next: next, cb: cb}
}

// Select implements resolver.Selector.
func (b *Breaker) Select(ctx context.Context, school model.SchoolRecord, candidates []model.Candidate) (model.Decision, error) {
	return resilience.ExecuteVal(ctx, b.cb, func(ctx context.Context) (model.Decision, error) {
		return b.next.Select(ctx, school, candidates)
	})
}
