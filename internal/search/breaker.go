package search

import (
	"context"

	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/resilience"
	"github.com/sells-group/staff-finder/internal/resolver"
)

// Breaker guards a gateway with a circuit breaker. An open circuit fails
// fast with a ProviderError.
type Breaker struct {
	next resolver.Gateway
	cb   *resilience.CircuitBreaker
}

// WithBreaker wraps next with cb.
func WithBreaker(next resolver.Gateway, cb *resilience.CircuitBreaker) *Breaker {
	return &Breaker{next: next, cb: cb}
}

// Search implements resolver.Gateway.
func (b *Breaker) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	return resilience.ExecuteVal(ctx, b.cb, func(ctx context.Context) ([]model.SearchHit, error) {
		return b.next.Search(ctx, query)
	})
}
