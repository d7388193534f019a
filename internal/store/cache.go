package store

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/sells-group/staff-finder/internal/model"
)

// SearchCache adapts a Store to the resolver's per-query cache. Keys are
// scoped by provider so switching providers never serves stale hits.
type SearchCache struct {
	store    Store
	provider string
	ttl      time.Duration
}

// NewSearchCache returns a cache that keeps hits for ttl.
func NewSearchCache(st Store, provider string, ttl time.Duration) *SearchCache {
	return &SearchCache{store: st, provider: provider, ttl: ttl}
}

// Key returns the cache key for query: provider plus the case-folded query
// with whitespace collapsed.
func (c *SearchCache) Key(query string) string {
	return c.provider + ":" + strings.Join(strings.Fields(cases.Fold().String(query)), " ")
}

// GetSearch returns cached hits for query.
func (c *SearchCache) GetSearch(ctx context.Context, query string) ([]model.SearchHit, bool, error) {
	return c.store.GetCachedSearch(ctx, c.Key(query))
}

// PutSearch stores hits for query.
func (c *SearchCache) PutSearch(ctx context.Context, query string, hits []model.SearchHit) error {
	return c.store.SetCachedSearch(ctx, c.Key(query), hits, c.ttl)
}
