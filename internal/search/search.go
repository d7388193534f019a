// Package search adapts the search provider clients to the resolver's
// Gateway contract: ordered hits with 1-based positions, and failures
// classified as provider or rate-limit errors.
package search

import (
	"context"
	"net/http"
	"strings"

	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/resilience"
)

// Provider names, used as config values, breaker keys and pricing keys.
const (
	ProviderJina      = "jina"
	ProviderGoogle    = "google"
	ProviderFirecrawl = "firecrawl"
	ProviderFixture   = "fixture"
)

// DefaultMaxResults bounds the hits kept per query when unset.
const DefaultMaxResults = 10

const maxSnippetRunes = 300

// classify maps a client error to the resilience taxonomy. status is zero
// when no HTTP response was received.
func classify(ctx context.Context, provider string, status int, header http.Header, err error) error {
	if status > 0 {
		return resilience.FromStatus(provider, status, header, err)
	}
	return resilience.FromTransport(ctx, provider, err)
}

// hitBuilder assigns positions in provider order, skipping entries without a URL.
type hitBuilder struct {
	max  int
	hits []model.SearchHit
}

func newHitBuilder(limit int) *hitBuilder {
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	return &hitBuilder{max: limit, hits: make([]model.SearchHit, 0, limit)}
}

func (b *hitBuilder) add(title, url, snippet string) {
	url = strings.TrimSpace(url)
	if url == "" || len(b.hits) >= b.max {
		return
	}
	b.hits = append(b.hits, model.SearchHit{
		Position: len(b.hits) + 1,
		Title:    strings.TrimSpace(title),
		URL:      url,
		Snippet:  clip(strings.Join(strings.Fields(snippet), " "), maxSnippetRunes),
	})
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
