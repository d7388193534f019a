package search

import (
	"context"
	"errors"

	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/pkg/firecrawl"
)

// Firecrawl searches through Firecrawl's /search endpoint.
type Firecrawl struct {
	client     firecrawl.Client
	maxResults int
}

// NewFirecrawl creates a Firecrawl gateway.
func NewFirecrawl(client firecrawl.Client, maxResults int) *Firecrawl {
	return &Firecrawl{client: client, maxResults: maxResults}
}

// Search implements resolver.Gateway.
func (f *Firecrawl) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	limit := f.maxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	resp, err := f.client.Search(ctx, firecrawl.SearchRequest{Query: query, Limit: limit, Country: "us", Lang: "en"})
	if err != nil {
		var apiErr *firecrawl.APIError
		if errors.As(err, &apiErr) {
			return nil, classify(ctx, ProviderFirecrawl, apiErr.StatusCode, apiErr.Header, err)
		}
		return nil, classify(ctx, ProviderFirecrawl, 0, nil, err)
	}

	b := newHitBuilder(limit)
	for _, d := range resp.Data {
		b.add(d.Title, d.URL, d.Description)
	}
	return b.hits, nil
}
