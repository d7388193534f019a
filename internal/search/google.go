package search

import (
	"context"
	"errors"

	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/pkg/google"
)

// Google searches through the Custom Search JSON API.
type Google struct {
	client     google.Client
	maxResults int
}

// NewGoogle creates a Google gateway.
func NewGoogle(client google.Client, maxResults int) *Google {
	return &Google{client: client, maxResults: maxResults}
}

// Search implements resolver.Gateway.
func (g *Google) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	resp, err := g.client.Search(ctx, query, g.maxResults)
	if err != nil {
		var apiErr *google.APIError
		if errors.As(err, &apiErr) {
			return nil, classify(ctx, ProviderGoogle, apiErr.StatusCode, apiErr.Header, err)
		}
		return nil, classify(ctx, ProviderGoogle, 0, nil, err)
	}

	b := newHitBuilder(g.maxResults)
	for _, it := range resp.Items {
		b.add(it.Title, it.Link, it.Snippet)
	}
	return b.hits, nil
}
