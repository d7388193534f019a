package search

import (
	"context"
	"errors"

	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/pkg/jina"
)

// Jina searches through Jina AI Search.
type Jina struct {
	client     jina.Client
	maxResults int
}

// NewJina creates a Jina gateway.
func NewJina(client jina.Client, maxResults int) *Jina {
	return &Jina{client: client, maxResults: maxResults}
}

// Search implements resolver.Gateway.
func (j *Jina) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	resp, err := j.client.Search(ctx, query)
	if err != nil {
		var apiErr *jina.APIError
		if errors.As(err, &apiErr) {
			return nil, classify(ctx, ProviderJina, apiErr.StatusCode, apiErr.Header, err)
		}
		return nil, classify(ctx, ProviderJina, 0, nil, err)
	}

	b := newHitBuilder(j.maxResults)
	for _, r := range resp.Data {
		snippet := r.Description
		if snippet == "" {
			snippet = r.Content
		}
		b.add(r.Title, r.URL, snippet)
	}
	return b.hits, nil
}
