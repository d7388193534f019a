package search

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/staff-finder/internal/config"
	"github.com/sells-group/staff-finder/internal/resilience"
	"github.com/sells-group/staff-finder/internal/resolver"
	"github.com/sells-group/staff-finder/pkg/firecrawl"
	"github.com/sells-group/staff-finder/pkg/google"
	"github.com/sells-group/staff-finder/pkg/jina"
)

// New builds the configured gateway. Network providers are wrapped in the
// breaker registered under their provider name; breakers may be nil.
func New(cfg *config.Config, breakers *resilience.ServiceBreakers) (resolver.Gateway, error) {
	var gw resolver.Gateway
	limit := cfg.Search.MaxResults

	switch cfg.Search.Provider {
	case ProviderJina:
		opts := []jina.Option{jina.WithNoCache(cfg.Jina.NoCache)}
		if cfg.Jina.SearchBaseURL != "" {
			opts = append(opts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
		}
		gw = NewJina(jina.NewClient(cfg.Jina.Key, opts...), limit)
	case ProviderGoogle:
		opts := []google.Option{}
		if cfg.Google.BaseURL != "" {
			opts = append(opts, google.WithBaseURL(cfg.Google.BaseURL))
		}
		gw = NewGoogle(google.NewClient(cfg.Google.Key, cfg.Google.CX, opts...), limit)
	case ProviderFirecrawl:
		opts := []firecrawl.Option{}
		if cfg.Firecrawl.BaseURL != "" {
			opts = append(opts, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		}
		gw = NewFirecrawl(firecrawl.NewClient(cfg.Firecrawl.Key, opts...), limit)
	case ProviderFixture:
		return LoadFixture(cfg.Search.FixtureFile)
	default:
		return nil, eris.Errorf("search: unknown provider %q", cfg.Search.Provider)
	}

	if breakers != nil {
		gw = WithBreaker(gw, breakers.Get(cfg.Search.Provider))
	}
	return gw, nil
}

// Timeout returns the per-call search timeout from config.
func Timeout(cfg *config.Config) time.Duration {
	if cfg.Search.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(cfg.Search.TimeoutSecs) * time.Second
}
