package selector

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/staff-finder/internal/config"
	"github.com/sells-group/staff-finder/internal/cost"
	"github.com/sells-group/staff-finder/internal/resilience"
	"github.com/sells-group/staff-finder/internal/resolver"
	"github.com/sells-group/staff-finder/pkg/anthropic"
	"github.com/sells-group/staff-finder/pkg/perplexity"
)

// New builds the configured selector. Model-backed selectors are wrapped in
// the breaker registered under their provider name; breakers may be nil.
func New(ctx context.Context, cfg *config.Config, usage *cost.Tracker, breakers *resilience.ServiceBreakers) (resolver.Selector, error) {
	var sel resolver.Selector

	switch cfg.Selector.Provider {
	case ProviderAnthropic:
		sel = NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, usage)
	case ProviderGemini:
		g, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:  cfg.Gemini.Key,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
		}, usage)
		if err != nil {
			return nil, err
		}
		sel = g
	case ProviderPerplexity:
		opts := []perplexity.Option{}
		if cfg.Perplexity.BaseURL != "" {
			opts = append(opts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
		}
		if cfg.Perplexity.Model != "" {
			opts = append(opts, perplexity.WithModel(cfg.Perplexity.Model))
		}
		sel = NewChat(perplexity.NewClient(cfg.Perplexity.Key, opts...), ProviderPerplexity, usage)
	case ProviderHeuristic:
		return NewHeuristic(cfg.Selector.MinScore), nil
	default:
		return nil, eris.Errorf("selector: unknown provider %q", cfg.Selector.Provider)
	}

	if breakers != nil {
		sel = WithBreaker(sel, breakers.Get(cfg.Selector.Provider))
	}
	return sel, nil
}

// Timeout returns the per-call selector timeout from config.
func Timeout(cfg *config.Config) time.Duration {
	if cfg.Selector.TimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(cfg.Selector.TimeoutSecs) * time.Second
}
