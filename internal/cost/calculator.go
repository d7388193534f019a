// Package cost tracks provider usage during a run and prices it.
package cost

import "sync/atomic"

// Rates holds per-provider pricing configuration.
type Rates struct {
	SearchPerQuery  map[string]float64 `yaml:"search_per_query" mapstructure:"search_per_query"`
	InputPerMTok    float64            `yaml:"input_per_mtok" mapstructure:"input_per_mtok"`
	OutputPerMTok   float64            `yaml:"output_per_mtok" mapstructure:"output_per_mtok"`
	SelectorPerCall float64            `yaml:"selector_per_call" mapstructure:"selector_per_call"`
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		SearchPerQuery: map[string]float64{"jina": 0.001, "google": 0.005, "firecrawl": 0.002},
		InputPerMTok:   1.00,
		OutputPerMTok:  5.00,
	}
}

// Usage is a snapshot of provider calls made during a run.
type Usage struct {
	SearchCalls   int64 `json:"search_calls"`
	CacheHits     int64 `json:"cache_hits"`
	SelectorCalls int64 `json:"selector_calls"`
	InputTokens   int64 `json:"input_tokens"`
	OutputTokens  int64 `json:"output_tokens"`
}

// Tracker accumulates usage from concurrent pipelines.
type Tracker struct {
	searchCalls   atomic.Int64
	cacheHits     atomic.Int64
	selectorCalls atomic.Int64
	inputTokens   atomic.Int64
	outputTokens  atomic.Int64
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// AddSearch records one search request sent to the provider.
func (t *Tracker) AddSearch() {
	if t != nil {
		t.searchCalls.Add(1)
	}
}

// AddCacheHit records a search answered from the cache.
func (t *Tracker) AddCacheHit() {
	if t != nil {
		t.cacheHits.Add(1)
	}
}

// AddSelector records one selector call and its token counts.
func (t *Tracker) AddSelector(input, output int64) {
	if t == nil {
		return
	}
	t.selectorCalls.Add(1)
	t.inputTokens.Add(input)
	t.outputTokens.Add(output)
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Usage {
	if t == nil {
		return Usage{}
	}
	return Usage{
		SearchCalls:   t.searchCalls.Load(),
		CacheHits:     t.cacheHits.Load(),
		SelectorCalls: t.selectorCalls.Load(),
		InputTokens:   t.inputTokens.Load(),
		OutputTokens:  t.outputTokens.Load(),
	}
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Search returns the cost of n queries against provider.
func (c *Calculator) Search(provider string, n int64) float64 {
	return float64(n) * c.rates.SearchPerQuery[provider]
}

// Selector returns the cost of selector calls from token counts plus any flat per-call fee.
func (c *Calculator) Selector(calls, input, output int64) float64 {
	inCost := (float64(input) / 1e6) * c.rates.InputPerMTok
	outCost := (float64(output) / 1e6) * c.rates.OutputPerMTok
	return inCost + outCost + float64(calls)*c.rates.SelectorPerCall
}

// Total prices a usage snapshot for the given search provider.
func (c *Calculator) Total(searchProvider string, u Usage) float64 {
	return c.Search(searchProvider, u.SearchCalls) + c.Selector(u.SelectorCalls, u.InputTokens, u.OutputTokens)
}
