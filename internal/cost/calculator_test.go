package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		SearchPerQuery:  map[string]float64{"jina": 0.001, "google": 0.005},
		InputPerMTok:    0.80,
		OutputPerMTok:   4.00,
		SelectorPerCall: 0.01,
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name     string
		provider string
		n        int64
		want     float64
	}{
		{"jina", "jina", 1000, 1.0},
		{"google", "google", 10, 0.05},
		{"unknown provider is free", "bing", 100, 0},
		{"zero calls", "jina", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.Search(tt.provider, tt.n), 1e-9)
		})
	}
}

func TestSelector(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	// 1M input + 100k output + 2 flat calls
	assert.InDelta(t, 0.80+0.40+0.02, calc.Selector(2, 1_000_000, 100_000), 1e-9)
	assert.InDelta(t, 0, NewCalculator(Rates{}).Selector(5, 1000, 1000), 1e-9)
}

func TestTotal(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())
	u := Usage{SearchCalls: 100, CacheHits: 50, SelectorCalls: 10, InputTokens: 500_000, OutputTokens: 50_000}

	want := 100*0.001 + 0.40 + 0.20 + 10*0.01
	assert.InDelta(t, want, calc.Total("jina", u), 1e-9)
}

func TestTrackerConcurrent(t *testing.T) {
	t.Parallel()
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.AddSearch()
			tr.AddCacheHit()
			tr.AddSelector(100, 10)
		}()
	}
	wg.Wait()

	u := tr.Snapshot()
	assert.Equal(t, int64(50), u.SearchCalls)
	assert.Equal(t, int64(50), u.CacheHits)
	assert.Equal(t, int64(50), u.SelectorCalls)
	assert.Equal(t, int64(5000), u.InputTokens)
	assert.Equal(t, int64(500), u.OutputTokens)
}

func TestNilTrackerIsNoop(t *testing.T) {
	t.Parallel()
	var tr *Tracker
	tr.AddSearch()
	tr.AddSelector(1, 1)
	assert.Equal(t, Usage{}, tr.Snapshot())
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	r := DefaultRates()
	assert.Contains(t, r.SearchPerQuery, "jina")
	assert.Greater(t, r.OutputPerMTok, r.InputPerMTok)
}
