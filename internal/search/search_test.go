package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/staff-finder/internal/config"
	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/resilience"
	"github.com/sells-group/staff-finder/pkg/firecrawl"
	"github.com/sells-group/staff-finder/pkg/google"
	googlemocks "github.com/sells-group/staff-finder/pkg/google/mocks"
	"github.com/sells-group/staff-finder/pkg/jina"
)

func statusServer(t *testing.T, status int, header map[string]string, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for k, v := range header {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestJinaSearch(t *testing.T) {
	url := statusServer(t, http.StatusOK, nil, `{"code":200,"data":[
		{"title":"Staff Directory","url":"https://www.pps.net/lincoln/staff","description":"Find   staff\ncontacts"},
		{"title":"no url","url":""},
		{"title":"Lincoln","url":"https://www.pps.net/lincoln","content":"Home page"}
	]}`)

	gw := NewJina(jina.NewClient("k", jina.WithSearchBaseURL(url)), 10)
	hits, err := gw.Search(context.Background(), "Lincoln High School staff directory")
	require.NoError(t, err)

	assert.Equal(t, []model.SearchHit{
		{Position: 1, Title: "Staff Directory", URL: "https://www.pps.net/lincoln/staff", Snippet: "Find staff contacts"},
		{Position: 2, Title: "Lincoln", URL: "https://www.pps.net/lincoln", Snippet: "Home page"},
	}, hits)
}

func TestJinaNoResults(t *testing.T) {
	url := statusServer(t, http.StatusUnprocessableEntity, nil, `{"code":422}`)
	gw := NewJina(jina.NewClient("k", jina.WithSearchBaseURL(url)), 10)

	hits, err := gw.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestJinaMaxResults(t *testing.T) {
	var data []string
	for i := 0; i < 5; i++ {
		data = append(data, `{"title":"t","url":"https://example.org/`+string(rune('a'+i))+`"}`)
	}
	url := statusServer(t, http.StatusOK, nil, `{"data":[`+strings.Join(data, ",")+`]}`)
	gw := NewJina(jina.NewClient("k", jina.WithSearchBaseURL(url)), 3)

	hits, err := gw.Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, 3, hits[2].Position)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		header        map[string]string
		wantRateLimit bool
		wantProvider  bool
		wantRetry     time.Duration
	}{
		{name: "429 with retry-after", status: 429, header: map[string]string{"Retry-After": "9"}, wantRateLimit: true, wantRetry: 9 * time.Second},
		{name: "503", status: 503, wantProvider: true},
		{name: "500", status: 500, wantProvider: true},
		{name: "401 permanent", status: 401},
		{name: "400 permanent", status: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := statusServer(t, tt.status, tt.header, `{"error":"x"}`)
			gateways := map[string]interface {
				Search(context.Context, string) ([]model.SearchHit, error)
			}{
				ProviderJina:      NewJina(jina.NewClient("k", jina.WithSearchBaseURL(url)), 10),
				ProviderGoogle:    NewGoogle(google.NewClient("k", "cx", google.WithBaseURL(url)), 10),
				ProviderFirecrawl: NewFirecrawl(firecrawl.NewClient("k", firecrawl.WithBaseURL(url)), 10),
			}
			for name, gw := range gateways {
				_, err := gw.Search(context.Background(), "q")
				require.Error(t, err, name)
				assert.Equal(t, tt.wantRateLimit, resilience.IsRateLimited(err), name)

				var pe *resilience.ProviderError
				assert.Equal(t, tt.wantProvider, errors.As(err, &pe), name)
				if tt.wantProvider {
					assert.Equal(t, name, pe.Provider)
					assert.Equal(t, tt.status, pe.StatusCode)
				}

				var rl *resilience.RateLimitError
				if errors.As(err, &rl) {
					assert.Equal(t, name, rl.Provider)
					assert.Equal(t, tt.wantRetry, rl.RetryAfter)
				}
			}
		})
	}
}

func TestTransportErrorIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	gw := NewJina(jina.NewClient("k", jina.WithSearchBaseURL(url)), 10)
	_, err := gw.Search(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, resilience.IsProviderError(err))
}

func TestGoogleSearchWithMock(t *testing.T) {
	client := googlemocks.NewMockClient(t)
	client.On("Search", mock.Anything, "Grant High School staff directory", 5).Return(&google.SearchResponse{
		Items: []google.Item{
			{Title: "Staff", Link: "https://grant.example/staff", Snippet: "All staff"},
			{Title: "Grant", Link: "https://grant.example/"},
		},
	}, nil)

	hits, err := NewGoogle(client, 5).Search(context.Background(), "Grant High School staff directory")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, model.SearchHit{Position: 1, Title: "Staff", URL: "https://grant.example/staff", Snippet: "All staff"}, hits[0])
	assert.Equal(t, 2, hits[1].Position)
}

func TestFirecrawlSearch(t *testing.T) {
	url := statusServer(t, http.StatusOK, nil, `{"success":true,"data":[
		{"url":"https://roosevelt.example/our-staff","title":"Our Staff","description":"Teachers"}
	]}`)

	hits, err := NewFirecrawl(firecrawl.NewClient("k", firecrawl.WithBaseURL(url)), 0).Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Teachers", hits[0].Snippet)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	breakers := resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	gw := WithBreaker(NewJina(jina.NewClient("k", jina.WithSearchBaseURL(srv.URL)), 10), breakers.Get(ProviderJina))

	for i := 0; i < 2; i++ {
		_, err := gw.Search(context.Background(), "q")
		require.Error(t, err)
	}
	_, err := gw.Search(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.True(t, resilience.IsProviderError(err))
	assert.Equal(t, 2, calls, "open circuit does not reach the provider")
	assert.Equal(t, resilience.CircuitOpen, breakers.States()[ProviderJina])
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hits.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`queries:
  "Lincoln High School Portland OR staff directory":
    - title: Staff Directory
      url: https://www.pps.net/lincoln/staff
      snippet: Staff contacts
    - title: Lincoln High School - Niche
      url: https://www.niche.com/k12/lincoln
  "empty school staff directory": []
`), 0o644))
	return path
}

func TestFixture(t *testing.T) {
	f, err := LoadFixture(writeFixture(t))
	require.NoError(t, err)

	hits, err := f.Search(context.Background(), "  lincoln high school   PORTLAND or staff directory")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Position)
	assert.Equal(t, "https://www.niche.com/k12/lincoln", hits[1].URL)

	hits[0].URL = "mutated"
	again, _ := f.Search(context.Background(), "Lincoln High School Portland OR staff directory")
	assert.Equal(t, "https://www.pps.net/lincoln/staff", again[0].URL)

	hits, err = f.Search(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, hits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Search(ctx, "unknown")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFixtureErrors(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("queries: [unclosed"), 0o644))
	_, err = LoadFixture(bad)
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	breakers := resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig())

	for _, provider := range []string{ProviderJina, ProviderGoogle, ProviderFirecrawl} {
		cfg := &config.Config{}
		cfg.Search.Provider = provider
		gw, err := New(cfg, breakers)
		require.NoError(t, err, provider)
		assert.IsType(t, &Breaker{}, gw, provider)
	}

	cfg := &config.Config{}
	cfg.Search.Provider = ProviderJina
	gw, err := New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &Jina{}, gw)

	cfg.Search.Provider = ProviderFixture
	cfg.Search.FixtureFile = writeFixture(t)
	gw, err = New(cfg, breakers)
	require.NoError(t, err)
	assert.IsType(t, &Fixture{}, gw)

	cfg.Search.Provider = "bing"
	_, err = New(cfg, breakers)
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	cfg := &config.Config{}
	assert.Equal(t, 30*time.Second, Timeout(cfg))
	cfg.Search.TimeoutSecs = 5
	assert.Equal(t, 5*time.Second, Timeout(cfg))
}
