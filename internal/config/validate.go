package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError lists every invalid or missing setting found by Validate.
// MissingKeys names the credential settings among Problems.
type ValidationError struct {
	Problems    []string
	MissingKeys []string
}

func (e *ValidationError) Error() string {
	return "config: " + strings.Join(e.Problems, "; ")
}

// Auth reports whether the only problems are missing credentials.
func (e *ValidationError) Auth() bool {
	return len(e.MissingKeys) > 0 && len(e.MissingKeys) == len(e.Problems)
}

// Validate checks the settings needed by the given command mode
// ("run", "resolve", "serve", "runs", "cache").
func (c *Config) Validate(mode string) error {
	var problems, missing []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}
	requireKey := func(key, value string) {
		if value == "" {
			add("%s is required", key)
			missing = append(missing, key)
		}
	}

	needsProviders := mode == "run" || mode == "resolve" || mode == "serve"
	needsStore := mode == "runs" || mode == "cache"

	if needsProviders {
		switch c.Search.Provider {
		case "jina":
			requireKey("jina.key", c.Jina.Key)
		case "google":
			requireKey("google.key", c.Google.Key)
			requireKey("google.cx", c.Google.CX)
		case "firecrawl":
			requireKey("firecrawl.key", c.Firecrawl.Key)
		case "fixture":
			if c.Search.FixtureFile == "" {
				add("search.fixture_file is required for the fixture provider")
			}
		default:
			add("search.provider %q is not one of jina, google, firecrawl, fixture", c.Search.Provider)
		}

		switch c.Selector.Provider {
		case "anthropic":
			requireKey("anthropic.key", c.Anthropic.Key)
		case "gemini":
			requireKey("gemini.key", c.Gemini.Key)
		case "perplexity":
			requireKey("perplexity.key", c.Perplexity.Key)
		case "heuristic":
		default:
			add("selector.provider %q is not one of anthropic, gemini, perplexity, heuristic", c.Selector.Provider)
		}

		if c.Batch.Concurrency < 1 {
			add("batch.concurrency must be >= 1")
		}
		if c.Shortlist.Size < 1 {
			add("shortlist.size must be >= 1")
		}
		if c.Planner.MaxQueries < 1 {
			add("planner.max_queries must be >= 1")
		}
		for name, b := range map[string]Budget{"search": c.RateLimit.Search, "selector": c.RateLimit.Selector} {
			if b.Requests < 1 || b.WindowSecs <= 0 {
				add("ratelimit.%s needs requests >= 1 and window_secs > 0", name)
			}
		}
	}

	if needsStore && c.Store.Driver == "none" {
		add("store.driver must be sqlite or postgres for %s", mode)
	}
	if c.Store.Driver != "" && !slices.Contains([]string{"sqlite", "postgres", "none"}, c.Store.Driver) {
		add("store.driver %q is not one of sqlite, postgres, none", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		add("store.database_url is required for postgres")
	}

	if mode == "serve" && (c.Server.Port < 1 || c.Server.Port > 65535) {
		add("server.port %d is out of range", c.Server.Port)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems, MissingKeys: missing}
	}
	return nil
}

// Redacted returns a copy of the config with secrets masked, for --debug output.
func (c *Config) Redacted() Config {
	out := *c
	out.Jina.Key = mask(c.Jina.Key)
	out.Google.Key = mask(c.Google.Key)
	out.Firecrawl.Key = mask(c.Firecrawl.Key)
	out.Anthropic.Key = mask(c.Anthropic.Key)
	out.Gemini.Key = mask(c.Gemini.Key)
	out.Perplexity.Key = mask(c.Perplexity.Key)
	out.Store.DatabaseURL = maskDSN(c.Store.DatabaseURL)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}

// maskDSN hides the password portion of a postgres:// URL.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return dsn
	}
	return dsn[:scheme+3] + creds[:colon] + ":****" + dsn[at:]
}
