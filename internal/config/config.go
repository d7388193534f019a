package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AppName is used for the XDG config directory and the env prefix.
const AppName = "staff-finder"

// Config holds the full application configuration.
type Config struct {
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Selector   SelectorConfig   `yaml:"selector" mapstructure:"selector"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Planner    PlannerConfig    `yaml:"planner" mapstructure:"planner"`
	Shortlist  ShortlistConfig  `yaml:"shortlist" mapstructure:"shortlist"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit" mapstructure:"ratelimit"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Breaker    BreakerConfig    `yaml:"breaker" mapstructure:"breaker"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SearchConfig selects the search provider and bounds each call.
type SearchConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"` // jina, google, firecrawl, fixture
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxResults  int    `yaml:"max_results" mapstructure:"max_results"`
	FixtureFile string `yaml:"fixture_file" mapstructure:"fixture_file"` // canned hits for offline runs
}

// JinaConfig holds Jina search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
	NoCache       bool   `yaml:"no_cache" mapstructure:"no_cache"`
}

// GoogleConfig holds Programmable Search Engine credentials.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	CX      string `yaml:"cx" mapstructure:"cx"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FirecrawlConfig holds Firecrawl search settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SelectorConfig selects the classification provider.
type SelectorConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // anthropic, gemini, perplexity, heuristic
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MinScore    float64 `yaml:"min_score" mapstructure:"min_score"` // heuristic selector only
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PerplexityConfig holds settings for an OpenAI-compatible chat completions endpoint.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// PlannerConfig bounds query generation.
type PlannerConfig struct {
	MaxQueries int `yaml:"max_queries" mapstructure:"max_queries"`
}

// ShortlistConfig configures candidate scoring.
type ShortlistConfig struct {
	Size           int      `yaml:"size" mapstructure:"size"`
	StaffTokens    []string `yaml:"staff_tokens" mapstructure:"staff_tokens"`
	PenaltyTokens  []string `yaml:"penalty_tokens" mapstructure:"penalty_tokens"`
	Denylist       []string `yaml:"denylist" mapstructure:"denylist"`
	StaffWeight    float64  `yaml:"staff_weight" mapstructure:"staff_weight"`
	PenaltyWeight  float64  `yaml:"penalty_weight" mapstructure:"penalty_weight"`
	DenyWeight     float64  `yaml:"deny_weight" mapstructure:"deny_weight"`
	PositionWeight float64  `yaml:"position_weight" mapstructure:"position_weight"`
	RulesFile      string   `yaml:"rules_file" mapstructure:"rules_file"`
}

// Budget is a requests-per-window allowance for one provider.
type Budget struct {
	Requests   int     `yaml:"requests" mapstructure:"requests"`
	WindowSecs float64 `yaml:"window_secs" mapstructure:"window_secs"`
}

// RateLimitConfig holds the independent search and selector budgets.
type RateLimitConfig struct {
	Search   Budget `yaml:"search" mapstructure:"search"`
	Selector Budget `yaml:"selector" mapstructure:"selector"`
	Adaptive bool   `yaml:"adaptive" mapstructure:"adaptive"`
}

// BackoffConfig is one retry schedule.
type BackoffConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	Jitter           float64 `yaml:"jitter" mapstructure:"jitter"`
}

// RetryConfig holds the separate schedules for throttling and transient failures.
type RetryConfig struct {
	RateLimit BackoffConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Provider  BackoffConfig `yaml:"provider" mapstructure:"provider"`
}

// BreakerConfig configures per-provider circuit breakers.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency     int `yaml:"concurrency" mapstructure:"concurrency"`
	CheckpointEvery int `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres, none
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CacheConfig configures the search result cache.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
	TTLHours int  `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	SearchPerQuery  map[string]float64 `yaml:"search_per_query" mapstructure:"search_per_query"`
	InputPerMTok    float64            `yaml:"input_per_mtok" mapstructure:"input_per_mtok"`
	OutputPerMTok   float64            `yaml:"output_per_mtok" mapstructure:"output_per_mtok"`
	SelectorPerCall float64            `yaml:"selector_per_call" mapstructure:"selector_per_call"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxBatch       int      `yaml:"max_batch" mapstructure:"max_batch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultStaffTokens are the URL/title tokens that mark a staff directory.
var DefaultStaffTokens = []string{"staff", "directory", "faculty", "our-staff"}

// DefaultPenaltyTokens mark pages that are usually not a directory.
var DefaultPenaltyTokens = []string{"contact", "about", "news", "calendar"}

// DefaultDenylist holds aggregator and social domains.
var DefaultDenylist = []string{
	"greatschools.org",
	"niche.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"instagram.com",
	"youtube.com",
	"publicschoolreview.com",
	"usnews.com",
	"wikipedia.org",
	"yelp.com",
}

// ConfigDir returns the per-user config directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Load reads configuration from config.yaml (working directory, then the
// XDG config directory) and STAFF_FINDER_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(ConfigDir())

	// Environment
	v.SetEnvPrefix("STAFF_FINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Secrets default to empty so AutomaticEnv can bind them during Unmarshal.
	for _, key := range []string{"jina.key", "google.key", "google.cx", "firecrawl.key", "anthropic.key", "gemini.key", "gemini.base_url", "perplexity.key", "shortlist.rules_file", "search.fixture_file"} {
		v.SetDefault(key, "")
	}
	v.SetDefault("search.provider", "jina")
	v.SetDefault("search.timeout_secs", 30)
	v.SetDefault("search.max_results", 10)
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.no_cache", false)
	v.SetDefault("google.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("selector.provider", "anthropic")
	v.SetDefault("selector.timeout_secs", 60)
	v.SetDefault("selector.min_score", 3.0)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 512)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("planner.max_queries", 3)
	v.SetDefault("shortlist.size", 5)
	v.SetDefault("shortlist.staff_tokens", DefaultStaffTokens)
	v.SetDefault("shortlist.penalty_tokens", DefaultPenaltyTokens)
	v.SetDefault("shortlist.denylist", DefaultDenylist)
	v.SetDefault("shortlist.staff_weight", 3.0)
	v.SetDefault("shortlist.penalty_weight", 1.5)
	v.SetDefault("shortlist.deny_weight", 2.0)
	v.SetDefault("shortlist.position_weight", 0.5)
	v.SetDefault("ratelimit.search.requests", 10)
	v.SetDefault("ratelimit.search.window_secs", 1.0)
	v.SetDefault("ratelimit.selector.requests", 5)
	v.SetDefault("ratelimit.selector.window_secs", 1.0)
	v.SetDefault("ratelimit.adaptive", true)
	v.SetDefault("retry.rate_limit.max_attempts", 5)
	v.SetDefault("retry.rate_limit.initial_backoff_ms", 2000)
	v.SetDefault("retry.rate_limit.max_backoff_ms", 60000)
	v.SetDefault("retry.rate_limit.multiplier", 2.0)
	v.SetDefault("retry.rate_limit.jitter", 0.25)
	v.SetDefault("retry.provider.max_attempts", 2)
	v.SetDefault("retry.provider.initial_backoff_ms", 500)
	v.SetDefault("retry.provider.max_backoff_ms", 5000)
	v.SetDefault("retry.provider.multiplier", 2.0)
	v.SetDefault("retry.provider.jitter", 0.25)
	v.SetDefault("breaker.failure_threshold", 10)
	v.SetDefault("breaker.reset_timeout_secs", 30)
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("batch.checkpoint_every", 250)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", filepath.Join(xdg.DataHome, AppName, "staff-finder.db"))
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_hours", 24*7)
	v.SetDefault("pricing.search_per_query", map[string]float64{"jina": 0.001, "google": 0.005, "firecrawl": 0.002})
	v.SetDefault("pricing.input_per_mtok", 1.0)
	v.SetDefault("pricing.output_per_mtok", 5.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_batch", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
