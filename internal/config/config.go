package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	SearXNG    SearXNGConfig    `yaml:"searxng" mapstructure:"searxng"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Campaign   CampaignConfig   `yaml:"campaign" mapstructure:"campaign"`
	Identify   IdentifyConfig   `yaml:"identify" mapstructure:"identify"`
	Breaker    BreakerConfig    `yaml:"breaker" mapstructure:"breaker"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures where history and results are persisted.
// Driver is one of "json", "sqlite" or "postgres".
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	HistoryFile string `yaml:"history_file" mapstructure:"history_file"`
	ResultsFile string `yaml:"results_file" mapstructure:"results_file"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// JinaConfig holds Jina AI Reader and Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// SearXNGConfig points at a self-hosted SearXNG instance.
type SearXNGConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds settings for any OpenAI-compatible chat endpoint
// (OpenAI, Ollama, DeepSeek).
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LLMConfig selects the chat backend and its call budget.
// Provider is one of "anthropic", "openai" or "gemini".
type LLMConfig struct {
	Provider         string  `yaml:"provider" mapstructure:"provider"`
	DraftProvider    string  `yaml:"draft_provider" mapstructure:"draft_provider"`
	RequestsPerMin   int     `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	Burst            int     `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	MaxTokens        int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	DraftTemperature float64 `yaml:"draft_temperature" mapstructure:"draft_temperature"`
}

// SearchConfig orders the web search backends. Backends are tried in order;
// the first one returning results wins.
type SearchConfig struct {
	Backends    []string `yaml:"backends" mapstructure:"backends"`
	Region      string   `yaml:"region" mapstructure:"region"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int      `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ScrapeConfig orders the page fetch backends.
type ScrapeConfig struct {
	Backends     []string `yaml:"backends" mapstructure:"backends"`
	TimeoutSecs  int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	ExcludePaths []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
}

// BreakerConfig configures the per-backend circuit breakers.
type BreakerConfig struct {
	Threshold    int `yaml:"threshold" mapstructure:"threshold"`
	CooldownSecs int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
}

// DiscoveryConfig configures candidate discovery filtering.
type DiscoveryConfig struct {
	QuerySuffix     string   `yaml:"query_suffix" mapstructure:"query_suffix"`
	PoolSize        int      `yaml:"pool_size" mapstructure:"pool_size"`
	DomainBlacklist []string `yaml:"domain_blacklist" mapstructure:"domain_blacklist"`
	PathBlacklist   []string `yaml:"path_blacklist" mapstructure:"path_blacklist"`
	ListicleMarkers []string `yaml:"listicle_markers" mapstructure:"listicle_markers"`
}

// CampaignConfig configures the campaign runner.
type CampaignConfig struct {
	DelayMillis       int    `yaml:"delay_millis" mapstructure:"delay_millis"`
	MaxTarget         int    `yaml:"max_target" mapstructure:"max_target"`
	QualifyCharLimit  int    `yaml:"qualify_char_limit" mapstructure:"qualify_char_limit"`
	IdentifyCharLimit int    `yaml:"identify_char_limit" mapstructure:"identify_char_limit"`
	Sender            string `yaml:"sender" mapstructure:"sender"`
	// RememberRejected also records disqualified and unscrapable sites in
	// history so later runs skip them.
	RememberRejected bool `yaml:"remember_rejected" mapstructure:"remember_rejected"`
}

// IdentifyConfig configures the decision-maker hunt.
type IdentifyConfig struct {
	SearchResults       int  `yaml:"search_results" mapstructure:"search_results"`
	ValidateLinks       bool `yaml:"validate_links" mapstructure:"validate_links"`
	ValidateTimeoutSecs int  `yaml:"validate_timeout_secs" mapstructure:"validate_timeout_secs"`
}

// ServerConfig configures the HTTP/websocket server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultDomainBlacklist lists directories, aggregators and social platforms
// whose hits are never company sites.
var DefaultDomainBlacklist = []string{
	"clutch.co", "yelp.com", "linkedin.com", "facebook.com",
	"instagram.com", "twitter.com", "x.com", "glassdoor.com", "upwork.com",
	"expert.com", "wikipedia.org", "crunchbase.com",
	"yellowpages.com", "bbb.org", "angis.com", "houzz.com", "thumbtack.com",
	"expertise.com", "upcity.com", "designrush.com",
	"goodfirms.co", "sortlist.com", "topagencies", "bestagencies",
	"agencies.com", "directory", "listing", "review",
	"medium.com", "hubspot.com", "wordpress.com",
	"zhihu.com", "quora.com", "reddit.com", "stackoverflow.com",
	"youtube.com", "vimeo.com", "slideshare.net", "issuu.com",
	"zillow.com", "realtor.com",
}

// DefaultPathBlacklist lists URL path fragments of directory, category and
// editorial pages.
var DefaultPathBlacklist = []string{
	"/directory/", "/category/", "/tags/",
	"/blog/", "/articles/", "/news/", "/post/",
	"/list/", "/top-", "/best-", "/review/",
	"/question/", "/answer/", "/topic/",
}

// DefaultListicleMarkers are lower-case title fragments of listicles.
var DefaultListicleMarkers = []string{"top ", "best ", "reviews"}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "json")
	v.SetDefault("store.history_file", "history_db.json")
	v.SetDefault("store.results_file", "campaign_results.json")
	v.SetDefault("store.sqlite_path", "outreach.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("searxng.timeout_secs", 15)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.base_url", "http://localhost:11434/v1")
	v.SetDefault("openai.model", "qwen2.5:7b")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.requests_per_min", 60)
	v.SetDefault("llm.burst", 2)
	v.SetDefault("llm.timeout_secs", 60)
	v.SetDefault("llm.max_attempts", 2)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.draft_temperature", 0.6)
	v.SetDefault("search.backends", []string{"jina"})
	v.SetDefault("search.region", "us-en")
	v.SetDefault("search.timeout_secs", 20)
	v.SetDefault("search.max_attempts", 2)
	v.SetDefault("scrape.backends", []string{"firecrawl", "jina", "local"})
	v.SetDefault("scrape.timeout_secs", 45)
	v.SetDefault("scrape.exclude_paths", []string{"*.pdf", "*.zip", "*.jpg", "*.png", "/wp-login.php"})
	v.SetDefault("breaker.threshold", 3)
	v.SetDefault("breaker.cooldown_secs", 60)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("discovery.query_suffix", "official website")
	v.SetDefault("discovery.pool_size", 40)
	v.SetDefault("discovery.domain_blacklist", DefaultDomainBlacklist)
	v.SetDefault("discovery.path_blacklist", DefaultPathBlacklist)
	v.SetDefault("discovery.listicle_markers", DefaultListicleMarkers)
	v.SetDefault("campaign.delay_millis", 1000)
	v.SetDefault("campaign.max_target", 10)
	v.SetDefault("campaign.qualify_char_limit", 6000)
	v.SetDefault("campaign.identify_char_limit", 4000)
	v.SetDefault("campaign.sender", "The Outreach Team")
	v.SetDefault("campaign.remember_rejected", false)
	v.SetDefault("identify.search_results", 3)
	v.SetDefault("identify.validate_links", false)
	v.SetDefault("identify.validate_timeout_secs", 5)

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

// Validate checks that the settings a command mode depends on are present.
// Modes: "campaign" (search + scrape + llm), "store" (persistence only).
func (c *Config) Validate(mode string) error {
	var missing []string

	switch c.Store.Driver {
	case "json", "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url")
		}
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}

	if mode == "campaign" {
		for _, b := range c.Search.Backends {
			switch b {
			case "jina":
				if c.Jina.Key == "" {
					missing = append(missing, "jina.key")
				}
			case "searxng":
				if c.SearXNG.BaseURL == "" {
					missing = append(missing, "searxng.base_url")
				}
			case "perplexity":
				if c.Perplexity.Key == "" {
					missing = append(missing, "perplexity.key")
				}
			default:
				return eris.Errorf("config: unknown search backend %q", b)
			}
		}
		if len(c.Search.Backends) == 0 {
			missing = append(missing, "search.backends")
		}
		for _, p := range []string{c.LLM.Provider, c.LLM.DraftProvider} {
			switch p {
			case "":
			case "anthropic":
				if c.Anthropic.Key == "" {
					missing = append(missing, "anthropic.key")
				}
			case "openai":
				if c.OpenAI.BaseURL == "" {
					missing = append(missing, "openai.base_url")
				}
			case "gemini":
				if c.Gemini.Key == "" {
					missing = append(missing, "gemini.key")
				}
			default:
				return eris.Errorf("config: unknown llm provider %q", p)
			}
		}
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings for %s: %s", mode, strings.Join(dedupe(missing), ", "))
	}
	return nil
}

// Redacted returns a copy of the config with API keys masked, suitable for
// printing.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	c.Jina.Key = mask(c.Jina.Key)
	c.Firecrawl.Key = mask(c.Firecrawl.Key)
	c.Perplexity.Key = mask(c.Perplexity.Key)
	c.Anthropic.Key = mask(c.Anthropic.Key)
	c.OpenAI.Key = mask(c.OpenAI.Key)
	c.Gemini.Key = mask(c.Gemini.Key)
	c.Store.DatabaseURL = mask(c.Store.DatabaseURL)
	return c
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
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
