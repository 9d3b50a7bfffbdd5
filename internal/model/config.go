package model

import "time"

// Config is the complete runtime configuration, assembled once at startup
// and passed by value into constructors
type Config struct {
	LLM          LLMConfig         `yaml:"llm"`
	HTTP         HTTPConfig        `yaml:"http"`
	Cache        CacheConfig       `yaml:"cache"`
	Store        StoreConfig       `yaml:"store"`
	Eval         EvalConfig        `yaml:"eval"`
	Notify       NotifyConfig      `yaml:"notify"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting"`
	Output       OutputConfig      `yaml:"output"`
}

// LLMConfig selects and tunes the chat-completion provider
type LLMConfig struct {
	Provider         string        `yaml:"provider"` // azure, openai, ollama, anthropic
	Model            string        `yaml:"model"`
	APIKey           string        `yaml:"-"` // env only, never serialized
	BaseURL          string        `yaml:"base_url,omitempty"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxTokens        int           `yaml:"max_tokens"`
	Temperature      float32       `yaml:"temperature"`
	TopP             float32       `yaml:"top_p"`
	FrequencyPenalty float32       `yaml:"frequency_penalty"`
	PresencePenalty  float32       `yaml:"presence_penalty"`
}

// HTTPConfig tunes outbound HTTP behavior shared by providers and probes
type HTTPConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
	InsecureTLS bool          `yaml:"insecure_tls"`
	HTTPProxy   string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy  string        `yaml:"https_proxy,omitempty"`
	NoProxy     string        `yaml:"no_proxy,omitempty"`
}

// CacheConfig controls response caching
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Dir        string        `yaml:"dir,omitempty"` // empty = user cache dir
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// StoreConfig controls referral persistence
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EvalConfig controls evaluation runs
type EvalConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// NotifyConfig controls Slack summaries. Token comes from SLACK_BOT_TOKEN;
// notifications are disabled when Channel is empty.
type NotifyConfig struct {
	SlackChannel string `yaml:"slack_channel,omitempty"`
	SlackToken   string `yaml:"-"` // env only, never serialized
}

// ConcurrencyConfig sizes the worker pools
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitConfig paces outbound gateway calls per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose"`
	Format        string `yaml:"format"` // text or json
	IncludeFooter bool   `yaml:"include_footer"`
}

// DefaultConfig returns a working configuration for the default provider
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:         "azure",
			Model:            "phi-4",
			Timeout:          10 * time.Second,
			MaxTokens:        750,
			Temperature:      0.05,
			TopP:             0.8,
			FrequencyPenalty: 0.1,
			PresencePenalty:  0.1,
		},
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "Urgentia/0.1 (+https://github.com/referralab/urgentia)",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        24 * time.Hour,
			MaxEntries: 10000,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "referrals.db",
		},
		Eval: EvalConfig{
			OutputDir: ".",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2.0,
			BurstSize:         4,
		},
		Output: OutputConfig{
			Format:        "text",
			IncludeFooter: true,
		},
	}
}
