package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/util"
)

// Provider defines the interface for chat-completion providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Classify sends one referral prompt and returns the raw model answer
	Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResult, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ClassifyRequest contains the input for one model call
type ClassifyRequest struct {
	// System is the triage-specialist persona message
	System string

	// User is the full rubric-plus-case prompt
	User string

	// Image is an optional attachment sent inline as a data URL
	Image []byte

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ClassifyResult contains the raw model output
type ClassifyResult struct {
	// Text is the model's answer as returned, untouched
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int

	// Latency is the wall-clock duration of the API call
	Latency time.Duration
}

// GatewayError is a structured failure from the external model call. The
// pipeline substitutes VisibleText for the model answer instead of raising,
// so downstream extraction always sees deterministic text.
type GatewayError struct {
	StatusCode int
	Message    string
	Timeout    bool
}

func (e *GatewayError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("gateway timeout: %s", e.Message)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway error: %s", e.Message)
}

// VisibleText is the deterministic substitute for a failed call. It carries
// no tier keywords, so extraction resolves it to Unknown.
func (e *GatewayError) VisibleText() string {
	if e.Timeout {
		return "Error from API: timeout"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("Error from API: %d", e.StatusCode)
	}
	return "Error from API: connection failed"
}

// timeoutErr reports whether err is a context deadline or a client timeout
func timeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// Config holds provider configuration
type Config struct {
	// Provider name: "azure", "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, Azure-hosted catalogs)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Sampling parameters sent with every request
	Temperature      float32
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// httpClient builds the proxy-aware client for hosted providers. Request
// deadlines come from the call context, so the client carries no timeout
// of its own.
func (c Config) httpClient() *http.Client {
	return &http.Client{
		Transport: util.NewTransport(c.HTTPProxy, c.HTTPSProxy, c.NoProxy),
	}
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:         "azure",
		Model:            "phi-4",
		Timeout:          10,
		MaxTokens:        750,
		Temperature:      0.05,
		TopP:             0.8,
		FrequencyPenalty: 0.1,
		PresencePenalty:  0.1,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig, hc model.HTTPConfig) Config {
	return Config{
		Provider:         mc.Provider,
		Model:            mc.Model,
		APIKey:           mc.APIKey,
		BaseURL:          mc.BaseURL,
		Timeout:          int(mc.Timeout / time.Second),
		MaxTokens:        mc.MaxTokens,
		Temperature:      mc.Temperature,
		TopP:             mc.TopP,
		FrequencyPenalty: mc.FrequencyPenalty,
		PresencePenalty:  mc.PresencePenalty,
		HTTPProxy:        hc.HTTPProxy,
		HTTPSProxy:       hc.HTTPSProxy,
		NoProxy:          hc.NoProxy,
	}
}
