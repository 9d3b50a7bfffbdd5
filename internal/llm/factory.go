package llm

import (
	"fmt"
	"os"
	"strings"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "azure":
		return NewAzureProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: azure, openai, anthropic, ollama)", config.Provider)
	}
}

// Endpoint returns the base URL the configured provider talks to, for
// pre-flight connectivity probes
func (c Config) Endpoint() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}

	switch strings.ToLower(c.Provider) {
	case "azure":
		return azureModelsBaseURL
	case "openai":
		return "https://api.openai.com/v1"
	case "anthropic", "claude":
		return "https://api.anthropic.com"
	case "ollama":
		return "http://localhost:11434"
	}
	return ""
}

// ResolveAPIKey returns the key for a provider, falling back to the
// conventional environment variable when the config carries none.
func ResolveAPIKey(provider, configured string) string {
	if configured != "" {
		return configured
	}

	switch strings.ToLower(provider) {
	case "azure":
		// GitHub Models authenticates with a GitHub token
		return os.Getenv("GITHUB_TOKEN")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}
