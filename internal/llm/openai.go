package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// azureModelsBaseURL is the GitHub Models catalog endpoint (Azure-hosted,
// OpenAI-compatible)
const azureModelsBaseURL = "https://models.inference.ai.azure.com/v1"

// OpenAIProvider implements the Provider interface for OpenAI-compatible
// chat-completion APIs. It backs both the "openai" and "azure" providers.
type OpenAIProvider struct {
	client *openai.Client
	config Config
	name   string
}

// NewOpenAIProvider creates a provider against the OpenAI API
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.HTTPClient = config.httpClient()
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   "openai",
	}, nil
}

// NewAzureProvider creates a provider against the GitHub Models catalog,
// the default deployment target for phi-4
func NewAzureProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("GitHub Models token is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.HTTPClient = config.httpClient()
	clientConfig.BaseURL = azureModelsBaseURL
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   "azure",
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Simple check: try to list models (lightweight API call)
	_, err := p.client.ListModels(ctx)
	if err != nil {
		// Log the actual error for debugging (this helps users diagnose API key issues)
		fmt.Fprintf(os.Stderr, "%s API check failed: %v\n", p.name, err)
		return false
	}
	return true
}

// Classify sends the referral prompt through the Chat Completions API
func (p *OpenAIProvider) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResult, error) {
	// Determine model
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	if model == "" {
		model = "phi-4"
	}

	// Determine max tokens
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 750
	}

	// Create timeout context
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	if len(req.Image) > 0 {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: req.User},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL: imageDataURL(req.Image),
				}},
			},
		})
	} else {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.User,
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:            model,
		Messages:         messages,
		MaxTokens:        maxTokens,
		Temperature:      p.config.Temperature,
		TopP:             p.config.TopP,
		FrequencyPenalty: p.config.FrequencyPenalty,
		PresencePenalty:  p.config.PresencePenalty,
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	latency := time.Since(start)
	if err != nil {
		return nil, openaiGatewayError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices from %s", p.name)
	}

	return &ClassifyResult{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
		Latency:    latency,
	}, nil
}

// imageDataURL encodes an attachment as an inline data URL. The wire format
// always declares jpeg, matching what the endpoint accepts for any raster
// payload.
func imageDataURL(data []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}

// openaiGatewayError maps client errors to GatewayError
func openaiGatewayError(err error) error {
	if timeoutErr(err) {
		return &GatewayError{Timeout: true, Message: err.Error()}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &GatewayError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &GatewayError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}

	return &GatewayError{Message: err.Error()}
}
