package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider is the fallback provider used when Groq is configured
// out or rate-limited. Same wire protocol, different endpoint.
type OpenAIProvider struct {
	client *openai.Client
	config ProviderConfig
	info   ProviderInfo
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config ProviderConfig) (Provider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not provided")
	}

	if config.Model == "" {
		config.Model = "gpt-3.5-turbo"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 800
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	provider := &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		info: ProviderInfo{
			Name:      "OpenAI",
			Models:    []string{"gpt-3.5-turbo", "gpt-4o-mini"},
			MaxTokens: 4096,
		},
	}

	return provider, nil
}

// Complete generates a text completion
func (p *OpenAIProvider) Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error) {
	startTime := time.Now()

	timeout := request.Timeout
	if timeout == 0 {
		timeout = p.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	systemPrompt := request.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = krishiSystemPrompt
	}

	model := request.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := request.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	temperature := request.Temperature
	if temperature == 0 {
		temperature = p.config.Temperature
	}

	response, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: request.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	})
	if err != nil {
		var netErr net.Error
		var urlErr *url.Error
		if (errors.As(err, &netErr) && netErr.Timeout()) || errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &ProviderError{Type: ErrorTypeNetworkError, Provider: "openai", Message: err.Error(), Err: ErrNetwork}
		}
		return nil, &ProviderError{Type: ErrorTypeAPI, Provider: "openai", Message: err.Error(), Err: err}
	}

	if len(response.Choices) == 0 {
		return nil, &ProviderError{Type: ErrorTypeAPI, Provider: "openai", Message: "no choices returned"}
	}

	return &CompletionResponse{
		Content:      strings.TrimSpace(response.Choices[0].Message.Content),
		FinishReason: string(response.Choices[0].FinishReason),
		Model:        response.Model,
		Provider:     "openai",
		TotalTokens:  response.Usage.TotalTokens,
		Latency:      time.Since(startTime),
		Timestamp:    time.Now(),
	}, nil
}

// GetInfo returns provider information
func (p *OpenAIProvider) GetInfo() ProviderInfo {
	return p.info
}

// IsHealthy checks if the provider is reachable
func (p *OpenAIProvider) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.client.ListModels(ctx)
	return err == nil
}
