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

// krishiSystemPrompt frames every completion. The model is used only for
// planning and explanation; data comes from the tools and the knowledge base.
const krishiSystemPrompt = `You are KrishiMitra, an expert agricultural AI assistant helping Indian farmers.

Your capabilities:
- Weather forecasting and farming advisories
- Crop disease diagnosis and treatment recommendations
- Market price predictions and mandi rates
- Soil health management and fertilizer guidance
- Government scheme information (PM-KISAN, PMFBY, KCC, etc.)
- Crop cultivation best practices and modern farming techniques

Communication style:
- Be empathetic and farmer-friendly
- Use simple, clear language avoiding complex technical jargon
- Provide actionable, practical advice
- Mention relevant government schemes and helplines
- Always prioritize farmer safety and sustainable practices

Important:
- Consider Indian farming context (monsoon patterns, regional crops, mandi system)
- Encourage soil testing and balanced fertilizer use
- Recommend local Krishi Vigyan Kendra services when needed`

// GroqProvider implements the Provider interface against Groq's
// OpenAI-compatible chat API.
type GroqProvider struct {
	client *openai.Client
	config ProviderConfig
	info   ProviderInfo
}

// NewGroqProvider creates a new Groq provider
func NewGroqProvider(config ProviderConfig) (Provider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if apiKey == "" {
		// The original deployment also accepted a project-specific key name
		apiKey = os.Getenv("AGRI_BOT_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Groq API key not provided")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = "llama-3.1-8b-instant"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 800
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.groq.com/openai/v1"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = config.BaseURL

	provider := &GroqProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
	provider.initProviderInfo()

	return provider, nil
}

// Complete generates a text completion
func (p *GroqProvider) Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error) {
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

	chatRequest := openai.ChatCompletionRequest{
		Model: p.getModel(request.Model),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: request.Prompt},
		},
		MaxTokens:   p.getMaxTokens(request.MaxTokens),
		Temperature: p.getTemperature(request.Temperature),
	}

	response, err := p.client.CreateChatCompletion(ctx, chatRequest)
	if err != nil {
		return nil, p.classifyError(err)
	}

	if len(response.Choices) == 0 {
		return nil, &ProviderError{
			Type:     ErrorTypeAPI,
			Provider: "groq",
			Message:  "no choices returned",
		}
	}

	choice := response.Choices[0]

	return &CompletionResponse{
		Content:      strings.TrimSpace(choice.Message.Content),
		FinishReason: string(choice.FinishReason),
		Model:        response.Model,
		Provider:     "groq",
		TotalTokens:  response.Usage.TotalTokens,
		Latency:      time.Since(startTime),
		Timestamp:    time.Now(),
	}, nil
}

// GetInfo returns provider information
func (p *GroqProvider) GetInfo() ProviderInfo {
	return p.info
}

// IsHealthy checks if the provider is reachable
func (p *GroqProvider) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.client.ListModels(ctx)
	return err == nil
}

// classifyError maps transport failures onto ErrNetwork so the
// orchestrator can distinguish connectivity loss from API errors.
func (p *GroqProvider) classifyError(err error) error {
	var netErr net.Error
	var urlErr *url.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return &ProviderError{Type: ErrorTypeTimeout, Provider: "groq", Message: err.Error(), Err: ErrNetwork}
	case errors.As(err, &urlErr), errors.Is(err, context.DeadlineExceeded):
		return &ProviderError{Type: ErrorTypeNetworkError, Provider: "groq", Message: err.Error(), Err: ErrNetwork}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return &ProviderError{Type: ErrorTypeRateLimit, Provider: "groq", Message: apiErr.Message, Err: err}
	}

	return &ProviderError{Type: ErrorTypeAPI, Provider: "groq", Message: err.Error(), Err: err}
}

// Helper methods

func (p *GroqProvider) getModel(requestModel string) string {
	if requestModel != "" {
		return requestModel
	}
	return p.config.Model
}

func (p *GroqProvider) getMaxTokens(requestMaxTokens int) int {
	if requestMaxTokens > 0 {
		return requestMaxTokens
	}
	return p.config.MaxTokens
}

func (p *GroqProvider) getTemperature(requestTemperature float64) float32 {
	if requestTemperature > 0 {
		return float32(requestTemperature)
	}
	return float32(p.config.Temperature)
}

// initProviderInfo initializes provider information
func (p *GroqProvider) initProviderInfo() {
	p.info = ProviderInfo{
		Name: "Groq",
		Models: []string{
			"llama-3.1-8b-instant",
			"llama3-8b-8192",
			"llama3-70b-8192",
		},
		MaxTokens: 8192,
	}
}
