package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNetwork indicates the provider was unreachable. The caller decides
// the fallback; providers never retry internally.
var ErrNetwork = errors.New("llm: network unreachable")

// Provider interface that all language-model providers must implement
type Provider interface {
	// Complete generates a text completion for the prompt
	Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error)

	// GetInfo returns provider information
	GetInfo() ProviderInfo

	// IsHealthy checks if the provider is reachable
	IsHealthy(ctx context.Context) bool
}

// CompletionRequest represents a request for text generation
type CompletionRequest struct {
	Prompt       string        `json:"prompt"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	Model        string        `json:"model,omitempty"`
	MaxTokens    int           `json:"max_tokens,omitempty"`
	Temperature  float64       `json:"temperature,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"`
}

// CompletionResponse represents a response from text generation
type CompletionResponse struct {
	Content      string        `json:"content"`
	FinishReason string        `json:"finish_reason"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider"`
	TotalTokens  int           `json:"total_tokens"`
	Latency      time.Duration `json:"latency"`
	Timestamp    time.Time     `json:"timestamp"`
}

// ProviderConfig holds configuration for a provider
type ProviderConfig struct {
	APIKey      string        `json:"api_key" yaml:"api_key"`
	BaseURL     string        `json:"base_url" yaml:"base_url"`
	Model       string        `json:"model" yaml:"model"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens"`
	Temperature float64       `json:"temperature" yaml:"temperature"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// ProviderInfo holds information about a provider
type ProviderInfo struct {
	Name      string   `json:"name"`
	Models    []string `json:"models"`
	MaxTokens int      `json:"max_tokens"`
}

// ProvidersConfig holds configuration for all providers
type ProvidersConfig struct {
	Primary       string         `json:"primary" yaml:"primary"`
	FallbackOrder []string       `json:"fallback_order" yaml:"fallback_order"`
	Groq          ProviderConfig `json:"groq" yaml:"groq"`
	OpenAI        ProviderConfig `json:"openai" yaml:"openai"`
}

// ManagerConfig holds configuration for the LLM manager
type ManagerConfig struct {
	DefaultTimeout          time.Duration `json:"default_timeout" yaml:"default_timeout"`
	FallbackEnabled         bool          `json:"fallback_enabled" yaml:"fallback_enabled"`
	CircuitBreakerThreshold int           `json:"circuit_breaker_threshold" yaml:"circuit_breaker_threshold"`
}

// ProviderStats holds statistics for a provider
type ProviderStats struct {
	TotalRequests      int64         `json:"total_requests"`
	SuccessfulRequests int64         `json:"successful_requests"`
	FailedRequests     int64         `json:"failed_requests"`
	AverageLatency     time.Duration `json:"average_latency"`
	LastUsed           time.Time     `json:"last_used"`
	ErrorRate          float64       `json:"error_rate"`
}

// ErrorType represents different types of provider errors
type ErrorType string

const (
	ErrorTypeAPI          ErrorType = "api_error"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeNetworkError ErrorType = "network_error"
)

// ProviderError represents an error from a provider
type ProviderError struct {
	Type     ErrorType `json:"type"`
	Provider string    `json:"provider"`
	Message  string    `json:"message"`
	Err      error     `json:"-"`
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error from %s: %s", e.Type, e.Provider, e.Message)
}

// Unwrap exposes the wrapped error so errors.Is(err, ErrNetwork) works
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState string

const (
	CircuitBreakerClosed   CircuitBreakerState = "closed"
	CircuitBreakerOpen     CircuitBreakerState = "open"
	CircuitBreakerHalfOpen CircuitBreakerState = "half_open"
)

// CircuitBreaker represents a circuit breaker for a provider
type CircuitBreaker struct {
	State           CircuitBreakerState `json:"state"`
	FailureCount    int                 `json:"failure_count"`
	LastFailureTime time.Time           `json:"last_failure_time"`
	NextRetryTime   time.Time           `json:"next_retry_time"`
	Threshold       int                 `json:"threshold"`
}
