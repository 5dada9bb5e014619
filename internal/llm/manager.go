package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Manager manages the language-model providers with fallback. The
// primary provider is tried first; fallbacks run in configured order.
// A provider that keeps failing is shut off by its circuit breaker.
type Manager struct {
	providers       map[string]Provider
	primaryProvider string
	fallbackOrder   []string
	config          ManagerConfig
	stats           map[string]*ProviderStats
	circuitBreakers map[string]*CircuitBreaker
	mu              sync.RWMutex
}

// NewManager creates a new LLM manager
func NewManager(config ProvidersConfig) (*Manager, error) {
	manager := &Manager{
		providers:       make(map[string]Provider),
		primaryProvider: config.Primary,
		fallbackOrder:   config.FallbackOrder,
		stats:           make(map[string]*ProviderStats),
		circuitBreakers: make(map[string]*CircuitBreaker),
		config: ManagerConfig{
			DefaultTimeout:          30 * time.Second,
			FallbackEnabled:         true,
			CircuitBreakerThreshold: 5,
		},
	}

	if config.Groq.APIKey != "" {
		groqProvider, err := NewGroqProvider(config.Groq)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Groq provider: %w", err)
		}
		manager.registerProvider("groq", groqProvider)
	}

	if config.OpenAI.APIKey != "" {
		openaiProvider, err := NewOpenAIProvider(config.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI provider: %w", err)
		}
		manager.registerProvider("openai", openaiProvider)
	}

	// Validate that primary provider exists
	if _, exists := manager.providers[manager.primaryProvider]; !exists {
		return nil, fmt.Errorf("primary provider '%s' not available", manager.primaryProvider)
	}

	return manager, nil
}

// registerProvider wires a provider with fresh stats and breaker state
func (m *Manager) registerProvider(name string, provider Provider) {
	m.providers[name] = provider
	m.stats[name] = &ProviderStats{}
	m.circuitBreakers[name] = &CircuitBreaker{
		State:     CircuitBreakerClosed,
		Threshold: m.config.CircuitBreakerThreshold,
	}
}

// Complete generates text using the primary provider with fallback
func (m *Manager) Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error) {
	response, err := m.completeWithProvider(ctx, m.primaryProvider, request)
	if err == nil {
		return response, nil
	}

	m.recordFailure(m.primaryProvider)

	if m.config.FallbackEnabled {
		for _, providerName := range m.fallbackOrder {
			if providerName == m.primaryProvider {
				continue // already tried
			}
			if !m.isProviderAvailable(providerName) {
				continue
			}

			response, fallbackErr := m.completeWithProvider(ctx, providerName, request)
			if fallbackErr == nil {
				return response, nil
			}
			m.recordFailure(providerName)
		}
	}

	// All providers failed; surface the primary's error so the caller
	// can inspect it for network failure.
	return nil, fmt.Errorf("all providers failed: %w", err)
}

// completeWithProvider generates text using a specific provider
func (m *Manager) completeWithProvider(ctx context.Context, providerName string, request *CompletionRequest) (*CompletionResponse, error) {
	if !m.breakerAllows(providerName) {
		return nil, fmt.Errorf("circuit breaker open for provider: %s", providerName)
	}

	provider, exists := m.providers[providerName]
	if !exists {
		return nil, fmt.Errorf("provider not found: %s", providerName)
	}

	if request.Timeout == 0 {
		request.Timeout = m.config.DefaultTimeout
	}

	response, err := provider.Complete(ctx, request)
	if err != nil {
		m.updateCircuitBreaker(providerName, false)
		return nil, err
	}

	m.updateCircuitBreaker(providerName, true)
	m.recordSuccess(providerName, response)

	return response, nil
}

// IsHealthy checks if the primary provider is reachable
func (m *Manager) IsHealthy(ctx context.Context) bool {
	m.mu.RLock()
	provider, exists := m.providers[m.primaryProvider]
	m.mu.RUnlock()

	if !exists {
		return false
	}
	return provider.IsHealthy(ctx)
}

// GetStats returns per-provider usage statistics
func (m *Manager) GetStats() map[string]ProviderStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]ProviderStats, len(m.stats))
	for name, s := range m.stats {
		stats[name] = *s
	}
	return stats
}

// GetPrimaryProvider returns the current primary provider name
func (m *Manager) GetPrimaryProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.primaryProvider
}

// Helper methods

// recordSuccess records a successful request
func (m *Manager) recordSuccess(providerName string, response *CompletionResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats[providerName]
	stats.TotalRequests++
	stats.SuccessfulRequests++
	stats.LastUsed = time.Now()

	if stats.TotalRequests > 0 {
		stats.ErrorRate = float64(stats.FailedRequests) / float64(stats.TotalRequests)
	}

	// Simple moving average
	if stats.TotalRequests == 1 {
		stats.AverageLatency = response.Latency
	} else {
		stats.AverageLatency = (stats.AverageLatency + response.Latency) / 2
	}
}

// recordFailure records a failed request
func (m *Manager) recordFailure(providerName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, exists := m.stats[providerName]
	if !exists {
		return
	}
	stats.TotalRequests++
	stats.FailedRequests++

	if stats.TotalRequests > 0 {
		stats.ErrorRate = float64(stats.FailedRequests) / float64(stats.TotalRequests)
	}
}

// isProviderAvailable checks if a provider is available
func (m *Manager) isProviderAvailable(providerName string) bool {
	m.mu.RLock()
	_, exists := m.providers[providerName]
	m.mu.RUnlock()

	return exists && m.breakerAllows(providerName)
}

// breakerAllows reports whether the provider's breaker permits a call.
// The Open to HalfOpen transition is a state write, so this needs the
// full lock, not a read lock.
func (m *Manager) breakerAllows(providerName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cb, exists := m.circuitBreakers[providerName]
	if !exists {
		return true
	}

	switch cb.State {
	case CircuitBreakerClosed:
		return true
	case CircuitBreakerHalfOpen:
		return time.Now().After(cb.NextRetryTime)
	case CircuitBreakerOpen:
		if time.Now().After(cb.NextRetryTime) {
			cb.State = CircuitBreakerHalfOpen
			return true
		}
		return false
	}

	return false
}

// updateCircuitBreaker updates circuit breaker state
func (m *Manager) updateCircuitBreaker(providerName string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cb, exists := m.circuitBreakers[providerName]
	if !exists {
		return
	}

	if success {
		cb.FailureCount = 0
		cb.State = CircuitBreakerClosed
	} else {
		cb.FailureCount++
		cb.LastFailureTime = time.Now()

		if cb.FailureCount >= cb.Threshold {
			cb.State = CircuitBreakerOpen
			cb.NextRetryTime = time.Now().Add(30 * time.Second)
		}
	}
}
