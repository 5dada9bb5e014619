// Why this file: ./internal/pipeline/classifier.go
// This assigns one intent from the closed set to every query. Primary path is
// a single LLM call with a fixed instruction; fallback is a deterministic
// keyword scan in priority order. Classification never fails - it always
// resolves to a valid intent.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourusername/krishimitra-assistant/internal/llm"
	"github.com/yourusername/krishimitra-assistant/models"
)

// LLMClient is the slice of the LLM manager the pipeline needs.
type LLMClient interface {
	Complete(ctx context.Context, request *llm.CompletionRequest) (*llm.CompletionResponse, error)
}

const classifyPrompt = `Classify this agricultural query into ONE category.

Query: "%s"

Categories:
- weather: Questions about weather, rain, temperature, climate
- disease: Questions about plant diseases, crop problems, leaf issues, pests
- market_forecast: Questions about future crop prices, price predictions
- mandi_price: Questions about current mandi rates, today's prices, wholesale rates
- soil: Questions about soil health, fertilizers, nutrients, pH
- scheme: Questions about government schemes, subsidies, PM-KISAN, PMFBY
- crop_advice: Questions about farming practices, cultivation, irrigation
- general: Any other agricultural questions

Reply with ONLY the category name (one word):`

// Classifier assigns intents to queries.
type Classifier struct {
	llm LLMClient
}

// NewClassifier creates an intent classifier backed by the given LLM.
func NewClassifier(client LLMClient) *Classifier {
	return &Classifier{llm: client}
}

// Classify returns the query's intent. When the LLM call fails for any
// reason it falls back to keyword classification; the returned bool is
// false when the fallback was used.
func (c *Classifier) Classify(ctx context.Context, query string) (models.Intent, bool) {
	if c.llm != nil {
		resp, err := c.llm.Complete(ctx, &llm.CompletionRequest{
			Prompt:      fmt.Sprintf(classifyPrompt, query),
			MaxTokens:   10,
			Temperature: 0,
		})
		if err == nil {
			return normalizeIntent(resp.Content), true
		}
	}
	return ClassifyByKeywords(query), false
}

// normalizeIntent maps a raw model reply onto the closed intent set:
// lowercase, strip quotes, exact match, then substring match, then general.
func normalizeIntent(raw string) models.Intent {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, `"'`)

	if intent := models.Intent(label); intent.IsValid() {
		return intent
	}
	for _, valid := range models.ValidIntents {
		if strings.Contains(label, string(valid)) {
			return valid
		}
	}
	return models.IntentGeneral
}

// Keyword tables for the deterministic fallback. Evaluated in priority
// order: disease first, then mandi/current-price before forecast
// ("price" queries are ambiguous and current-price phrasing is more
// specific), then forecast, soil, weather, and finally general.
var (
	diseaseKeywords  = []string{"disease", "leaf", "spot", "blight", "infection"}
	mandiKeywords    = []string{"mandi", "apmc", "wholesale", "current price", "today's price", "latest price"}
	forecastKeywords = []string{"price forecast", "will be", "next month", "future price", "predict"}
	soilKeywords     = []string{"soil", "ph", "fertilizer", "nutrient"}
	weatherKeywords  = []string{"weather", "rain", "temperature"}
)

// ClassifyByKeywords is the deterministic fallback classifier.
func ClassifyByKeywords(query string) models.Intent {
	q := strings.ToLower(query)

	if containsAny(q, diseaseKeywords) {
		return models.IntentDisease
	}
	if containsAny(q, mandiKeywords) {
		return models.IntentMandiPrice
	}
	if containsAny(q, forecastKeywords) {
		return models.IntentMarketForecast
	}
	if containsAny(q, soilKeywords) {
		return models.IntentSoil
	}
	if containsAny(q, weatherKeywords) {
		return models.IntentWeather
	}
	return models.IntentGeneral
}

func containsAny(q string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
