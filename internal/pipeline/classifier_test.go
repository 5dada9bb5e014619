package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/krishimitra-assistant/internal/llm"
	"github.com/yourusername/krishimitra-assistant/models"
)

// fakeLLM scripts the pipeline's LLM collaborator for tests.
type fakeLLM struct {
	reply      string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	f.lastPrompt = req.Prompt
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

func TestClassifyUsesLLMReply(t *testing.T) {
	c := NewClassifier(&fakeLLM{reply: "mandi_price"})

	intent, usedLLM := c.Classify(context.Background(), "what is the rate of onion")

	assert.True(t, usedLLM)
	assert.Equal(t, models.IntentMandiPrice, intent)
}

func TestClassifyFallsBackOnLLMError(t *testing.T) {
	c := NewClassifier(&fakeLLM{err: errors.New("connection refused")})

	intent, usedLLM := c.Classify(context.Background(), "will it rain tomorrow in Pune")

	assert.False(t, usedLLM)
	assert.Equal(t, models.IntentWeather, intent)
}

func TestClassifyNilLLMUsesKeywords(t *testing.T) {
	c := NewClassifier(nil)

	intent, usedLLM := c.Classify(context.Background(), "soil ph for wheat")

	assert.False(t, usedLLM)
	assert.Equal(t, models.IntentSoil, intent)
}

func TestNormalizeIntent(t *testing.T) {
	cases := []struct {
		raw  string
		want models.Intent
	}{
		{"weather", models.IntentWeather},
		{" Disease \n", models.IntentDisease},
		{`"mandi_price"`, models.IntentMandiPrice},
		{"The category is market_forecast.", models.IntentMarketForecast},
		{"I think this is about soil health", models.IntentSoil},
		{"banana", models.IntentGeneral},
		{"", models.IntentGeneral},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeIntent(tc.raw), tc.raw)
	}
}

func TestClassifyByKeywordsPriorityOrder(t *testing.T) {
	cases := []struct {
		query string
		want  models.Intent
	}{
		// disease wins over everything else
		{"my wheat leaf has yellow spots and blight", models.IntentDisease},
		// mandi phrasing wins over forecast phrasing
		{"current mandi price forecast for tomorrow", models.IntentMandiPrice},
		{"what will be the price of potato next month", models.IntentMarketForecast},
		{"which fertilizer for low nutrient soil", models.IntentSoil},
		{"temperature in ludhiana this week", models.IntentWeather},
		{"tell me about organic farming", models.IntentGeneral},
		{"wholesale rate of onion today", models.IntentMandiPrice},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyByKeywords(tc.query), tc.query)
	}
}
