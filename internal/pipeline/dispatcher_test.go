package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/krishimitra-assistant/internal/rag"
	"github.com/yourusername/krishimitra-assistant/models"
)

// fakeRetriever serves canned text per domain; the multi-domain walk is
// the real one.
type fakeRetriever struct {
	texts map[string]string
	err   error
}

func (f *fakeRetriever) RetrieveContext(ctx context.Context, query, domain string, k int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[domain], nil
}

func (f *fakeRetriever) RetrieveAcrossDomains(ctx context.Context, query string, domains []string, k int) (string, string) {
	return rag.AcrossDomains(ctx, f, query, domains, k)
}

type fakeWeather struct{ result models.ToolResult }

func (f *fakeWeather) GetWeather(ctx context.Context, location string, lat, lng *float64, crop string) models.ToolResult {
	f.result.Details = map[string]interface{}{"location": location}
	return f.result
}

func TestDispatchDiseaseWithoutImageAsksForOne(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, nil, nil, nil)

	result, err := d.Dispatch(context.Background(), models.IntentDisease, models.Entities{}, &models.Query{Text: "my crop is sick"})

	require.NoError(t, err)
	assert.Equal(t, "disease", result.Type)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Contains(t, result.Summary, "upload plant image")
	assert.NotEmpty(t, result.Advisory)
}

func TestDispatchSoilUsesKnowledgeBase(t *testing.T) {
	retriever := &fakeRetriever{texts: map[string]string{
		"soil_knowledge": "Maintain soil pH between 6.0 and 7.5 for most field crops.\nApply lime when pH drops below 5.5 in acidic soils.",
	}}
	d := NewDispatcher(nil, nil, nil, nil, retriever, nil, nil)

	result, err := d.Dispatch(context.Background(), models.IntentSoil, models.Entities{}, &models.Query{Text: "soil ph for wheat"})

	require.NoError(t, err)
	assert.Equal(t, "soil", result.Type)
	assert.Equal(t, 0.8, result.Confidence)
	assert.Equal(t, "Agricultural Knowledge Base (RAG)", result.Source)
	assert.Contains(t, result.Advisory[0], "Maintain soil pH")
}

func TestDispatchSoilFallbackWithoutRetriever(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, nil, nil, nil)

	result, err := d.Dispatch(context.Background(), models.IntentSoil, models.Entities{}, &models.Query{Text: "soil ph"})

	require.NoError(t, err)
	assert.Equal(t, 0.6, result.Confidence)
	assert.Equal(t, "General Agricultural Guidelines", result.Source)
}

func TestDispatchSchemeFallbackListsMajorSchemes(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, nil, nil, nil)

	result, err := d.Dispatch(context.Background(), models.IntentScheme, models.Entities{}, &models.Query{Text: "pm kisan details"})

	require.NoError(t, err)
	assert.Equal(t, "scheme", result.Type)
	assert.Equal(t, 0.7, result.Confidence)
	assert.Contains(t, result.Advisory[0], "PM-KISAN")
}

func TestDispatchGeneralDirectCallFailureReturnsError(t *testing.T) {
	client := &fakeLLM{err: errors.New("connection reset")}
	d := NewDispatcher(nil, nil, nil, nil, nil, client, nil)

	_, err := d.Dispatch(context.Background(), models.IntentGeneral, models.Entities{}, &models.Query{Text: "organic farming tips"})

	assert.Error(t, err)
}

func TestDispatchGeneralDirectCallSetsMessage(t *testing.T) {
	client := &fakeLLM{reply: "Organic farming improves soil health over time."}
	d := NewDispatcher(nil, nil, nil, nil, nil, client, nil)

	result, err := d.Dispatch(context.Background(), models.IntentGeneral, models.Entities{}, &models.Query{Text: "organic farming tips"})

	require.NoError(t, err)
	assert.Equal(t, "Organic farming improves soil health over time.", result.Message)
	assert.Equal(t, 0.6, result.Confidence)
}

func TestDispatchGeneralPrefersKnowledgeOverModel(t *testing.T) {
	retriever := &fakeRetriever{texts: map[string]string{
		"modern_farming": "Crop rotation with legumes restores nitrogen and breaks pest cycles in the field.",
	}}
	client := &fakeLLM{reply: "should not be used"}
	d := NewDispatcher(nil, nil, nil, nil, retriever, client, nil)

	result, err := d.Dispatch(context.Background(), models.IntentCropAdvice, models.Entities{}, &models.Query{Text: "crop rotation"})

	require.NoError(t, err)
	assert.Equal(t, 0, client.calls)
	assert.Equal(t, "crop_advice", result.Type)
	assert.Equal(t, "modern_farming", result.Details["domain"])
}

func TestDispatchWeatherDefaultsLocation(t *testing.T) {
	weather := &fakeWeather{result: models.ToolResult{Type: "weather"}}
	d := NewDispatcher(weather, nil, nil, nil, nil, nil, nil)

	result, err := d.Dispatch(context.Background(), models.IntentWeather, models.Entities{}, &models.Query{Text: "weather today"})

	require.NoError(t, err)
	assert.Equal(t, DefaultLocation, result.Details["location"])
}

func TestDispatchMissingToolDegrades(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, nil, nil, nil)

	for _, intent := range []models.Intent{models.IntentWeather, models.IntentMandiPrice, models.IntentMarketForecast} {
		result, err := d.Dispatch(context.Background(), intent, models.Entities{}, &models.Query{Text: "q"})
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.Confidence, string(intent))
		assert.Equal(t, GenericAdvisory, result.Advisory, string(intent))
	}
}

func TestAdvisoryLines(t *testing.T) {
	text := "short\n" +
		"Apply irrigation at the crown root initiation stage for wheat.\n" +
		"\n" +
		"Use certified seed treated with fungicide before sowing the crop.\n"

	lines := advisoryLines(text, nil)

	assert.Equal(t, []string{
		"Apply irrigation at the crown root initiation stage for wheat.",
		"Use certified seed treated with fungicide before sowing the crop.",
	}, lines)
}

func TestAdvisoryLinesFallback(t *testing.T) {
	fallback := []string{"default advice"}
	assert.Equal(t, fallback, advisoryLines("all\nshort\nlines", fallback))
}
