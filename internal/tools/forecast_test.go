package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForecastPriceSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Onion", r.URL.Query().Get("crop"))
		assert.Equal(t, "Maharashtra", r.URL.Query().Get("state"))
		w.Write([]byte(`{"predicted_price": 1850.50, "unit": "₹ per quintal", "horizon": "next day"}`))
	}))
	defer server.Close()

	f := NewForecastClient(server.URL)
	result := f.ForecastPrice(context.Background(), "Onion", "Maharashtra")

	assert.Equal(t, "market", result.Type)
	assert.Equal(t, 0.85, result.Confidence)
	assert.Equal(t, 1850.50, result.Details["predicted_price"])
	assert.Contains(t, result.Summary, "₹1850.50")
	assert.Contains(t, result.Advisory[0], "Good time to sell")
}

func TestForecastPriceDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Potato", r.URL.Query().Get("crop"))
		assert.Equal(t, "Punjab", r.URL.Query().Get("state"))
		w.Write([]byte(`{"predicted_price": 1200}`))
	}))
	defer server.Close()

	f := NewForecastClient(server.URL)
	result := f.ForecastPrice(context.Background(), "", "")

	assert.Equal(t, "₹ per quintal", result.Details["unit"])
	assert.Equal(t, "next day", result.Details["horizon"])
}

func TestForecastPriceServiceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewForecastClient(server.URL)
	result := f.ForecastPrice(context.Background(), "Potato", "Punjab")

	assert.Equal(t, 0.0, result.Confidence)
	assert.True(t, result.Failed())
	assert.Contains(t, result.Summary, "Failed to fetch price forecast")
}

func TestForecastAdvisoryBands(t *testing.T) {
	high := forecastAdvisory("Onion", "Maharashtra", 1600)
	assert.Contains(t, high[0], "Good time to sell")

	moderate := forecastAdvisory("Onion", "Maharashtra", 1000)
	assert.Contains(t, moderate[0], "Moderate prices")

	low := forecastAdvisory("Onion", "Maharashtra", 500)
	assert.Contains(t, low[0], "Low prices")
	assert.Contains(t, low[1], "holding stock")

	// Every band closes with the local-mandi reminder
	for _, advisory := range [][]string{high, moderate, low} {
		assert.Contains(t, advisory[len(advisory)-1], "Maharashtra")
	}
}
