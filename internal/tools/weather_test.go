package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherAdvisoryRules(t *testing.T) {
	cases := []struct {
		name       string
		temp       float64
		humidity   int
		wind       float64
		rainChance int
		contains   string
	}{
		{"heavy rain", 25, 50, 5, 80, "Postpone spraying pesticides"},
		{"moderate rain", 25, 50, 5, 50, "Moderate rain expected"},
		{"heat", 38, 50, 5, 10, "heat stress"},
		{"cold", 8, 50, 5, 10, "Protect sensitive crops"},
		{"humid", 25, 85, 5, 10, "fungal diseases"},
		{"dry", 25, 20, 5, 10, "Low humidity"},
		{"windy", 25, 50, 25, 10, "Strong winds"},
	}
	for _, tc := range cases {
		advisory := weatherAdvisory(tc.temp, tc.humidity, tc.wind, tc.rainChance)
		joined := ""
		for _, a := range advisory {
			joined += a + " "
		}
		assert.Contains(t, joined, tc.contains, tc.name)
	}
}

func TestWeatherAdvisoryFavorableConditions(t *testing.T) {
	advisory := weatherAdvisory(25, 50, 5, 10)
	assert.Equal(t, []string{"Weather conditions are favorable for farming activities."}, advisory)
}

func TestCropAdvisory(t *testing.T) {
	// Wheat tolerates 10-25°C with ~50% ideal humidity
	hot := CropAdvisory("wheat", 30, 50)
	require.NotEmpty(t, hot)
	assert.Contains(t, hot[0], "High temperature may stress Wheat")

	cold := CropAdvisory("WHEAT", 5, 50)
	assert.Contains(t, cold[0], "Temperature too low for Wheat")

	ideal := CropAdvisory("rice", 28, 80)
	assert.Contains(t, ideal[0], "ideal for Rice")

	humid := CropAdvisory("wheat", 20, 75)
	assert.Contains(t, humid[1], "fungal diseases")

	assert.Nil(t, CropAdvisory("dragonfruit", 25, 50))
}

func TestGetWeatherSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Ludhiana,IN", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(`{
			"name": "Ludhiana",
			"main": {"temp": 31.4, "humidity": 55},
			"weather": [{"main": "Clear", "description": "clear sky"}],
			"wind": {"speed": 4.2},
			"clouds": {"all": 10}
		}`))
	}))
	defer server.Close()

	c := NewWeatherClient("test-key", server.URL)
	result := c.GetWeather(context.Background(), "Ludhiana", nil, nil, "wheat")

	assert.Equal(t, "weather", result.Type)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Contains(t, result.Summary, "Ludhiana")
	assert.Equal(t, 31.0, result.Details["temperature"])
	assert.Equal(t, 55, result.Details["humidity"])
	// Crop advisory appended: 31°C is above wheat's comfort band
	joined := ""
	for _, a := range result.Advisory {
		joined += a + " "
	}
	assert.Contains(t, joined, "Wheat")
}

func TestGetWeatherCoordinatesPreferred(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("lat"))
		assert.NotEmpty(t, r.URL.Query().Get("lon"))
		assert.Empty(t, r.URL.Query().Get("q"))
		w.Write([]byte(`{"name": "Delhi", "main": {"temp": 28, "humidity": 60}, "weather": [], "wind": {}, "clouds": {}}`))
	}))
	defer server.Close()

	lat, lng := 28.6, 77.2
	c := NewWeatherClient("test-key", server.URL)
	result := c.GetWeather(context.Background(), "Ludhiana", &lat, &lng, "")

	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, "Delhi", result.Details["location"])
}

func TestGetWeatherNoLocation(t *testing.T) {
	c := NewWeatherClient("test-key", "http://unused.invalid")
	result := c.GetWeather(context.Background(), "", nil, nil, "")

	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, "Location not provided", result.Summary)
}

func TestGetWeatherServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewWeatherClient("bad-key", server.URL)
	result := c.GetWeather(context.Background(), "Delhi", nil, nil, "")

	assert.Equal(t, 0.0, result.Confidence)
	assert.Contains(t, result.Summary, "Failed to fetch weather data")
	assert.NotEmpty(t, result.Advisory)
}
