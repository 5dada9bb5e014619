// Why this file: ./internal/tools/weather.go
// This fetches current weather from OpenWeatherMap and turns it into a
// farming-oriented ToolResult: temperature/humidity/wind readings plus a
// rule-based advisory, and crop-specific guidance when a crop is known.
package tools

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/krishimitra-assistant/models"
)

// WeatherClient calls the OpenWeatherMap current-weather API.
type WeatherClient struct {
	apiKey  string
	baseURL string
	timeout time.Duration
}

// NewWeatherClient creates a weather client.
func NewWeatherClient(apiKey, baseURL string) *WeatherClient {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	return &WeatherClient{apiKey: apiKey, baseURL: baseURL, timeout: 10 * time.Second}
}

type weatherAPIResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
}

// GetWeather fetches current weather. Coordinates are preferred over the
// location name when both are present. crop may be empty; when set, a
// crop-specific advisory is appended.
func (w *WeatherClient) GetWeather(ctx context.Context, location string, lat, lng *float64, crop string) models.ToolResult {
	params := url.Values{}
	params.Set("appid", w.apiKey)
	params.Set("units", "metric")

	switch {
	case lat != nil && lng != nil:
		params.Set("lat", fmt.Sprintf("%f", *lat))
		params.Set("lon", fmt.Sprintf("%f", *lng))
	case location != "":
		params.Set("q", location+",IN")
	default:
		return models.ToolResult{
			Type:       "weather",
			Summary:    "Location not provided",
			Details:    map[string]interface{}{"error": "Either location name or lat/lng coordinates are required"},
			Advisory:   []string{"Please provide your location for weather information"},
			Confidence: 0,
			Source:     "OpenWeatherMap API",
		}
	}

	var data weatherAPIResponse
	if err := getJSON(ctx, "weather", w.baseURL, params, w.timeout, &data); err != nil {
		return models.ToolResult{
			Type:       "weather",
			Summary:    fmt.Sprintf("Failed to fetch weather data for %s", location),
			Details:    map[string]interface{}{"error": err.Error()},
			Advisory:   []string{"Check internet connection and try again"},
			Confidence: 0,
			Source:     "OpenWeatherMap API",
		}
	}

	temp := math.Round(data.Main.Temp)
	humidity := data.Main.Humidity
	wind := math.Round(data.Wind.Speed)
	rainChance := data.Clouds.All

	condition, description := "Clear", ""
	if len(data.Weather) > 0 {
		condition = data.Weather[0].Main
		description = data.Weather[0].Description
	}

	advisory := weatherAdvisory(temp, humidity, wind, rainChance)
	if crop != "" {
		advisory = append(advisory, CropAdvisory(crop, temp, float64(humidity))...)
	}

	return models.ToolResult{
		Type:    "weather",
		Summary: fmt.Sprintf("%s in %s: %.0f°C, %d%% humidity, %s", condition, data.Name, temp, humidity, description),
		Details: map[string]interface{}{
			"location":         data.Name,
			"temperature":      temp,
			"humidity":         humidity,
			"condition":        condition,
			"description":      description,
			"wind_speed":       wind,
			"rain_probability": rainChance,
		},
		Advisory:   advisory,
		Confidence: 1.0,
		Source:     "OpenWeatherMap API",
	}
}

// weatherAdvisory derives farming advice from current conditions.
func weatherAdvisory(temp float64, humidity int, wind float64, rainChance int) []string {
	var advisory []string

	if rainChance > 70 {
		advisory = append(advisory,
			"High chance of rain. Postpone spraying pesticides.",
			"Ensure proper drainage in fields.")
	} else if rainChance > 40 {
		advisory = append(advisory, "Moderate rain expected. Plan irrigation accordingly.")
	}

	if temp > 35 {
		advisory = append(advisory,
			"High temperature. Increase irrigation frequency.",
			"Monitor crops for heat stress.")
	} else if temp < 10 {
		advisory = append(advisory, "Low temperature. Protect sensitive crops from cold.")
	}

	if humidity > 80 {
		advisory = append(advisory, "High humidity. Monitor for fungal diseases.")
	} else if humidity < 30 {
		advisory = append(advisory, "Low humidity. Increase irrigation.")
	}

	if wind > 20 {
		advisory = append(advisory, "Strong winds. Secure crop covers and structures.")
	}

	if len(advisory) == 0 {
		advisory = append(advisory, "Weather conditions are favorable for farming activities.")
	}
	return advisory
}

// cropConditions holds the comfortable temperature band and ideal
// humidity for the major crops.
var cropConditions = map[string]struct {
	tempMin, tempMax, humidityIdeal float64
}{
	"wheat":     {10, 25, 50},
	"rice":      {20, 35, 80},
	"cotton":    {21, 30, 60},
	"sugarcane": {20, 32, 70},
	"maize":     {18, 32, 60},
	"soybean":   {20, 30, 65},
}

// CropAdvisory returns crop-specific guidance for the current weather.
// Unknown crops yield no advisory.
func CropAdvisory(crop string, temp, humidity float64) []string {
	cond, ok := cropConditions[strings.ToLower(crop)]
	if !ok {
		return nil
	}

	name := strings.ToUpper(crop[:1]) + strings.ToLower(crop[1:])
	var advisory []string

	switch {
	case temp < cond.tempMin:
		advisory = append(advisory, fmt.Sprintf("Temperature too low for %s. Consider protective measures.", name))
	case temp > cond.tempMax:
		advisory = append(advisory, fmt.Sprintf("High temperature may stress %s. Increase irrigation.", name))
	default:
		advisory = append(advisory, fmt.Sprintf("Temperature is ideal for %s growth.", name))
	}

	switch {
	case humidity > cond.humidityIdeal+20:
		advisory = append(advisory, fmt.Sprintf("High humidity - monitor %s for fungal diseases.", name))
	case humidity < cond.humidityIdeal-20:
		advisory = append(advisory, fmt.Sprintf("Low humidity - consider additional irrigation for %s.", name))
	}

	return advisory
}
