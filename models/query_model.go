// Why this file: ./models/query_model.go
// This defines the data structures for farmer queries: the immutable query itself,
// the caller-supplied context (location, crop, coordinates, language), extracted
// entities, and the closed intent set that drives tool routing.

package models

import (
	"time"
)

// Intent represents the single coarse category assigned to a query.
type Intent string

const (
	IntentWeather        Intent = "weather"
	IntentDisease        Intent = "disease"
	IntentMarketForecast Intent = "market_forecast"
	IntentMandiPrice     Intent = "mandi_price"
	IntentSoil           Intent = "soil"
	IntentScheme         Intent = "scheme"
	IntentCropAdvice     Intent = "crop_advice"
	IntentGeneral        Intent = "general"
	IntentConversational Intent = "conversational"
	IntentOfflineQA      Intent = "offline_qa"
	IntentError          Intent = "error"
)

// ValidIntents is the closed set the classifier normalizes against.
// Conversational and error intents are assigned by the orchestrator,
// never by the classifier itself.
var ValidIntents = []Intent{
	IntentWeather,
	IntentDisease,
	IntentMarketForecast,
	IntentMandiPrice,
	IntentSoil,
	IntentScheme,
	IntentCropAdvice,
	IntentGeneral,
}

// IsValid reports whether the intent belongs to the classifier's closed set.
func (i Intent) IsValid() bool {
	for _, v := range ValidIntents {
		if i == v {
			return true
		}
	}
	return false
}

// Query represents a single farmer question. It is created once per
// request and never mutated by the pipeline.
type Query struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	ImagePath string      `json:"image_path,omitempty"`
	Context   UserContext `json:"context"`
	Timestamp time.Time   `json:"timestamp"`
}

// HasImage reports whether the query carries an image reference for
// disease detection.
func (q *Query) HasImage() bool {
	return q.ImagePath != ""
}

// UserContext holds caller-supplied context. Any non-empty field takes
// precedence over the corresponding extracted entity.
type UserContext struct {
	Crop     string   `json:"crop,omitempty"`
	Location string   `json:"location,omitempty"`
	State    string   `json:"state,omitempty"`
	Language string   `json:"language,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	Units    string   `json:"units,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude were supplied.
func (c UserContext) HasCoordinates() bool {
	return c.Lat != nil && c.Lng != nil
}

// Entities holds the semantic slots extracted from a query. An empty
// string means the slot is absent; no placeholder values are stored.
type Entities struct {
	Crop     string `json:"crop,omitempty"`
	Location string `json:"location,omitempty"`
	State    string `json:"state,omitempty"`
	District string `json:"district,omitempty"`
	Disease  string `json:"disease,omitempty"`
}

// MergeContext overlays caller-supplied context on top of extracted
// entities. Caller values win field by field.
func (e Entities) MergeContext(ctx UserContext) Entities {
	merged := e
	if ctx.Crop != "" {
		merged.Crop = ctx.Crop
	}
	if ctx.Location != "" {
		merged.Location = ctx.Location
	}
	if ctx.State != "" {
		merged.State = ctx.State
	}
	return merged
}
