package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentIsValid(t *testing.T) {
	for _, intent := range ValidIntents {
		assert.True(t, intent.IsValid(), string(intent))
	}

	// Orchestrator-assigned intents are outside the classifier's set
	assert.False(t, IntentConversational.IsValid())
	assert.False(t, IntentOfflineQA.IsValid())
	assert.False(t, IntentError.IsValid())
	assert.False(t, Intent("banana").IsValid())
}

func TestQueryHasImage(t *testing.T) {
	assert.False(t, (&Query{}).HasImage())
	assert.True(t, (&Query{ImagePath: "/tmp/leaf.jpg"}).HasImage())
}

func TestUserContextHasCoordinates(t *testing.T) {
	lat, lng := 28.6, 77.2

	assert.False(t, UserContext{}.HasCoordinates())
	assert.False(t, UserContext{Lat: &lat}.HasCoordinates())
	assert.True(t, UserContext{Lat: &lat, Lng: &lng}.HasCoordinates())
}

func TestEntitiesMergeContext(t *testing.T) {
	extracted := Entities{Crop: "Rice", Location: "Chennai", State: "Tamil Nadu", Disease: "blast"}

	merged := extracted.MergeContext(UserContext{Crop: "Wheat", State: "Punjab"})

	assert.Equal(t, "Wheat", merged.Crop)
	assert.Equal(t, "Punjab", merged.State)
	// Fields the caller left empty keep their extracted values
	assert.Equal(t, "Chennai", merged.Location)
	assert.Equal(t, "blast", merged.Disease)

	// Empty context changes nothing
	assert.Equal(t, extracted, extracted.MergeContext(UserContext{}))
}

func TestToolResultFailed(t *testing.T) {
	ok := ToolResult{Confidence: 0.8}
	failed := ToolResult{}

	assert.False(t, ok.Failed())
	assert.True(t, failed.Failed())
}
