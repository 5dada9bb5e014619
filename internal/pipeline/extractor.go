// Why this file: ./internal/pipeline/extractor.go
// This pulls the semantic slots (crop, location, state, district, disease)
// out of a query. Primary path is one LLM call returning a JSON mapping;
// fallback is keyword lookup against the shared reference lists. Location
// and state always resolve to something; crop may stay absent.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourusername/krishimitra-assistant/internal/llm"
	"github.com/yourusername/krishimitra-assistant/models"
)

const extractPrompt = `Extract entities from this agricultural query.

Query: "%s"

Return ONLY a JSON object with these exact keys (use null for missing values):
{"crop": ..., "location": ..., "state": ..., "district": ..., "disease": ..., "intent": ...}

JSON:`

// Extractor pulls entities from queries.
type Extractor struct {
	llm LLMClient
}

// NewExtractor creates an entity extractor backed by the given LLM.
func NewExtractor(client LLMClient) *Extractor {
	return &Extractor{llm: client}
}

// Extract returns the query's entities merged with caller context
// (caller values win field by field). The LLM path is tried first; any
// call or parse failure drops to keyword extraction.
func (e *Extractor) Extract(ctx context.Context, query string, userCtx models.UserContext) models.Entities {
	entities, ok := e.extractWithLLM(ctx, query)
	if !ok {
		entities = ExtractByKeywords(query)
	}

	// Backfill slots the model left empty before merging context, so
	// location/state never come back absent.
	if entities.Location == "" {
		entities.Location = ExtractLocationKeyword(query)
	}
	if entities.State == "" {
		entities.State = ExtractStateKeyword(query)
	}
	if entities.Crop == "" {
		entities.Crop = ExtractCropKeyword(query)
	}

	return entities.MergeContext(userCtx)
}

func (e *Extractor) extractWithLLM(ctx context.Context, query string) (models.Entities, bool) {
	if e.llm == nil {
		return models.Entities{}, false
	}

	resp, err := e.llm.Complete(ctx, &llm.CompletionRequest{
		Prompt:      fmt.Sprintf(extractPrompt, query),
		MaxTokens:   120,
		Temperature: 0,
	})
	if err != nil {
		return models.Entities{}, false
	}

	parsed, err := parseEntityJSON(resp.Content)
	if err != nil {
		return models.Entities{}, false
	}
	return parsed, true
}

// parseEntityJSON extracts the first JSON object from a model reply.
// Models wrap JSON in prose or code fences often enough that a plain
// Unmarshal of the whole reply is not reliable.
func parseEntityJSON(raw string) (models.Entities, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return models.Entities{}, fmt.Errorf("no JSON object in reply")
	}

	// The prompt asks for an intent key too, but the classifier owns
	// intent; whatever the extractor's model call says is discarded.
	var fields struct {
		Crop     *string `json:"crop"`
		Location *string `json:"location"`
		State    *string `json:"state"`
		District *string `json:"district"`
		Disease  *string `json:"disease"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return models.Entities{}, fmt.Errorf("parse entity JSON: %w", err)
	}

	return models.Entities{
		Crop:     deref(fields.Crop),
		Location: deref(fields.Location),
		State:    deref(fields.State),
		District: deref(fields.District),
		Disease:  deref(fields.Disease),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
		return ""
	}
	return v
}

// ExtractByKeywords is the deterministic fallback extractor.
func ExtractByKeywords(query string) models.Entities {
	return models.Entities{
		Crop:     ExtractCropKeyword(query),
		Location: ExtractLocationKeyword(query),
		State:    ExtractStateKeyword(query),
	}
}
