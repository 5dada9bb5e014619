// Why this file: ./internal/pipeline/cleaner.go
// This implements the data cleaning rule shared by the dispatcher and the
// synthesizer. Upstream knowledge sources interleave structured debug data
// with prose; the response contract guarantees only natural language ever
// reaches the farmer, so raw machine output is stripped here.
package pipeline

import "strings"

// advisoryDenyList marks strings as raw machine output: internal field
// names, dataset fragments, MCQ text and similar.
var advisoryDenyList = []string{
	"crop_", "recommendationengine", "json", ".csv", "kg/ha",
	"weather_information", "_02", "_01", "suitability",
	"temp [", "rainfall [", "humidity [", "answer:", "mcq",
	"general knowledge", "reasoning:", "scheme knowledge",
	"agricultural extension", "this relates to", "education",
	"pradhan mantri matru", "pmmvy", "pregnant women",
	"2025-12", "en agricultural", "question:", "yojana (",
}

// GenericAdvisory is the always-safe fallback substituted when cleaning
// empties an advisory list.
var GenericAdvisory = []string{
	"Get soil tested at local Krishi Vigyan Kendra",
	"Follow recommended practices for your region",
	"Call farmer helpline: 1800-180-1551 for guidance",
}

// CleanAdvisory filters an advisory list down to human-readable advice.
// At most the first 5 entries are considered; each survivor is truncated
// to 150 characters. The operation is idempotent: cleaning a cleaned
// list returns it unchanged. An emptied list is replaced with
// GenericAdvisory.
func CleanAdvisory(advisory []string) []string {
	limit := len(advisory)
	if limit > 5 {
		limit = 5
	}

	cleaned := make([]string, 0, limit)
	for _, item := range advisory[:limit] {
		text := strings.TrimSpace(item)
		if text == "" {
			continue
		}
		if !cleanText(text) {
			continue
		}
		text = strings.TrimSpace(text[:min(len(text), 150)])
		if text == "" || strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
			continue
		}
		cleaned = append(cleaned, text)
	}

	if len(cleaned) == 0 {
		return GenericAdvisory
	}
	return cleaned
}

// CleanSummary reports whether a summary string is safe to show.
func CleanSummary(summary string) bool {
	if summary == "" {
		return false
	}
	lower := strings.ToLower(summary)
	for _, deny := range []string{"kg/ha", "temp [", "rainfall ["} {
		if strings.Contains(lower, deny) {
			return false
		}
	}
	return true
}

// cleanText reports whether a single advisory string looks like prose
// rather than raw data.
func cleanText(text string) bool {
	lower := strings.ToLower(text)
	for _, deny := range advisoryDenyList {
		if strings.Contains(lower, deny) {
			return false
		}
	}

	// Too short, or shaped like a technical identifier
	if len(text) < 15 || strings.Count(text, "_") > 2 {
		return false
	}

	// Bracketed ranges and dense key:value runs mark raw data
	if strings.Count(text, "[") > 1 || strings.Count(text, "]") > 1 || strings.Count(text, ":") > 3 {
		return false
	}

	return true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
