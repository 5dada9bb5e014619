// Why this file: ./internal/pipeline/refdata.go
// This holds the shared reference lists (crops, cities, states) used by the
// keyword fallbacks in the classifier and extractor. One copy, matched
// case-insensitively, so both fallbacks recognize the same vocabulary.
package pipeline

import "strings"

// Crops recognized by the keyword fallback extractor.
var Crops = []string{
	"potato", "onion", "wheat", "tomato", "rice", "maize", "pepper",
	"apple", "mango", "sugarcane", "cotton", "soybean", "groundnut",
	"mustard", "chickpea", "lentil", "banana", "grape", "orange",
}

// Cities and states recognized as locations. States appear here too
// because farmers often name only their state.
var Locations = []string{
	"delhi", "mumbai", "bangalore", "chennai", "kolkata", "hyderabad",
	"pune", "ahmedabad", "lucknow", "jaipur", "chandigarh", "ludhiana",
	"punjab", "haryana", "uttar pradesh", "maharashtra", "karnataka",
	"tamil nadu", "west bengal", "gujarat", "rajasthan", "bihar",
}

// States recognized by the keyword fallback extractor.
var States = []string{
	"punjab", "haryana", "uttar pradesh", "maharashtra", "karnataka",
	"tamil nadu", "west bengal", "gujarat", "rajasthan", "bihar",
	"madhya pradesh", "andhra pradesh", "telangana", "kerala",
}

// Conservative defaults used when the keyword lists miss. Location and
// state never come back empty; crop may.
const (
	DefaultLocation = "Delhi"
	DefaultState    = "Punjab"
)

// matchList returns the first list entry found as a substring of the
// query, title-cased, or "" when nothing matches.
func matchList(query string, list []string) string {
	q := strings.ToLower(query)
	for _, entry := range list {
		if strings.Contains(q, entry) {
			return titleCase(entry)
		}
	}
	return ""
}

// ExtractCropKeyword finds a crop name in the query, or "" when absent.
func ExtractCropKeyword(query string) string {
	return matchList(query, Crops)
}

// ExtractLocationKeyword finds a location in the query, defaulting to Delhi.
func ExtractLocationKeyword(query string) string {
	if loc := matchList(query, Locations); loc != "" {
		return loc
	}
	return DefaultLocation
}

// ExtractStateKeyword finds a state in the query, defaulting to Punjab.
func ExtractStateKeyword(query string) string {
	if state := matchList(query, States); state != "" {
		return state
	}
	return DefaultState
}

// titleCase uppercases the first letter of each space-separated word.
// strings.Title is deprecated and the reference lists are plain ASCII.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
