package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// domainSource serves canned text per domain and records the walk order.
type domainSource struct {
	texts  map[string]string
	errs   map[string]error
	walked []string
}

func (s *domainSource) RetrieveContext(ctx context.Context, query, domain string, k int) (string, error) {
	s.walked = append(s.walked, domain)
	if err, ok := s.errs[domain]; ok {
		return "", err
	}
	return s.texts[domain], nil
}

func longText(topic string) string {
	return strings.Repeat(topic+" guidance for the season. ", 4)
}

func TestAcrossDomainsReturnsFirstUsableDomain(t *testing.T) {
	source := &domainSource{texts: map[string]string{
		"soil_interpretation": longText("soil pH"),
		"soil_knowledge":      longText("fertilizer"),
	}}

	text, domain := AcrossDomains(context.Background(), source,
		"soil health", []string{"soil_interpretation", "soil_knowledge"}, 3)

	assert.Equal(t, "soil_interpretation", domain)
	assert.Contains(t, text, "soil pH")
	// The first hit stops the walk
	assert.Equal(t, []string{"soil_interpretation"}, source.walked)
}

func TestAcrossDomainsShortTextAdvancesToNextDomain(t *testing.T) {
	source := &domainSource{texts: map[string]string{
		"crop_recommendation": "too short",
		"modern_farming":      "   " + strings.Repeat(" ", 60), // whitespace does not count
		"organic_farming":     longText("compost"),
	}}

	text, domain := AcrossDomains(context.Background(), source,
		"organic inputs", []string{"crop_recommendation", "modern_farming", "organic_farming"}, 3)

	assert.Equal(t, "organic_farming", domain)
	assert.Contains(t, text, "compost")
	assert.Equal(t, []string{"crop_recommendation", "modern_farming", "organic_farming"}, source.walked)
}

func TestAcrossDomainsSkipsFailingDomains(t *testing.T) {
	source := &domainSource{
		errs:  map[string]error{"govt_schemes": errors.New("search timeout")},
		texts: map[string]string{"general_agri": longText("schemes")},
	}

	text, domain := AcrossDomains(context.Background(), source,
		"subsidy", []string{"govt_schemes", "general_agri"}, 3)

	assert.Equal(t, "general_agri", domain)
	assert.NotEmpty(t, text)
}

func TestAcrossDomainsAllDomainsUnusable(t *testing.T) {
	source := &domainSource{
		errs:  map[string]error{"soil_interpretation": errors.New("down")},
		texts: map[string]string{"soil_knowledge": "thin"},
	}

	text, domain := AcrossDomains(context.Background(), source,
		"soil", []string{"soil_interpretation", "soil_knowledge"}, 3)

	assert.Empty(t, text)
	assert.Empty(t, domain)
}
