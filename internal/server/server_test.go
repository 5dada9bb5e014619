package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitNonTrivialLines(t *testing.T) {
	text := "  PM-KISAN gives ₹6000 per year to farmers  \n" +
		"short\n" +
		"\n" +
		"\tKisan Credit Card offers low-interest crop loans\r\n" +
		"PMFBY insures crops against natural calamities\n" +
		"Soil health cards guide fertilizer application"

	lines := splitNonTrivialLines(text, 3)

	assert.Equal(t, []string{
		"PM-KISAN gives ₹6000 per year to farmers",
		"Kisan Credit Card offers low-interest crop loans",
		"PMFBY insures crops against natural calamities",
	}, lines)
}

func TestSplitNonTrivialLinesNothingUsable(t *testing.T) {
	assert.Empty(t, splitNonTrivialLines("short\n\n  also short  ", 5))
}
