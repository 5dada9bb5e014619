// Why this file: ./internal/offline/similarity.go
// This implements the offline similarity measure: normalized
// term-frequency vectors over question text, compared by cosine. No
// model downloads, no network - the whole point of the offline engine.
package offline

import (
	"math"
	"strings"
	"unicode"
)

// TermVector is a sparse normalized term-frequency vector.
type TermVector map[string]float64

// Tokenize lowercases the text and splits it on anything that is not
// part of a word. Combining marks stay inside tokens: Devanagari vowel
// signs (matras) are category Mn/Mc, not letters, and splitting on them
// would shatter every Hindi word.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			!unicode.Is(unicode.Mn, r) && !unicode.Is(unicode.Mc, r)
	})
}

// NewTermVector builds a unit-length term-frequency vector for a text.
func NewTermVector(text string) TermVector {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return TermVector{}
	}

	vec := make(TermVector, len(tokens))
	for _, tok := range tokens {
		vec[tok]++
	}

	var norm float64
	for _, count := range vec {
		norm += count * count
	}
	norm = math.Sqrt(norm)
	for tok := range vec {
		vec[tok] /= norm
	}
	return vec
}

// Cosine returns the cosine similarity of two term vectors. Both are
// unit length, so this is just the dot product over shared terms.
func Cosine(a, b TermVector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for tok, av := range a {
		if bv, ok := b[tok]; ok {
			dot += av * bv
		}
	}
	return dot
}
