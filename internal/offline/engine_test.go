package offline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCorpus = `[
  {"question": "What is the best time to sow wheat in Punjab?", "answer": "Sow wheat from late October to mid November.", "source": "wheat_guide"},
  {"question": "How much water does rice need per season?", "answer": "Rice needs 1200-1400 mm of water per season.", "source": "rice_guide"},
  {"question": "How do I control aphids on mustard crop?", "answer": "Spray neem oil 2% in the evening.", "source": "pest_guide"},
  {"question": "What fertilizer dose suits potato cultivation?", "answer": "Apply 150-180 kg nitrogen per hectare."}
]`

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "offline_qa.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// memoryVectorStore fakes the sqlite vector cache.
type memoryVectorStore struct {
	hash    string
	payload string
	puts    int
}

func (m *memoryVectorStore) GetVectors(corpusHash string) (string, bool) {
	if corpusHash == m.hash && m.payload != "" {
		return m.payload, true
	}
	return "", false
}

func (m *memoryVectorStore) PutVectors(corpusHash, payload string) error {
	m.hash = corpusHash
	m.payload = payload
	m.puts++
	return nil
}

func TestEngineInitializeIsIdempotent(t *testing.T) {
	e := NewEngine(writeCorpus(t, testCorpus), nil, nil)

	require.NoError(t, e.Initialize())
	require.NoError(t, e.Initialize())

	status := e.Status()
	assert.True(t, status.Initialized)
	assert.True(t, status.CorpusFound)
	assert.Equal(t, 4, status.QAPairs)
}

func TestEngineInitializeMissingCorpus(t *testing.T) {
	e := NewEngine(filepath.Join(t.TempDir(), "nope.json"), nil, nil)

	assert.Error(t, e.Initialize())
	assert.False(t, e.Ready())
}

func TestEngineInitializeEmptyCorpus(t *testing.T) {
	e := NewEngine(writeCorpus(t, "[]"), nil, nil)

	assert.Error(t, e.Initialize())
}

func TestEngineVectorCacheRoundTrip(t *testing.T) {
	path := writeCorpus(t, testCorpus)
	store := &memoryVectorStore{}

	first := NewEngine(path, store, nil)
	require.NoError(t, first.Initialize())
	assert.Equal(t, 1, store.puts)

	// Second engine over the same corpus restores from the cache
	// instead of vectorizing again.
	second := NewEngine(path, store, nil)
	require.NoError(t, second.Initialize())
	assert.Equal(t, 1, store.puts)

	matches := second.Search("when to sow wheat in punjab", 1)
	require.Len(t, matches, 1)
	assert.Equal(t, "Sow wheat from late October to mid November.", matches[0].Answer)
}

func TestEngineSearchRanksBySimilarity(t *testing.T) {
	e := NewEngine(writeCorpus(t, testCorpus), nil, nil)

	matches := e.Search("how much water does rice need", 3)

	require.NotEmpty(t, matches)
	assert.Equal(t, "rice_guide", matches[0].Source)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Confidence, matches[i].Confidence)
	}
}

func TestEngineGetAnswerGoodMatch(t *testing.T) {
	e := NewEngine(writeCorpus(t, testCorpus), nil, nil)

	result := e.GetAnswer("best time to sow wheat in punjab")

	assert.Equal(t, "offline", result.Type)
	assert.Greater(t, result.Confidence, LowConfidenceThreshold)
	assert.Equal(t, "Sow wheat from late October to mid November.", result.Message)
	assert.Equal(t, "Offline KB - wheat_guide", result.Source)
	assert.Contains(t, result.Details, "top_matches")
}

func TestEngineGetAnswerPartialMatch(t *testing.T) {
	e := NewEngine(writeCorpus(t, testCorpus), nil, nil)

	// One shared word ("crop") gives a weak overlap, below the
	// confidence threshold but above zero.
	result := e.GetAnswer("which crop gives profit in summer trade markets overseas abroad")

	assert.Greater(t, result.Confidence, 0.0)
	assert.Less(t, result.Confidence, LowConfidenceThreshold)
	assert.Contains(t, result.Message, "मुझे पूरा यकीन नहीं है")
}

func TestEngineGetAnswerNoMatch(t *testing.T) {
	e := NewEngine(writeCorpus(t, testCorpus), nil, nil)

	result := e.GetAnswer("quantum computing tutorials")

	assert.Equal(t, 0.0, result.Confidence)
	assert.Contains(t, result.Message, "Sorry, I couldn't find an answer")
}

func TestEngineInvalidateForcesReload(t *testing.T) {
	path := writeCorpus(t, testCorpus)
	e := NewEngine(path, nil, nil)
	require.NoError(t, e.Initialize())

	smaller := `[{"question": "only one question remains here", "answer": "one answer"}]`
	require.NoError(t, os.WriteFile(path, []byte(smaller), 0o644))

	e.Invalidate()
	assert.False(t, e.Ready())

	require.NoError(t, e.Initialize())
	assert.Equal(t, 1, e.Status().QAPairs)
}

func TestQAPairSourceLabel(t *testing.T) {
	assert.Equal(t, "wheat_guide", QAPair{Source: "wheat_guide"}.SourceLabel())
	assert.Equal(t, "offline_kb", QAPair{}.SourceLabel())
}
