// Why this file: ./internal/offline/engine.go
// This is the offline answer engine: similarity search over the static QA
// corpus. Initialization is lazy and idempotent; term vectors are cached
// in sqlite keyed by the corpus fingerprint so later starts skip the
// vectorization pass. Every answer is a complete ToolResult.
package offline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/yourusername/krishimitra-assistant/models"
)

// LowConfidenceThreshold is the score below which the best match is
// still returned, but flagged as a partial match.
const LowConfidenceThreshold = 0.25

// VectorStore caches computed term vectors across restarts.
// Implemented by storage.SQLiteDB.
type VectorStore interface {
	GetVectors(corpusHash string) (payload string, ok bool)
	PutVectors(corpusHash, payload string) error
}

// Match is one similarity hit against the corpus.
type Match struct {
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// Status describes the engine's readiness.
type Status struct {
	Initialized bool   `json:"initialized"`
	CorpusPath  string `json:"data_path"`
	CorpusFound bool   `json:"data_exists"`
	QAPairs     int    `json:"qa_pairs"`
}

// Engine answers queries from the static corpus without any network.
type Engine struct {
	corpusPath string
	store      VectorStore
	logger     *zap.Logger

	mu      sync.Mutex
	ready   bool
	pairs   []QAPair
	vectors []TermVector
}

// NewEngine creates an offline engine. store may be nil; vectors are
// then rebuilt on every initialization.
func NewEngine(corpusPath string, store VectorStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{corpusPath: corpusPath, store: store, logger: logger}
}

// Ready reports whether the engine is initialized.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Status returns the engine's current state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, statErr := os.Stat(e.corpusPath)
	return Status{
		Initialized: e.ready,
		CorpusPath:  e.corpusPath,
		CorpusFound: statErr == nil,
		QAPairs:     len(e.pairs),
	}
}

// Initialize loads the corpus and builds (or restores) term vectors.
// Calling it on a ready engine is a no-op; two concurrent calls do the
// work once.
func (e *Engine) Initialize() error {
	return e.initialize(false)
}

// WarmUp initializes with a console progress bar. Meant for the
// explicit CLI warmup command.
func (e *Engine) WarmUp() error {
	return e.initialize(true)
}

func (e *Engine) initialize(showProgress bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ready {
		return nil
	}

	pairs, err := LoadCorpus(e.corpusPath)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("offline corpus %s is empty", e.corpusPath)
	}
	e.logger.Info("offline corpus loaded",
		zap.String("path", e.corpusPath), zap.Int("pairs", len(pairs)))

	hash, err := corpusHash(e.corpusPath)
	if err != nil {
		return err
	}

	vectors := e.loadCachedVectors(hash, len(pairs))
	if vectors == nil {
		vectors = e.buildVectors(pairs, showProgress)
		e.cacheVectors(hash, vectors)
	}

	e.pairs = pairs
	e.vectors = vectors
	e.ready = true
	return nil
}

// Invalidate drops the built state so the next query re-initializes.
// Called by the corpus watcher when the file changes on disk.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = false
	e.pairs = nil
	e.vectors = nil
	e.logger.Info("offline engine invalidated, will re-initialize on next query")
}

func (e *Engine) buildVectors(pairs []QAPair, showProgress bool) []TermVector {
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(pairs)), "Vectorizing offline corpus")
	}

	vectors := make([]TermVector, len(pairs))
	for i, pair := range pairs {
		vectors[i] = NewTermVector(pair.Question)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return vectors
}

func (e *Engine) loadCachedVectors(hash string, want int) []TermVector {
	if e.store == nil {
		return nil
	}
	payload, ok := e.store.GetVectors(hash)
	if !ok {
		return nil
	}

	var vectors []TermVector
	if err := json.Unmarshal([]byte(payload), &vectors); err != nil || len(vectors) != want {
		return nil
	}
	e.logger.Info("offline vectors restored from cache", zap.Int("vectors", len(vectors)))
	return vectors
}

func (e *Engine) cacheVectors(hash string, vectors []TermVector) {
	if e.store == nil {
		return
	}
	payload, err := json.Marshal(vectors)
	if err != nil {
		return
	}
	if err := e.store.PutVectors(hash, string(payload)); err != nil {
		e.logger.Warn("offline vector cache write failed", zap.Error(err))
	}
}

// Search returns the topK most similar corpus questions. It lazily
// initializes the engine; an empty result means initialization failed
// or nothing matched at all.
func (e *Engine) Search(query string, topK int) []Match {
	if err := e.Initialize(); err != nil {
		e.logger.Warn("offline initialization failed", zap.Error(err))
		return nil
	}
	if topK <= 0 {
		topK = 3
	}

	e.mu.Lock()
	pairs, vectors := e.pairs, e.vectors
	e.mu.Unlock()

	queryVec := NewTermVector(query)
	matches := make([]Match, 0, len(pairs))
	for i, vec := range vectors {
		score := Cosine(queryVec, vec)
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{
			Question:   pairs[i].Question,
			Answer:     pairs[i].Answer,
			Source:     pairs[i].SourceLabel(),
			Confidence: score,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Confidence > matches[j].Confidence })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// GetAnswer returns the best corpus answer as a complete ToolResult.
// Below the confidence threshold the best match is still returned,
// flagged as a partial match.
func (e *Engine) GetAnswer(query string) models.ToolResult {
	matches := e.Search(query, 3)

	if len(matches) == 0 {
		return models.ToolResult{
			Type:    "offline",
			Summary: "No answer found in offline knowledge base",
			Details: map[string]interface{}{"query": query},
			Advisory: []string{
				"Try rephrasing your question",
				"Connect to internet for full AI capabilities",
			},
			Confidence: 0,
			Source:     "Offline Knowledge Base",
			Message:    "माफ़ करें, मुझे इसका उत्तर नहीं मिला। | Sorry, I couldn't find an answer to your question.",
		}
	}

	best := matches[0]

	if best.Confidence < LowConfidenceThreshold {
		return models.ToolResult{
			Type:    "offline",
			Summary: fmt.Sprintf("Partial match found (confidence: %.0f%%)", best.Confidence*100),
			Details: map[string]interface{}{
				"query":            query,
				"matched_question": best.Question,
				"confidence":       best.Confidence,
			},
			Advisory: []string{
				"This answer may not be exactly what you're looking for",
				"Try rephrasing for better results",
			},
			Confidence: best.Confidence,
			Source:     "Offline KB - " + best.Source,
			Message:    "मुझे पूरा यकीन नहीं है, लेकिन यह मदद कर सकता है:\n\n" + best.Answer,
		}
	}

	topMatches := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		topMatches = append(topMatches, map[string]interface{}{
			"question":   m.Question,
			"confidence": m.Confidence,
		})
	}

	return models.ToolResult{
		Type:    "offline",
		Summary: fmt.Sprintf("Answer found with %.0f%% confidence", best.Confidence*100),
		Details: map[string]interface{}{
			"query":            query,
			"matched_question": best.Question,
			"confidence":       best.Confidence,
			"top_matches":      topMatches,
		},
		Advisory:   contextualAdvisory(query),
		Confidence: best.Confidence,
		Source:     "Offline KB - " + best.Source,
		Message:    best.Answer,
	}
}

// contextualAdvisory picks advisory lines matching the query's topic.
func contextualAdvisory(query string) []string {
	q := NewTermVector(query)
	has := func(words ...string) bool {
		for _, w := range words {
			if _, ok := q[w]; ok {
				return true
			}
		}
		return false
	}

	switch {
	case has("disease", "pest", "रोग", "कीट"):
		return []string{
			"Consult local agricultural officer for severe cases",
			"Apply treatment in early morning or evening",
		}
	case has("fertilizer", "खाद", "urea"):
		return []string{
			"Always follow recommended dosage",
			"Apply fertilizer when soil is moist",
		}
	case has("water", "irrigation", "सिंचाई", "पानी"):
		return []string{
			"Check soil moisture before irrigating",
			"Avoid over-irrigation to prevent root rot",
		}
	case has("seed", "बीज", "variety"):
		return []string{
			"Use certified seeds from authorized dealers",
			"Check seed germination rate before sowing",
		}
	default:
		return []string{
			"This information is from our offline knowledge base",
			"For latest updates, connect to internet",
		}
	}
}
