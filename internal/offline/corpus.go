// Why this file: ./internal/offline/corpus.go
// This loads the static question/answer corpus the offline engine
// answers from. The corpus is a JSON array of QA pairs on disk.
package offline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// QAPair is one entry of the offline knowledge corpus.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source,omitempty"`
}

// SourceLabel returns the pair's source, defaulting to offline_kb.
func (p QAPair) SourceLabel() string {
	if p.Source == "" {
		return "offline_kb"
	}
	return p.Source
}

// LoadCorpus reads the QA corpus from path.
func LoadCorpus(path string) ([]QAPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var pairs []QAPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	return pairs, nil
}

// corpusHash fingerprints the corpus file so cached vectors can be
// invalidated when the corpus changes.
func corpusHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
