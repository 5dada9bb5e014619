// Why this file: ./internal/rag/embeddings.go
// This turns query text into vectors for the knowledge index, via the
// OpenAI embeddings API (1536-dim ada vectors, matching the collection).
package rag

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder converts text into query vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder embeds text through the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
}

// NewOpenAIEmbedder creates an embedder using the ada embedding model.
// dimension is the collection's vector size; a non-matching embedding is
// rejected here instead of failing opaquely inside the index search.
func NewOpenAIEmbedder(apiKey string, dimension int) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client:    openai.NewClient(apiKey),
		model:     openai.AdaEmbeddingV2,
		dimension: dimension,
	}
}

// Embed returns the embedding vector for one text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	vector := resp.Data[0].Embedding
	if e.dimension > 0 && len(vector) != e.dimension {
		return nil, fmt.Errorf("embedding dimension %d does not match collection dimension %d", len(vector), e.dimension)
	}
	return vector, nil
}
