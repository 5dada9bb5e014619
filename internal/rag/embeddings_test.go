package rag

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmbedder(t *testing.T, dimension int) *OpenAIEmbedder {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","model":"text-embedding-ada-002",`+
			`"data":[{"object":"embedding","index":0,"embedding":[0.6,0.8]}]}`)
	}))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL
	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     openai.AdaEmbeddingV2,
		dimension: dimension,
	}
}

func TestEmbedMatchingDimension(t *testing.T) {
	embedder := newTestEmbedder(t, 2)

	vector, err := embedder.Embed(context.Background(), "wheat sowing time")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, vector)
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	embedder := newTestEmbedder(t, 1536)

	_, err := embedder.Embed(context.Background(), "wheat sowing time")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match collection dimension")
}

func TestEmbedZeroDimensionSkipsCheck(t *testing.T) {
	embedder := newTestEmbedder(t, 0)

	vector, err := embedder.Embed(context.Background(), "wheat sowing time")

	require.NoError(t, err)
	assert.Len(t, vector, 2)
}
