// Package embed produces summary embeddings through the Hugging Face
// Inference API for downstream semantic search.
package embed

import (
	"context"
	"fmt"
	"os"
	"time"

	"ticker-digest/internal/api"
	"ticker-digest/internal/interfaces"
)

const (
	baseURL = "https://api-inference.huggingface.co/pipeline/feature-extraction/"

	// maxInputChars bounds the text sent per request; summaries beyond
	// this are truncated, which is acceptable for search recall.
	maxInputChars = 8000
)

// Embedder implements interfaces.Embedder against the feature-extraction
// pipeline of a sentence-transformers model.
type Embedder struct {
	client    *api.Client
	model     string
	dimension int
}

var _ interfaces.Embedder = (*Embedder)(nil)

// New reads HF_TOKEN from the environment. model is a sentence-transformers
// model id, e.g. "sentence-transformers/all-MiniLM-L6-v2".
func New(model string, dimension int) (*Embedder, error) {
	token := os.Getenv("HF_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("HF_TOKEN not set")
	}
	return &Embedder{
		client: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(30*time.Second),
			api.WithHeader("Authorization", "Bearer "+token),
		),
		model:     model,
		dimension: dimension,
	}, nil
}

type embedRequest struct {
	Inputs  string         `json:"inputs"`
	Options map[string]any `json:"options"`
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}
	resp, err := e.client.POST(ctx, e.model, embedRequest{
		Inputs:  text,
		Options: map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}

	var vector []float32
	if err := resp.ParseJSON(&vector); err != nil {
		return nil, fmt.Errorf("parsing embedding: %w", err)
	}
	if len(vector) != e.dimension {
		return nil, fmt.Errorf("expected %d dimensions, got %d", e.dimension, len(vector))
	}
	return vector, nil
}

func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) ModelName() string { return e.model }
