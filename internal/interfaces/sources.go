package interfaces

import (
	"context"
	"time"

	"ticker-digest/internal/types"
)

// VideoSource discovers recently published videos to process.
type VideoSource interface {
	Discover(ctx context.Context, lookback time.Duration, maxCount int, language string) ([]types.VideoMetadata, error)
}

// TranscriptSource fetches timed transcript entries for a video. A video
// with disabled or missing captions yields an empty slice, not an error.
type TranscriptSource interface {
	Fetch(ctx context.Context, videoID, language string) ([]types.TranscriptEntry, error)
}

// Embedder produces fixed-dimension embedding vectors for downstream
// semantic search. Embedding failure must never block persistence.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	ModelName() string
}
