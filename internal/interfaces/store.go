package interfaces

import (
	"context"
	"time"

	"ticker-digest/internal/types"
)

// Store is the persistent store. Every write is an idempotent upsert
// keyed by the entity's natural key; higher aggregation levels are
// recomputed wholesale, never incrementally patched, so re-running over
// the same input is safe.
type Store interface {
	UpsertVideo(ctx context.Context, video types.VideoMetadata) error
	IsVideoProcessed(ctx context.Context, videoID string) (bool, error)
	MarkVideoProcessed(ctx context.Context, videoID string) error

	UpsertChunks(ctx context.Context, chunks []types.Chunk) error

	// UpsertChunkKeypoints stores one row per (video, chunk, ticker).
	UpsertChunkKeypoints(ctx context.Context, videoID string, chunkIndex int, kp types.TickerKeypoints) error
	ListChunkKeypoints(ctx context.Context, videoID string) (map[string][]types.TickerKeypoints, error)

	UpsertTickerAggregate(ctx context.Context, agg types.TickerAggregate) error
	ListTickerAggregates(ctx context.Context, videoID string) ([]types.TickerAggregate, error)
	ListTickerAggregatesForVideos(ctx context.Context, videoIDs []string) ([]types.TickerAggregate, error)
	ListTickerAggregatesByTicker(ctx context.Context, ticker string) ([]types.TickerAggregate, error)

	UpsertVideoSummary(ctx context.Context, summary types.VideoSummary) error
	GetVideoSummary(ctx context.Context, videoID string) (*types.VideoSummary, error)
	ListVideoSummariesBetween(ctx context.Context, start, end time.Time) ([]types.VideoSummary, error)

	UpsertVideoSummaryEmbedding(ctx context.Context, videoID, model string, vector []float32) error

	UpsertDailySummary(ctx context.Context, summary types.DailySummary) error
	GetDailySummary(ctx context.Context, marketDate string) (*types.DailySummary, error)
}
