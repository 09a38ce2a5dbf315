// Package pipeline orchestrates the per-video processing chain and the
// once-per-run daily summary step.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ticker-digest/internal/aggregate"
	"ticker-digest/internal/chunker"
	"ticker-digest/internal/extract"
	"ticker-digest/internal/interfaces"
	"ticker-digest/internal/logger"
	"ticker-digest/internal/marketday"
	"ticker-digest/internal/runlog"
	"ticker-digest/internal/summarize"
	"ticker-digest/internal/trace"
	"ticker-digest/internal/types"
)

// Options bundles the collaborators and settings of one Pipeline.
type Options struct {
	Source      interfaces.VideoSource
	Transcripts interfaces.TranscriptSource
	Store       interfaces.Store
	Chunker     *chunker.Chunker
	Extractor   *extract.Extractor
	Aggregator  *aggregate.Aggregator
	VideoSum    *summarize.VideoSummarizer
	DailySum    *summarize.DailySummarizer
	Calendar    *marketday.Calendar

	// Embedder may be nil; embedding never blocks persistence.
	Embedder interfaces.Embedder

	Lookback           time.Duration
	MaxVideos          int
	TranscriptLanguage string
}

// Result holds the counters of one run.
type Result struct {
	RunID        string
	MarketDate   string
	Discovered   int
	Processed    int
	Skipped      int
	NoTranscript int
	Failed       int
}

// Pipeline drives every discovered video through
// chunk → extract → aggregate → summarize, then writes the daily digest.
// Videos are processed strictly sequentially.
type Pipeline struct {
	opts Options
}

func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Source == nil, opts.Transcripts == nil, opts.Store == nil:
		return nil, fmt.Errorf("source, transcripts and store are required")
	case opts.Chunker == nil, opts.Extractor == nil, opts.Aggregator == nil:
		return nil, fmt.Errorf("chunker, extractor and aggregator are required")
	case opts.VideoSum == nil, opts.DailySum == nil, opts.Calendar == nil:
		return nil, fmt.Errorf("summarizers and calendar are required")
	}
	if opts.MaxVideos <= 0 {
		return nil, fmt.Errorf("max videos must be positive, got %d", opts.MaxVideos)
	}
	return &Pipeline{opts: opts}, nil
}

// Run executes one full pass: discovery, the per-video chain, and the
// daily summary. Per-video failures are isolated and never abort the
// run; only discovery failure is fatal.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	start := time.Now()
	result := &Result{
		RunID:      uuid.NewString(),
		MarketDate: p.opts.Calendar.Today(),
	}
	logger.Info(ctx, "Pipeline run starting", "run_id", result.RunID, "market_date", result.MarketDate)

	videos, err := p.opts.Source.Discover(ctx, p.opts.Lookback, p.opts.MaxVideos, p.opts.TranscriptLanguage)
	if err != nil {
		return nil, fmt.Errorf("discovering videos: %w", err)
	}
	result.Discovered = len(videos)

	for _, video := range videos {
		p.runVideo(ctx, video, result)
	}

	if err := p.runDaily(ctx, result.MarketDate); err != nil {
		logger.ErrorWithErr(ctx, "Daily summary step failed", err, "market_date", result.MarketDate)
	}

	entry := runlog.RunEntry{
		RunID:        result.RunID,
		MarketDate:   result.MarketDate,
		Discovered:   result.Discovered,
		Processed:    result.Processed,
		Skipped:      result.Skipped,
		NoTranscript: result.NoTranscript,
		Failed:       result.Failed,
		DurationMs:   time.Since(start).Milliseconds(),
	}
	if err := runlog.AppendRun(entry); err != nil {
		logger.Warn(ctx, "Run log append failed", "error", err)
	}

	logger.Info(ctx, "Pipeline run finished",
		"run_id", result.RunID,
		"discovered", result.Discovered,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"no_transcript", result.NoTranscript,
		"failed", result.Failed,
		"duration", time.Since(start))
	return result, nil
}

func (p *Pipeline) runVideo(ctx context.Context, video types.VideoMetadata, result *Result) {
	ctx, span := trace.StartSpan(ctx, "pipeline.video")
	defer span.End()

	if err := p.opts.Store.UpsertVideo(ctx, video); err != nil {
		logger.ErrorWithErr(ctx, "Persisting video failed", err, "video_id", video.VideoID)
		result.Failed++
		p.logVideo(result.RunID, video.VideoID, "failed", 0, err.Error())
		return
	}

	processed, err := p.opts.Store.IsVideoProcessed(ctx, video.VideoID)
	if err != nil {
		logger.ErrorWithErr(ctx, "Processed-marker lookup failed", err, "video_id", video.VideoID)
		result.Failed++
		p.logVideo(result.RunID, video.VideoID, "failed", 0, err.Error())
		return
	}
	if processed {
		logger.Stage(ctx, video.VideoID, "skipped")
		result.Skipped++
		p.logVideo(result.RunID, video.VideoID, "skipped", 0, "")
		return
	}

	outcome, tickers, err := p.processVideo(ctx, video)
	if err != nil {
		logger.ErrorWithErr(ctx, "Video processing failed", err, "video_id", video.VideoID)
		result.Failed++
		p.logVideo(result.RunID, video.VideoID, "failed", tickers, err.Error())
		return
	}
	switch outcome {
	case "no-transcript":
		result.NoTranscript++
	default:
		result.Processed++
	}
	p.logVideo(result.RunID, video.VideoID, outcome, tickers, "")
}

// processVideo walks one video through the state chain. Both benign
// terminal skips and full success end with the processed marker set.
func (p *Pipeline) processVideo(ctx context.Context, video types.VideoMetadata) (string, int, error) {
	entries, err := p.opts.Transcripts.Fetch(ctx, video.VideoID, p.opts.TranscriptLanguage)
	if err != nil {
		// A transcript fetch error is terminal for this video; marking
		// it processed guarantees the run never reprocesses it.
		logger.Warn(ctx, "Transcript fetch failed, treating as unavailable", "video_id", video.VideoID, "error", err)
		entries = nil
	}
	if len(entries) == 0 {
		logger.Stage(ctx, video.VideoID, "no-transcript")
		if err := p.opts.Store.MarkVideoProcessed(ctx, video.VideoID); err != nil {
			return "", 0, err
		}
		return "no-transcript", 0, nil
	}

	chunks := p.opts.Chunker.Chunk(video.VideoID, entries)
	if len(chunks) == 0 {
		logger.Stage(ctx, video.VideoID, "no-transcript", "reason", "empty after chunking")
		if err := p.opts.Store.MarkVideoProcessed(ctx, video.VideoID); err != nil {
			return "", 0, err
		}
		return "no-transcript", 0, nil
	}
	if err := p.opts.Store.UpsertChunks(ctx, chunks); err != nil {
		return "", 0, fmt.Errorf("persisting chunks: %w", err)
	}
	logger.Stage(ctx, video.VideoID, "chunked", "chunks", len(chunks))

	for _, chunk := range chunks {
		for _, kp := range p.opts.Extractor.Extract(ctx, chunk.Text) {
			if err := p.opts.Store.UpsertChunkKeypoints(ctx, chunk.VideoID, chunk.ChunkIndex, kp); err != nil {
				return "", 0, fmt.Errorf("persisting keypoints for chunk %d: %w", chunk.ChunkIndex, err)
			}
		}
	}
	logger.Stage(ctx, video.VideoID, "extracted")

	grouped, err := p.opts.Store.ListChunkKeypoints(ctx, video.VideoID)
	if err != nil {
		return "", 0, fmt.Errorf("loading keypoints: %w", err)
	}
	if len(grouped) == 0 {
		logger.Stage(ctx, video.VideoID, "no-tickers")
		if err := p.opts.Store.MarkVideoProcessed(ctx, video.VideoID); err != nil {
			return "", 0, err
		}
		return "processed", 0, nil
	}

	aggregates := p.opts.Aggregator.AggregateVideo(ctx, video.VideoID, grouped)
	for _, agg := range aggregates {
		if err := p.opts.Store.UpsertTickerAggregate(ctx, agg); err != nil {
			return "", 0, fmt.Errorf("persisting aggregate for %s: %w", agg.Ticker, err)
		}
	}
	logger.Stage(ctx, video.VideoID, "ticker-aggregated", "tickers", len(aggregates))

	summary := p.opts.VideoSum.Summarize(ctx, video, aggregates)
	if err := p.opts.Store.UpsertVideoSummary(ctx, summary); err != nil {
		return "", len(aggregates), fmt.Errorf("persisting summary: %w", err)
	}
	logger.Stage(ctx, video.VideoID, "video-summarized", "model", summary.Model)

	p.embedSummary(ctx, summary)

	if err := p.opts.Store.MarkVideoProcessed(ctx, video.VideoID); err != nil {
		return "", len(aggregates), err
	}
	logger.Stage(ctx, video.VideoID, "processed")
	return "processed", len(aggregates), nil
}

// embedSummary is best-effort; the summary row is already persisted.
func (p *Pipeline) embedSummary(ctx context.Context, summary types.VideoSummary) {
	if p.opts.Embedder == nil {
		return
	}
	vector, err := p.opts.Embedder.Embed(ctx, summary.SummaryText)
	if err != nil {
		logger.Warn(ctx, "Embedding failed", "video_id", summary.VideoID, "error", err)
		return
	}
	if err := p.opts.Store.UpsertVideoSummaryEmbedding(ctx, summary.VideoID, p.opts.Embedder.ModelName(), vector); err != nil {
		logger.Warn(ctx, "Persisting embedding failed", "video_id", summary.VideoID, "error", err)
	}
}

// runDaily regenerates the digest for the run's market day from every
// summary whose generation timestamp falls within the day's bounds.
func (p *Pipeline) runDaily(ctx context.Context, marketDate string) error {
	ctx, span := trace.StartSpan(ctx, "pipeline.daily")
	defer span.End()

	dayStart, dayEnd, err := p.opts.Calendar.Bounds(marketDate)
	if err != nil {
		return err
	}
	summaries, err := p.opts.Store.ListVideoSummariesBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("loading day summaries: %w", err)
	}

	videoIDs := make([]string, 0, len(summaries))
	for _, s := range summaries {
		videoIDs = append(videoIDs, s.VideoID)
	}
	aggregates, err := p.opts.Store.ListTickerAggregatesForVideos(ctx, videoIDs)
	if err != nil {
		return fmt.Errorf("loading day aggregates: %w", err)
	}

	daily := p.opts.DailySum.Summarize(ctx, marketDate, summaries, aggregates)
	if err := p.opts.Store.UpsertDailySummary(ctx, daily); err != nil {
		return fmt.Errorf("persisting daily summary: %w", err)
	}
	logger.Info(ctx, "Daily summary stored", "market_date", marketDate, "videos", len(summaries), "model", daily.Model)
	return nil
}

func (p *Pipeline) logVideo(runID, videoID, outcome string, tickers int, reason string) {
	if err := runlog.AppendVideo(runlog.VideoEntry{
		RunID:   runID,
		VideoID: videoID,
		Outcome: outcome,
		Tickers: tickers,
		Reason:  reason,
	}); err != nil {
		logger.Warn(context.Background(), "Run log append failed", "error", err)
	}
}
