package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ticker-digest/internal/aggregate"
	"ticker-digest/internal/chunker"
	"ticker-digest/internal/embed"
	"ticker-digest/internal/extract"
	"ticker-digest/internal/interfaces"
	"ticker-digest/internal/llm/llmobs"
	"ticker-digest/internal/llm/noop"
	"ticker-digest/internal/llm/openai"
	"ticker-digest/internal/logger"
	"ticker-digest/internal/marketday"
	"ticker-digest/internal/pipeline"
	"ticker-digest/internal/runlog"
	"ticker-digest/internal/storage"
	"ticker-digest/internal/store"
	"ticker-digest/internal/summarize"
	"ticker-digest/internal/trace"
	"ticker-digest/internal/transcript"
	"ticker-digest/internal/youtube"
)

// initializeSystem initializes the logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig loads and returns the configuration.
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old run log files if retention is configured.
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("PIPELINE_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := runlog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeCompleter returns the generative collaborator with
// observability middleware.
func initializeCompleter(ctx context.Context, cfg *store.Config) interfaces.Completer {
	var completer interfaces.Completer
	switch cfg.LLM.Provider {
	case "OPENAI":
		completer = openai.NewCompleter(cfg)
	default:
		completer = noop.NewCompleter()
		logger.Warn(ctx, "No LLM provider configured - every level will use its deterministic fallback")
	}
	return llmobs.Wrap(completer)
}

// initializeEmbedder returns the embedder, or nil when disabled or
// misconfigured. Embedding is best-effort and never blocks the run.
func initializeEmbedder(ctx context.Context, cfg *store.Config) interfaces.Embedder {
	if !cfg.Embedding.Enabled {
		return nil
	}
	embedder, err := embed.New(cfg.Embedding.Model, cfg.Embedding.Dimension)
	if err != nil {
		logger.Warn(ctx, "Embedder unavailable, summaries will not be embedded", "error", err)
		return nil
	}
	return embedder
}

// initializePipeline wires every collaborator into the orchestrator.
func initializePipeline(ctx context.Context, cfg *store.Config) (*pipeline.Pipeline, error) {
	db, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	source, err := youtube.New(cfg.Discovery.Queries)
	if err != nil {
		return nil, fmt.Errorf("creating video source: %w", err)
	}

	calendar, err := marketday.NewCalendar(cfg.Daily.MarketTimezone)
	if err != nil {
		return nil, err
	}

	ch, err := chunker.New(cfg.Chunking.WindowSeconds)
	if err != nil {
		return nil, err
	}

	completer := initializeCompleter(ctx, cfg)

	return pipeline.New(pipeline.Options{
		Source:             source,
		Transcripts:        transcript.New(time.Duration(cfg.Transcript.TimeoutSeconds) * time.Second),
		Store:              db,
		Chunker:            ch,
		Extractor:          extract.New(completer),
		Aggregator:         aggregate.New(completer, cfg.Budget.AggregateChars),
		VideoSum:           summarize.NewVideoSummarizer(completer, cfg.Budget.VideoSummaryChars),
		DailySum:           summarize.NewDailySummarizer(completer, cfg.Budget.DailySummaryChars),
		Calendar:           calendar,
		Embedder:           initializeEmbedder(ctx, cfg),
		Lookback:           time.Duration(cfg.Discovery.LookbackHours) * time.Hour,
		MaxVideos:          cfg.Discovery.MaxVideos,
		TranscriptLanguage: cfg.Transcript.Language,
	})
}
