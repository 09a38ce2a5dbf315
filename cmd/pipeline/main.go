package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticker-digest/internal/logger"
	"ticker-digest/internal/runlog"
	"ticker-digest/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Warn(ctx, "Signal received, shutting down")
		cancel()
	}()

	cfg, err := loadConfig(ctx)
	if err != nil {
		os.Exit(1)
	}
	runlog.SetDir(cfg.RunLog.Dir)
	compressOldLogs(ctx)

	p, err := initializePipeline(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Pipeline initialization failed", err)
		os.Exit(1)
	}

	result, err := p.Run(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Pipeline run failed", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Run complete",
		"run_id", result.RunID,
		"market_date", result.MarketDate,
		"discovered", result.Discovered,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"no_transcript", result.NoTranscript,
		"failed", result.Failed)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Tracer shutdown failed", "error", err)
	}
}
