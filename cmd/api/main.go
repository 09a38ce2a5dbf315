package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"ticker-digest/internal/handlers"
	"ticker-digest/internal/logger"
	"ticker-digest/internal/marketday"
	"ticker-digest/internal/storage"
	"ticker-digest/internal/store"
	"ticker-digest/internal/trace"
)

func main() {
	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	ctx := context.Background()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}

	db, err := storage.New(cfg.Storage.Path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open store", err)
		os.Exit(1)
	}
	calendar, err := marketday.NewCalendar(cfg.Daily.MarketTimezone)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load market timezone", err)
		os.Exit(1)
	}

	server := handlers.NewServer(db, calendar)
	logger.Info(ctx, "API listening", "addr", cfg.API.ListenAddr)
	if err := server.Router().Run(cfg.API.ListenAddr); err != nil {
		logger.ErrorWithErr(ctx, "API server stopped", err)
		os.Exit(1)
	}
}
