package storage

import (
	"context"
	"testing"
	"time"

	"ticker-digest/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestVideoLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	video := types.VideoMetadata{VideoID: "vid1", Title: "First title", Channel: "TestTV"}
	if err := s.UpsertVideo(ctx, video); err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}

	processed, err := s.IsVideoProcessed(ctx, "vid1")
	if err != nil || processed {
		t.Fatalf("Expected unprocessed video, got %v %v", processed, err)
	}

	// Upsert with a new title must not reset anything else.
	video.Title = "Corrected title"
	if err := s.UpsertVideo(ctx, video); err != nil {
		t.Fatalf("UpsertVideo again: %v", err)
	}

	if err := s.MarkVideoProcessed(ctx, "vid1"); err != nil {
		t.Fatalf("MarkVideoProcessed: %v", err)
	}
	processed, err = s.IsVideoProcessed(ctx, "vid1")
	if err != nil || !processed {
		t.Fatalf("Expected processed video, got %v %v", processed, err)
	}

	// Unknown videos are simply unprocessed, not an error.
	processed, err = s.IsVideoProcessed(ctx, "missing")
	if err != nil || processed {
		t.Fatalf("Expected missing video unprocessed, got %v %v", processed, err)
	}
}

func TestChunkKeypointsGroupedByTicker(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	kps := []struct {
		chunk int
		kp    types.TickerKeypoints
	}{
		{0, types.TickerKeypoints{Ticker: "AAPL", Positive: []string{"Strong demand"}}},
		{1, types.TickerKeypoints{Ticker: "AAPL", Negative: []string{"China risk"}}},
		{1, types.TickerKeypoints{Ticker: "NVDA", Positive: []string{"AI tailwind"}}},
	}
	for _, item := range kps {
		if err := s.UpsertChunkKeypoints(ctx, "vid1", item.chunk, item.kp); err != nil {
			t.Fatalf("UpsertChunkKeypoints: %v", err)
		}
	}

	// Re-upserting the same key overwrites, not duplicates.
	if err := s.UpsertChunkKeypoints(ctx, "vid1", 0, types.TickerKeypoints{Ticker: "AAPL", Positive: []string{"Revised"}}); err != nil {
		t.Fatalf("UpsertChunkKeypoints overwrite: %v", err)
	}

	byTicker, err := s.ListChunkKeypoints(ctx, "vid1")
	if err != nil {
		t.Fatalf("ListChunkKeypoints: %v", err)
	}
	if len(byTicker) != 2 {
		t.Fatalf("Expected 2 tickers, got %d", len(byTicker))
	}
	if len(byTicker["AAPL"]) != 2 {
		t.Fatalf("Expected 2 AAPL rows, got %d", len(byTicker["AAPL"]))
	}
	if byTicker["AAPL"][0].Positive[0] != "Revised" {
		t.Errorf("Expected overwritten bullet, got %v", byTicker["AAPL"][0].Positive)
	}
}

func TestTickerAggregateQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	aggs := []types.TickerAggregate{
		{VideoID: "vid1", Ticker: "AAPL", Positive: []string{"a"}},
		{VideoID: "vid1", Ticker: "NVDA", Positive: []string{"b"}},
		{VideoID: "vid2", Ticker: "NVDA", Negative: []string{"c"}},
	}
	for _, agg := range aggs {
		if err := s.UpsertTickerAggregate(ctx, agg); err != nil {
			t.Fatalf("UpsertTickerAggregate: %v", err)
		}
	}

	got, err := s.ListTickerAggregates(ctx, "vid1")
	if err != nil || len(got) != 2 {
		t.Fatalf("Expected 2 aggregates for vid1, got %d (%v)", len(got), err)
	}
	if got[0].Ticker != "AAPL" {
		t.Errorf("Expected ticker order, got %q first", got[0].Ticker)
	}

	byTicker, err := s.ListTickerAggregatesByTicker(ctx, "NVDA")
	if err != nil || len(byTicker) != 2 {
		t.Fatalf("Expected 2 NVDA aggregates, got %d (%v)", len(byTicker), err)
	}

	forVideos, err := s.ListTickerAggregatesForVideos(ctx, []string{"vid1", "vid2"})
	if err != nil || len(forVideos) != 3 {
		t.Fatalf("Expected 3 aggregates for both videos, got %d (%v)", len(forVideos), err)
	}

	// Wholesale recomputation overwrites the same key.
	if err := s.UpsertTickerAggregate(ctx, types.TickerAggregate{VideoID: "vid1", Ticker: "AAPL", Positive: []string{"z"}}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.ListTickerAggregates(ctx, "vid1")
	if len(got) != 2 || got[0].Positive[0] != "z" {
		t.Errorf("Expected overwritten aggregate, got %v", got)
	}
}

func TestVideoSummaryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	summary := types.VideoSummary{
		VideoID:      "vid1",
		Title:        "Recap",
		SummaryText:  "body",
		Movers:       []types.Mover{{Symbol: "AAPL", Direction: "up", Reason: "beat"}},
		Events:       []types.Event{{Date: "2026-09-01", Description: "Product event", Tickers: []string{"AAPL"}}},
		Tickers:      []string{"AAPL"},
		Model:        "llm:test",
		SummarizedAt: now,
	}
	if err := s.UpsertVideoSummary(ctx, summary); err != nil {
		t.Fatalf("UpsertVideoSummary: %v", err)
	}

	got, err := s.GetVideoSummary(ctx, "vid1")
	if err != nil || got == nil {
		t.Fatalf("GetVideoSummary: %v %v", got, err)
	}
	if got.Movers[0].Symbol != "AAPL" || got.Events[0].Description != "Product event" {
		t.Errorf("Expected nested lists restored, got %+v", got)
	}

	missing, err := s.GetVideoSummary(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("Expected nil for missing summary, got %v %v", missing, err)
	}
}

func TestListVideoSummariesBetweenHalfOpen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 8, 28, 4, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 29, 4, 0, 0, 0, time.UTC)
	stamps := map[string]time.Time{
		"before": start.Add(-time.Second),
		"first":  start,
		"last":   end.Add(-time.Second),
		"after":  end,
	}
	for id, ts := range stamps {
		err := s.UpsertVideoSummary(ctx, types.VideoSummary{VideoID: id, SummaryText: "x", SummarizedAt: ts})
		if err != nil {
			t.Fatalf("UpsertVideoSummary %s: %v", id, err)
		}
	}

	got, err := s.ListVideoSummariesBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("ListVideoSummariesBetween: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 summaries in window, got %d", len(got))
	}
	if got[0].VideoID != "first" || got[1].VideoID != "last" {
		t.Errorf("Expected window order first,last, got %v %v", got[0].VideoID, got[1].VideoID)
	}
}

func TestDailySummaryOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	daily := types.DailySummary{MarketDate: "2026-08-28", Title: "v1", SummaryText: "x", Model: "llm:test"}
	if err := s.UpsertDailySummary(ctx, daily); err != nil {
		t.Fatalf("UpsertDailySummary: %v", err)
	}
	daily.Title = "v2"
	if err := s.UpsertDailySummary(ctx, daily); err != nil {
		t.Fatalf("UpsertDailySummary again: %v", err)
	}

	got, err := s.GetDailySummary(ctx, "2026-08-28")
	if err != nil || got == nil {
		t.Fatalf("GetDailySummary: %v %v", got, err)
	}
	if got.Title != "v2" {
		t.Errorf("Expected overwritten title, got %q", got.Title)
	}

	missing, err := s.GetDailySummary(ctx, "1999-01-01")
	if err != nil || missing != nil {
		t.Errorf("Expected nil for missing day, got %v %v", missing, err)
	}
}

func TestEmbeddingUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertVideoSummaryEmbedding(ctx, "vid1", "model-a", []float32{0.1, 0.2}); err != nil {
		t.Fatalf("UpsertVideoSummaryEmbedding: %v", err)
	}
	if err := s.UpsertVideoSummaryEmbedding(ctx, "vid1", "model-b", []float32{0.3}); err != nil {
		t.Fatalf("UpsertVideoSummaryEmbedding overwrite: %v", err)
	}

	var row videoEmbeddingRow
	if err := s.db.First(&row, "video_id = ?", "vid1").Error; err != nil {
		t.Fatalf("reading row: %v", err)
	}
	if row.Model != "model-b" {
		t.Errorf("Expected overwritten model, got %q", row.Model)
	}
}
