package pipeline

import (
	"context"
	"testing"
	"time"

	"ticker-digest/internal/aggregate"
	"ticker-digest/internal/chunker"
	"ticker-digest/internal/extract"
	"ticker-digest/internal/interfaces"
	"ticker-digest/internal/marketday"
	"ticker-digest/internal/storage"
	"ticker-digest/internal/summarize"
	"ticker-digest/internal/types"
)

type stubSource struct {
	videos []types.VideoMetadata
}

func (s *stubSource) Discover(ctx context.Context, lookback time.Duration, maxCount int, language string) ([]types.VideoMetadata, error) {
	if len(s.videos) > maxCount {
		return s.videos[:maxCount], nil
	}
	return s.videos, nil
}

type stubTranscripts struct {
	entries map[string][]types.TranscriptEntry
	calls   int
}

func (s *stubTranscripts) Fetch(ctx context.Context, videoID, language string) ([]types.TranscriptEntry, error) {
	s.calls++
	return s.entries[videoID], nil
}

// stubCompleter always returns the same raw text, so runs over the same
// input are fully deterministic.
type stubCompleter struct {
	response string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.response, nil
}

func (s *stubCompleter) ModelTag() string { return "stub" }

func newTestPipeline(t *testing.T, source interfaces.VideoSource, transcripts interfaces.TranscriptSource, store interfaces.Store) *Pipeline {
	t.Helper()
	t.Setenv("PIPELINE_LOG_DIR", t.TempDir())

	completer := &stubCompleter{response: ""}
	ch, err := chunker.New(300)
	if err != nil {
		t.Fatalf("chunker.New: %v", err)
	}
	calendar, err := marketday.NewCalendar("America/New_York")
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}

	p, err := New(Options{
		Source:             source,
		Transcripts:        transcripts,
		Store:              store,
		Chunker:            ch,
		Extractor:          extract.New(completer),
		Aggregator:         aggregate.New(completer, 20000),
		VideoSum:           summarize.NewVideoSummarizer(completer, 24000),
		DailySum:           summarize.NewDailySummarizer(completer, 24000),
		Calendar:           calendar,
		Lookback:           24 * time.Hour,
		MaxVideos:          10,
		TranscriptLanguage: "en",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	return s
}

func testVideo() types.VideoMetadata {
	return types.VideoMetadata{VideoID: "vid1", Title: "Market Recap", Channel: "TestTV", PublishedAt: time.Now().UTC()}
}

func testEntries() []types.TranscriptEntry {
	return []types.TranscriptEntry{
		{Start: 0, Duration: 5, Text: "$AAPL strong guidance"},
		{Start: 5, Duration: 5, Text: "$NVDA demand is holding up"},
	}
}

func TestRunEndToEnd(t *testing.T) {
	store := newTestStore(t)
	source := &stubSource{videos: []types.VideoMetadata{testVideo()}}
	transcripts := &stubTranscripts{entries: map[string][]types.TranscriptEntry{"vid1": testEntries()}}
	p := newTestPipeline(t, source, transcripts, store)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Discovered != 1 || result.Processed != 1 || result.Failed != 0 {
		t.Fatalf("Unexpected counters: %+v", result)
	}

	ctx := context.Background()
	processed, err := store.IsVideoProcessed(ctx, "vid1")
	if err != nil || !processed {
		t.Errorf("Expected video marked processed, got %v %v", processed, err)
	}

	aggs, err := store.ListTickerAggregates(ctx, "vid1")
	if err != nil || len(aggs) != 2 {
		t.Fatalf("Expected AAPL and NVDA aggregates, got %d (%v)", len(aggs), err)
	}

	summary, err := store.GetVideoSummary(ctx, "vid1")
	if err != nil || summary == nil {
		t.Fatalf("GetVideoSummary: %v %v", summary, err)
	}
	if summary.Model != summarize.DerivedModelTag {
		t.Errorf("Expected derived summary with empty generative output, got %q", summary.Model)
	}

	daily, err := store.GetDailySummary(ctx, result.MarketDate)
	if err != nil || daily == nil {
		t.Fatalf("Expected daily summary for %s, got %v %v", result.MarketDate, daily, err)
	}
}

func TestRunSkipsProcessedVideos(t *testing.T) {
	store := newTestStore(t)
	source := &stubSource{videos: []types.VideoMetadata{testVideo()}}
	transcripts := &stubTranscripts{entries: map[string][]types.TranscriptEntry{"vid1": testEntries()}}
	p := newTestPipeline(t, source, transcripts, store)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	fetchesAfterFirst := transcripts.calls

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if result.Skipped != 1 || result.Processed != 0 {
		t.Errorf("Expected processed video skipped, got %+v", result)
	}
	if transcripts.calls != fetchesAfterFirst {
		t.Errorf("Expected no transcript re-fetch for skipped video")
	}
}

func TestRunNoTranscript(t *testing.T) {
	store := newTestStore(t)
	source := &stubSource{videos: []types.VideoMetadata{testVideo()}}
	transcripts := &stubTranscripts{entries: map[string][]types.TranscriptEntry{}}
	p := newTestPipeline(t, source, transcripts, store)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.NoTranscript != 1 || result.Processed != 0 {
		t.Errorf("Unexpected counters: %+v", result)
	}
	processed, _ := store.IsVideoProcessed(context.Background(), "vid1")
	if !processed {
		t.Error("Expected transcript-less video marked processed")
	}
}

func TestRunDeterministicAcrossStores(t *testing.T) {
	run := func() ([]types.TickerAggregate, *types.VideoSummary) {
		store := newTestStore(t)
		source := &stubSource{videos: []types.VideoMetadata{testVideo()}}
		transcripts := &stubTranscripts{entries: map[string][]types.TranscriptEntry{"vid1": testEntries()}}
		p := newTestPipeline(t, source, transcripts, store)
		if _, err := p.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		aggs, _ := store.ListTickerAggregates(context.Background(), "vid1")
		summary, _ := store.GetVideoSummary(context.Background(), "vid1")
		return aggs, summary
	}

	aggsA, summaryA := run()
	aggsB, summaryB := run()

	if len(aggsA) != len(aggsB) {
		t.Fatalf("Aggregate counts differ: %d vs %d", len(aggsA), len(aggsB))
	}
	for i := range aggsA {
		if aggsA[i].Ticker != aggsB[i].Ticker || len(aggsA[i].Positive) != len(aggsB[i].Positive) {
			t.Errorf("Aggregate %d differs: %+v vs %+v", i, aggsA[i], aggsB[i])
		}
	}
	if summaryA.SummaryText != summaryB.SummaryText {
		t.Errorf("Summary text differs across identical runs")
	}
}

func TestRunProcessesVideosWithNoTickersAsProcessed(t *testing.T) {
	store := newTestStore(t)
	source := &stubSource{videos: []types.VideoMetadata{testVideo()}}
	transcripts := &stubTranscripts{entries: map[string][]types.TranscriptEntry{
		"vid1": {{Start: 0, Duration: 5, Text: "no symbols mentioned here"}},
	}}
	p := newTestPipeline(t, source, transcripts, store)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("Expected tickerless video counted processed, got %+v", result)
	}
	if summary, _ := store.GetVideoSummary(context.Background(), "vid1"); summary != nil {
		t.Errorf("Expected no summary for tickerless video, got %+v", summary)
	}
}
