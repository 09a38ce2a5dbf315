package types

import "time"

// VideoMetadata describes a discovered video before any processing.
type VideoMetadata struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	Channel     string    `json:"channel"`
	PublishedAt time.Time `json:"published_at"`
	Description string    `json:"description"`
	Duration    string    `json:"duration,omitempty"`
}

// TranscriptEntry is a single timed caption line, ordered by Start.
type TranscriptEntry struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// Chunk is a bounded-duration slice of a video's transcript.
// Keyed by (VideoID, ChunkIndex); ChunkIndex is a dense 0-based sequence.
type Chunk struct {
	VideoID    string  `json:"video_id"`
	ChunkIndex int     `json:"chunk_index"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Text       string  `json:"text"`
}

// MarketTicker is the sentinel symbol for macro/market-wide statements.
const MarketTicker = "MARKET"

// TickerKeypoints holds categorized bullets about one ticker within one chunk.
type TickerKeypoints struct {
	Ticker   string   `json:"ticker"`
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Neutral  []string `json:"neutral"`
}

// TickerAggregate is the de-duplicated union of all chunk keypoints for
// one (video, ticker), capped per bucket.
type TickerAggregate struct {
	VideoID  string   `json:"video_id"`
	Ticker   string   `json:"ticker"`
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Neutral  []string `json:"neutral"`
}

// Mover is a notable symbol in a summary with a direction and reason.
type Mover struct {
	Symbol    string `json:"symbol"`
	Direction string `json:"direction"` // up, down, or mixed
	Reason    string `json:"reason"`
}

// Event is a dated or undated item referenced in a video summary.
type Event struct {
	Date        string   `json:"date,omitempty"`      // ISO date when known
	Timeframe   string   `json:"timeframe,omitempty"` // e.g. "next week" when no date
	Description string   `json:"description"`
	Tickers     []string `json:"tickers,omitempty"`
}

// Sentiment labels for a video summary. Empty string means unknown.
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentMixed   = "mixed"
	SentimentNeutral = "neutral"
)

// VideoSummary is the per-video rollup of all ticker aggregates.
// One row per VideoID, overwritten on regeneration.
type VideoSummary struct {
	VideoID            string    `json:"video_id"`
	Title              string    `json:"title"`
	PublishedAt        time.Time `json:"published_at"`
	SummaryText        string    `json:"summary_text"`
	OverallExplanation string    `json:"overall_explanation"`
	Movers             []Mover   `json:"movers"`
	Risks              []string  `json:"risks"`
	Opportunities      []string  `json:"opportunities"`
	KeyPoints          []string  `json:"key_points"`
	Tickers            []string  `json:"tickers"`
	Sentiment          string    `json:"sentiment,omitempty"`
	Events             []Event   `json:"events"`
	Model              string    `json:"model"`
	SummarizedAt       time.Time `json:"summarized_at"`
}

// DailySummary is the per-market-day digest across all videos.
// One row per MarketDate, overwritten on regeneration.
type DailySummary struct {
	MarketDate       string    `json:"market_date"` // YYYY-MM-DD in the market time zone
	Title            string    `json:"title"`
	OverallSummarize string    `json:"overall_summarize"`
	SummaryText      string    `json:"summary_text"`
	Movers           []Mover   `json:"movers"`
	Risks            []string  `json:"risks"`
	Opportunities    []string  `json:"opportunities"`
	Model            string    `json:"model"`
	GeneratedAt      time.Time `json:"generated_at"`
}
