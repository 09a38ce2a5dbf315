package storage

import (
	"encoding/json"
	"time"

	"ticker-digest/internal/types"
)

// Row models. List-valued fields are stored as JSON text columns;
// natural keys from the entity model become (composite) primary keys.

type videoRow struct {
	VideoID     string `gorm:"primaryKey"`
	Title       string
	Channel     string
	PublishedAt time.Time
	Description string
	Duration    string
	Processed   bool `gorm:"index"`
	ProcessedAt *time.Time
}

type chunkRow struct {
	VideoID    string `gorm:"primaryKey"`
	ChunkIndex int    `gorm:"primaryKey"`
	StartTime  float64
	EndTime    float64
	Text       string
}

type chunkKeypointsRow struct {
	VideoID    string `gorm:"primaryKey"`
	ChunkIndex int    `gorm:"primaryKey"`
	Ticker     string `gorm:"primaryKey"`
	Positive   string
	Negative   string
	Neutral    string
}

type tickerAggregateRow struct {
	VideoID  string `gorm:"primaryKey"`
	Ticker   string `gorm:"primaryKey;index"`
	Positive string
	Negative string
	Neutral  string
}

type videoSummaryRow struct {
	VideoID            string `gorm:"primaryKey"`
	Title              string
	PublishedAt        time.Time
	SummaryText        string
	OverallExplanation string
	Movers             string
	Risks              string
	Opportunities      string
	KeyPoints          string
	Tickers            string
	Sentiment          string
	Events             string
	Model              string
	SummarizedAt       time.Time `gorm:"index"`
}

type videoEmbeddingRow struct {
	VideoID   string `gorm:"primaryKey"`
	Model     string
	Vector    string
	UpdatedAt time.Time
}

type dailySummaryRow struct {
	MarketDate       string `gorm:"primaryKey"`
	Title            string
	OverallSummarize string
	SummaryText      string
	Movers           string
	Risks            string
	Opportunities    string
	Model            string
	GeneratedAt      time.Time
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func fromJSON[T any](s string) []T {
	var out []T
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func toKeypointsRow(videoID string, chunkIndex int, kp types.TickerKeypoints) chunkKeypointsRow {
	return chunkKeypointsRow{
		VideoID:    videoID,
		ChunkIndex: chunkIndex,
		Ticker:     kp.Ticker,
		Positive:   toJSON(kp.Positive),
		Negative:   toJSON(kp.Negative),
		Neutral:    toJSON(kp.Neutral),
	}
}

func (r chunkKeypointsRow) toKeypoints() types.TickerKeypoints {
	return types.TickerKeypoints{
		Ticker:   r.Ticker,
		Positive: fromJSON[string](r.Positive),
		Negative: fromJSON[string](r.Negative),
		Neutral:  fromJSON[string](r.Neutral),
	}
}

func toAggregateRow(agg types.TickerAggregate) tickerAggregateRow {
	return tickerAggregateRow{
		VideoID:  agg.VideoID,
		Ticker:   agg.Ticker,
		Positive: toJSON(agg.Positive),
		Negative: toJSON(agg.Negative),
		Neutral:  toJSON(agg.Neutral),
	}
}

func (r tickerAggregateRow) toAggregate() types.TickerAggregate {
	return types.TickerAggregate{
		VideoID:  r.VideoID,
		Ticker:   r.Ticker,
		Positive: fromJSON[string](r.Positive),
		Negative: fromJSON[string](r.Negative),
		Neutral:  fromJSON[string](r.Neutral),
	}
}

func toSummaryRow(s types.VideoSummary) videoSummaryRow {
	return videoSummaryRow{
		VideoID:            s.VideoID,
		Title:              s.Title,
		PublishedAt:        s.PublishedAt,
		SummaryText:        s.SummaryText,
		OverallExplanation: s.OverallExplanation,
		Movers:             toJSON(s.Movers),
		Risks:              toJSON(s.Risks),
		Opportunities:      toJSON(s.Opportunities),
		KeyPoints:          toJSON(s.KeyPoints),
		Tickers:            toJSON(s.Tickers),
		Sentiment:          s.Sentiment,
		Events:             toJSON(s.Events),
		Model:              s.Model,
		SummarizedAt:       s.SummarizedAt,
	}
}

func (r videoSummaryRow) toSummary() types.VideoSummary {
	return types.VideoSummary{
		VideoID:            r.VideoID,
		Title:              r.Title,
		PublishedAt:        r.PublishedAt,
		SummaryText:        r.SummaryText,
		OverallExplanation: r.OverallExplanation,
		Movers:             fromJSON[types.Mover](r.Movers),
		Risks:              fromJSON[string](r.Risks),
		Opportunities:      fromJSON[string](r.Opportunities),
		KeyPoints:          fromJSON[string](r.KeyPoints),
		Tickers:            fromJSON[string](r.Tickers),
		Sentiment:          r.Sentiment,
		Events:             fromJSON[types.Event](r.Events),
		Model:              r.Model,
		SummarizedAt:       r.SummarizedAt,
	}
}

func toDailyRow(s types.DailySummary) dailySummaryRow {
	return dailySummaryRow{
		MarketDate:       s.MarketDate,
		Title:            s.Title,
		OverallSummarize: s.OverallSummarize,
		SummaryText:      s.SummaryText,
		Movers:           toJSON(s.Movers),
		Risks:            toJSON(s.Risks),
		Opportunities:    toJSON(s.Opportunities),
		Model:            s.Model,
		GeneratedAt:      s.GeneratedAt,
	}
}

func (r dailySummaryRow) toDaily() types.DailySummary {
	return types.DailySummary{
		MarketDate:       r.MarketDate,
		Title:            r.Title,
		OverallSummarize: r.OverallSummarize,
		SummaryText:      r.SummaryText,
		Movers:           fromJSON[types.Mover](r.Movers),
		Risks:            fromJSON[string](r.Risks),
		Opportunities:    fromJSON[string](r.Opportunities),
		Model:            r.Model,
		GeneratedAt:      r.GeneratedAt,
	}
}
