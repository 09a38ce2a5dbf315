// Package aggregate merges chunk-level ticker keypoints into one bounded
// per-(video, ticker) aggregate.
package aggregate

import (
	"context"
	"fmt"
	"sort"

	"ticker-digest/internal/canonical"
	"ticker-digest/internal/interfaces"
	"ticker-digest/internal/llm"
	"ticker-digest/internal/logger"
	"ticker-digest/internal/prompt"
	"ticker-digest/internal/trace"
	"ticker-digest/internal/types"
)

const (
	maxBulletsPerBucket = 10
	maxTickersPerCall   = 25
	maxChunksPerTicker  = 10
)

// Aggregator merges keypoints with a generative call per video, falling
// back to deterministic merge per ticker whenever the model output for
// that ticker is missing or malformed.
type Aggregator struct {
	completer   interfaces.Completer
	budgetChars int
}

func New(completer interfaces.Completer, budgetChars int) *Aggregator {
	return &Aggregator{completer: completer, budgetChars: budgetChars}
}

// AggregateVideo produces one TickerAggregate per ticker mentioned in the
// video. One generative call covers every ticker; the call cost is
// amortized across the whole video rather than paid per ticker.
func (a *Aggregator) AggregateVideo(ctx context.Context, videoID string, grouped map[string][]types.TickerKeypoints) []types.TickerAggregate {
	ctx, span := trace.StartSpan(ctx, "aggregate-video-tickers")
	defer span.End()

	merged := a.generativeAggregates(ctx, grouped)

	tickers := make([]string, 0, len(grouped))
	for t := range grouped {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	out := make([]types.TickerAggregate, 0, len(tickers))
	for _, ticker := range tickers {
		agg, ok := merged[ticker]
		if !ok {
			agg = deterministicMerge(grouped[ticker])
		}
		agg.VideoID = videoID
		agg.Ticker = ticker
		out = append(out, agg)
	}
	return out
}

// generativeAggregates issues the per-video merge call and returns the
// subset of tickers for which the model produced a usable aggregate.
func (a *Aggregator) generativeAggregates(ctx context.Context, grouped map[string][]types.TickerKeypoints) map[string]types.TickerAggregate {
	payloadItems := buildPayload(grouped)
	if len(payloadItems) == 0 {
		return nil
	}

	payload, included := prompt.PackJSON(payloadItems, a.budgetChars)
	if included == 0 {
		return nil
	}

	raw, err := a.completer.Complete(ctx, buildPrompt(payload))
	if err != nil {
		logger.Fallback(ctx, "ticker-aggregation", "generative call failed", "error", err)
		return nil
	}

	parsed, ok := llm.ExtractObject(raw)
	if !ok {
		logger.Fallback(ctx, "ticker-aggregation", "unparseable model output")
		return nil
	}

	aggregates, _ := parsed["aggregates"].(map[string]any)
	if aggregates == nil {
		return nil
	}

	merged := make(map[string]types.TickerAggregate)
	for ticker, v := range aggregates {
		if _, known := grouped[ticker]; !known {
			continue
		}
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		agg := types.TickerAggregate{
			Positive: canonical.Dedupe(llm.StrList(obj["positive"], 0), maxBulletsPerBucket),
			Negative: canonical.Dedupe(llm.StrList(obj["negative"], 0), maxBulletsPerBucket),
			Neutral:  canonical.Dedupe(llm.StrList(obj["neutral"], 0), maxBulletsPerBucket),
		}
		if len(agg.Positive) == 0 && len(agg.Negative) == 0 && len(agg.Neutral) == 0 {
			continue
		}
		merged[ticker] = agg
	}
	return merged
}

// tickerPayload is one ticker's slice of the aggregation prompt.
type tickerPayload struct {
	Ticker    string                  `json:"ticker"`
	Keypoints []types.TickerKeypoints `json:"chunk_keypoints"`
}

// buildPayload selects the most-mentioned tickers (ties broken by
// symbol) and, per ticker, the most signal-dense chunk keypoints.
func buildPayload(grouped map[string][]types.TickerKeypoints) []any {
	type ranked struct {
		ticker   string
		mentions int
	}

	order := make([]ranked, 0, len(grouped))
	for t, kps := range grouped {
		order = append(order, ranked{ticker: t, mentions: len(kps)})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].mentions != order[j].mentions {
			return order[i].mentions > order[j].mentions
		}
		return order[i].ticker < order[j].ticker
	})
	if len(order) > maxTickersPerCall {
		order = order[:maxTickersPerCall]
	}

	items := make([]any, 0, len(order))
	for _, r := range order {
		items = append(items, tickerPayload{
			Ticker:    r.ticker,
			Keypoints: densestChunks(grouped[r.ticker]),
		})
	}
	return items
}

// densestChunks keeps the keypoint rows carrying the most bullets,
// preserving encounter order among the kept rows.
func densestChunks(kps []types.TickerKeypoints) []types.TickerKeypoints {
	if len(kps) <= maxChunksPerTicker {
		return kps
	}

	type indexed struct {
		idx     int
		density int
	}
	rows := make([]indexed, len(kps))
	for i, kp := range kps {
		rows[i] = indexed{idx: i, density: len(kp.Positive) + len(kp.Negative) + len(kp.Neutral)}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].density > rows[j].density })
	rows = rows[:maxChunksPerTicker]
	sort.Slice(rows, func(i, j int) bool { return rows[i].idx < rows[j].idx })

	out := make([]types.TickerKeypoints, 0, maxChunksPerTicker)
	for _, r := range rows {
		out = append(out, kps[r.idx])
	}
	return out
}

// deterministicMerge unions bullets per bucket in encounter order,
// dropping canonical duplicates, capped per bucket.
func deterministicMerge(kps []types.TickerKeypoints) types.TickerAggregate {
	var agg types.TickerAggregate
	posSeen := make(map[string]bool)
	negSeen := make(map[string]bool)
	neuSeen := make(map[string]bool)

	for _, kp := range kps {
		for _, b := range kp.Positive {
			agg.Positive = canonical.AppendUnique(agg.Positive, posSeen, b, maxBulletsPerBucket)
		}
		for _, b := range kp.Negative {
			agg.Negative = canonical.AppendUnique(agg.Negative, negSeen, b, maxBulletsPerBucket)
		}
		for _, b := range kp.Neutral {
			agg.Neutral = canonical.AppendUnique(agg.Neutral, neuSeen, b, maxBulletsPerBucket)
		}
	}
	return agg
}

func buildPrompt(payload string) string {
	return fmt.Sprintf(`You are merging chunk-level keypoints for every ticker discussed in one video.

Input (JSON list, one entry per ticker, each with its chunk-level keypoint objects):
%s

Task: for EACH ticker, merge its chunk keypoints into one object with de-duplicated positive, negative and neutral lists. Collapse near-duplicate statements, keep the most specific phrasing, max 10 bullets per list.

Output ONE valid JSON object only, no markdown fences, shaped as:
{"aggregates": {"AAPL": {"positive": ["..."], "negative": ["..."], "neutral": ["..."]}, "MARKET": {...}}}
Include every input ticker as a key.`, payload)
}
