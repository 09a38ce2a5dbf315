// Package summarize rolls ticker aggregates up into per-video and
// per-day narratives.
package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"ticker-digest/internal/canonical"
	"ticker-digest/internal/interfaces"
	"ticker-digest/internal/llm"
	"ticker-digest/internal/logger"
	"ticker-digest/internal/prompt"
	"ticker-digest/internal/trace"
	"ticker-digest/internal/types"
)

const (
	maxMovers    = 5
	maxRisks     = 10
	maxEvents    = 10
	maxKeyPoints = 10

	// DerivedModelTag marks summaries produced by the deterministic
	// fallback so consumers can distinguish provenance from llm:* tags.
	DerivedModelTag = "derived-from-aggregates"
)

// VideoSummarizer merges the per-ticker aggregates of one video into an
// overall narrative.
type VideoSummarizer struct {
	completer   interfaces.Completer
	budgetChars int
}

func NewVideoSummarizer(completer interfaces.Completer, budgetChars int) *VideoSummarizer {
	return &VideoSummarizer{completer: completer, budgetChars: budgetChars}
}

// Summarize produces the VideoSummary for one video. The generative path
// is attempted first; any failure or unusable output degrades to the
// deterministic markdown rendering of the aggregates.
func (s *VideoSummarizer) Summarize(ctx context.Context, meta types.VideoMetadata, aggregates []types.TickerAggregate) types.VideoSummary {
	ctx, span := trace.StartSpan(ctx, "summarize-video")
	defer span.End()

	summary := s.generative(ctx, meta, aggregates)
	if summary == nil {
		logger.Fallback(ctx, "video-summary", "deriving summary from aggregates", "video_id", meta.VideoID)
		derived := deriveVideoSummary(meta, aggregates)
		summary = &derived
	}

	finalizeVideoSummary(summary)
	summary.VideoID = meta.VideoID
	summary.Title = meta.Title
	summary.PublishedAt = meta.PublishedAt
	summary.SummarizedAt = time.Now().UTC()
	return *summary
}

func (s *VideoSummarizer) generative(ctx context.Context, meta types.VideoMetadata, aggregates []types.TickerAggregate) *types.VideoSummary {
	items := make([]any, 0, len(aggregates))
	for _, a := range aggregates {
		items = append(items, a)
	}
	payload, included := prompt.PackJSON(items, s.budgetChars)
	if included == 0 {
		return nil
	}

	raw, err := s.completer.Complete(ctx, buildVideoPrompt(meta, payload))
	if err != nil {
		logger.Fallback(ctx, "video-summary", "generative call failed", "error", err, "video_id", meta.VideoID)
		return nil
	}

	parsed, ok := llm.ExtractObject(raw)
	if !ok {
		return nil
	}

	summaryText := llm.Str(parsed["summary_text"])
	if summaryText == "" {
		return nil
	}

	summary := &types.VideoSummary{
		SummaryText:        summaryText,
		OverallExplanation: llm.Str(parsed["overall_explanation"]),
		Risks:              llm.StrList(parsed["risks"], 0),
		Opportunities:      llm.StrList(parsed["opportunities"], 0),
		KeyPoints:          llm.StrList(parsed["key_points"], 0),
		Tickers:            llm.StrList(parsed["tickers"], 0),
		Sentiment:          normalizeSentiment(llm.Str(parsed["sentiment"])),
		Model:              s.completer.ModelTag(),
	}

	for _, obj := range llm.ObjList(parsed["movers"], 0) {
		summary.Movers = append(summary.Movers, types.Mover{
			Symbol:    strings.ToUpper(llm.Str(obj["symbol"])),
			Direction: normalizeDirection(llm.Str(obj["direction"])),
			Reason:    llm.Str(obj["reason"]),
		})
	}
	for _, obj := range llm.ObjList(parsed["events"], 0) {
		summary.Events = append(summary.Events, types.Event{
			Date:        llm.Str(obj["date"]),
			Timeframe:   llm.Str(obj["timeframe"]),
			Description: llm.Str(obj["description"]),
			Tickers:     llm.StrList(obj["tickers"], 0),
		})
	}

	return summary
}

// deriveVideoSummary renders aggregates into a markdown body with
// positive bullets mapped to opportunities and negative to risks.
func deriveVideoSummary(meta types.VideoMetadata, aggregates []types.TickerAggregate) types.VideoSummary {
	summary := types.VideoSummary{Model: DerivedModelTag}

	var md []string
	for _, agg := range aggregates {
		md = append(md, "## "+agg.Ticker)
		for _, section := range []struct {
			title   string
			bullets []string
		}{
			{"**Positive**", agg.Positive},
			{"**Negative**", agg.Negative},
			{"**Neutral**", agg.Neutral},
		} {
			if len(section.bullets) == 0 {
				continue
			}
			md = append(md, section.title)
			for _, b := range section.bullets {
				md = append(md, "- "+b)
			}
			summary.KeyPoints = append(summary.KeyPoints, section.bullets...)
		}
		md = append(md, "")

		summary.Opportunities = append(summary.Opportunities, agg.Positive...)
		summary.Risks = append(summary.Risks, agg.Negative...)
		summary.Tickers = append(summary.Tickers, agg.Ticker)
	}

	summary.SummaryText = strings.TrimSpace(strings.Join(md, "\n"))
	return summary
}

// finalizeVideoSummary enforces the summary invariants regardless of
// which path produced it: caps, canonical de-duplication, the ticker
// union rule, and key-point exclusion.
func finalizeVideoSummary(s *types.VideoSummary) {
	s.Risks = canonical.Dedupe(s.Risks, maxRisks)
	s.Opportunities = canonical.Dedupe(s.Opportunities, maxRisks)

	// Movers: dedupe by symbol, MARKET excluded, cap 5.
	moverSeen := make(map[string]bool)
	movers := make([]types.Mover, 0, len(s.Movers))
	for _, m := range s.Movers {
		sym := strings.ToUpper(strings.TrimSpace(m.Symbol))
		if sym == "" || sym == types.MarketTicker || moverSeen[sym] {
			continue
		}
		if len(movers) >= maxMovers {
			break
		}
		moverSeen[sym] = true
		m.Symbol = sym
		movers = append(movers, m)
	}
	s.Movers = movers

	// Events: dedupe by canonical description, cap 10.
	eventSeen := make(map[string]bool)
	events := make([]types.Event, 0, len(s.Events))
	for _, e := range s.Events {
		key := canonical.Key(e.Description)
		if key == "" || eventSeen[key] {
			continue
		}
		if len(events) >= maxEvents {
			break
		}
		eventSeen[key] = true
		events = append(events, e)
	}
	s.Events = events

	// Tickers: union of model list, mover symbols and event tickers.
	// MARKET is kept only when it is the sole ticker.
	tickerSeen := make(map[string]bool)
	var tickers []string
	addTicker := func(t string) {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || tickerSeen[t] {
			return
		}
		tickerSeen[t] = true
		tickers = append(tickers, t)
	}
	for _, t := range s.Tickers {
		addTicker(t)
	}
	for _, m := range s.Movers {
		addTicker(m.Symbol)
	}
	for _, e := range s.Events {
		for _, t := range e.Tickers {
			addTicker(t)
		}
	}
	if len(tickers) > 1 {
		filtered := tickers[:0]
		for _, t := range tickers {
			if t != types.MarketTicker {
				filtered = append(filtered, t)
			}
		}
		tickers = filtered
	}
	sort.Strings(tickers)
	s.Tickers = tickers

	// Key points must not canonically duplicate risks, opportunities or
	// event descriptions.
	taken := make(map[string]bool)
	for _, r := range s.Risks {
		taken[canonical.Key(r)] = true
	}
	for _, o := range s.Opportunities {
		taken[canonical.Key(o)] = true
	}
	for _, e := range s.Events {
		taken[canonical.Key(e.Description)] = true
	}
	kpSeen := make(map[string]bool)
	var keyPoints []string
	for _, kp := range s.KeyPoints {
		key := canonical.Key(kp)
		if key == "" || taken[key] || kpSeen[key] {
			continue
		}
		if len(keyPoints) >= maxKeyPoints {
			break
		}
		kpSeen[key] = true
		keyPoints = append(keyPoints, strings.TrimSpace(kp))
	}
	s.KeyPoints = keyPoints
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case types.SentimentBullish:
		return types.SentimentBullish
	case types.SentimentBearish:
		return types.SentimentBearish
	case types.SentimentMixed:
		return types.SentimentMixed
	case types.SentimentNeutral:
		return types.SentimentNeutral
	default:
		return ""
	}
}

func normalizeDirection(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "up":
		return "up"
	case "down":
		return "down"
	default:
		return "mixed"
	}
}

func buildVideoPrompt(meta types.VideoMetadata, payload string) string {
	return fmt.Sprintf(`You are writing an overall summary of one financial commentary video from its per-ticker aggregates.

Video title: %s
Channel: %s

Per-ticker aggregates (JSON list):
%s

Output ONE valid JSON object only, no markdown fences, no prose outside the object, shaped as:
{
  "summary_text": "markdown summary of the whole video, no curly braces in the text",
  "overall_explanation": "plain-text explanation, at most 5 sentences",
  "movers": [{"symbol": "AAPL", "direction": "up|down|mixed", "reason": "one sentence"}],
  "risks": ["..."],
  "opportunities": ["..."],
  "key_points": ["..."],
  "tickers": ["AAPL"],
  "sentiment": "bullish|bearish|mixed|neutral|null",
  "events": [{"date": "YYYY-MM-DD or null", "timeframe": "string or null", "description": "...", "tickers": ["AAPL"]}]
}
Limits: at most 5 movers (never MARKET), 10 risks, 10 opportunities, 10 key points, 10 events. Use empty arrays, empty strings or null when not applicable; every key must be present.`, meta.Title, meta.Channel, payload)
}
