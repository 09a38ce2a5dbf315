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
	maxDailyMovers = 5
	maxDailyItems  = 12
	maxFallbackMov = 10
)

// DailySummarizer condenses all video summaries of one market day into
// a single digest.
type DailySummarizer struct {
	completer   interfaces.Completer
	budgetChars int
}

func NewDailySummarizer(completer interfaces.Completer, budgetChars int) *DailySummarizer {
	return &DailySummarizer{completer: completer, budgetChars: budgetChars}
}

// dailyItem is the compact per-video shape packed into the daily prompt.
type dailyItem struct {
	Title              string   `json:"title"`
	Tickers            []string `json:"tickers"`
	OverallExplanation string   `json:"overall_explanation"`
	KeyPoints          []string `json:"key_points"`
	Risks              []string `json:"risks"`
	Opportunities      []string `json:"opportunities"`
}

// Summarize builds the DailySummary for marketDate (YYYY-MM-DD). The
// aggregates of the day feed the deterministic fallback when the
// generative path cannot be used.
func (s *DailySummarizer) Summarize(ctx context.Context, marketDate string, summaries []types.VideoSummary, aggregates []types.TickerAggregate) types.DailySummary {
	ctx, span := trace.StartSpan(ctx, "summarize-daily")
	defer span.End()

	moverCap := maxDailyMovers
	daily := s.generative(ctx, marketDate, summaries)
	if daily == nil {
		logger.Fallback(ctx, "daily-summary", "deriving digest from aggregates", "market_date", marketDate)
		derived := deriveDailySummary(marketDate, aggregates)
		daily = &derived
		// The derived digest keeps the wider frequency-ranked mover list.
		moverCap = maxFallbackMov
	}

	finalizeDailySummary(daily, marketDate, moverCap)
	daily.MarketDate = marketDate
	daily.GeneratedAt = time.Now().UTC()
	return *daily
}

func (s *DailySummarizer) generative(ctx context.Context, marketDate string, summaries []types.VideoSummary) *types.DailySummary {
	items := make([]any, 0, len(summaries))
	for _, vs := range summaries {
		items = append(items, dailyItem{
			Title:              vs.Title,
			Tickers:            marketOnly(vs.Tickers),
			OverallExplanation: vs.OverallExplanation,
			KeyPoints:          vs.KeyPoints,
			Risks:              vs.Risks,
			Opportunities:      vs.Opportunities,
		})
	}
	payload, included := prompt.PackJSON(items, s.budgetChars)
	if included == 0 {
		return nil
	}

	raw, err := s.completer.Complete(ctx, buildDailyPrompt(marketDate, payload))
	if err != nil {
		logger.Fallback(ctx, "daily-summary", "generative call failed", "error", err, "market_date", marketDate)
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

	daily := &types.DailySummary{
		Title:            llm.Str(parsed["title"]),
		OverallSummarize: llm.Str(parsed["overall_summarize"]),
		SummaryText:      summaryText,
		Risks:            llm.StrList(parsed["risks"], 0),
		Opportunities:    llm.StrList(parsed["opportunities"], 0),
		Model:            s.completer.ModelTag(),
	}
	for _, obj := range llm.ObjList(parsed["movers"], 0) {
		daily.Movers = append(daily.Movers, types.Mover{
			Symbol:    strings.ToUpper(llm.Str(obj["symbol"])),
			Direction: normalizeDirection(llm.Str(obj["direction"])),
			Reason:    llm.Str(obj["reason"]),
		})
	}
	return daily
}

// deriveDailySummary builds the digest from the day's aggregates alone.
// Movers are the most-mentioned tickers, risks come from negative
// bullets and opportunities from positive ones.
func deriveDailySummary(marketDate string, aggregates []types.TickerAggregate) types.DailySummary {
	counts := make(map[string]int)
	var order []string
	for _, agg := range aggregates {
		if agg.Ticker == types.MarketTicker {
			continue
		}
		if counts[agg.Ticker] == 0 {
			order = append(order, agg.Ticker)
		}
		counts[agg.Ticker]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return order[i] < order[j]
	})
	if len(order) > maxFallbackMov {
		order = order[:maxFallbackMov]
	}

	daily := types.DailySummary{Model: DerivedModelTag}
	for _, sym := range order {
		noun := "videos"
		if counts[sym] == 1 {
			noun = "video"
		}
		daily.Movers = append(daily.Movers, types.Mover{
			Symbol:    sym,
			Direction: "mixed",
			Reason:    fmt.Sprintf("Mentioned in %d %s", counts[sym], noun),
		})
	}

	md := []string{"# Market Summary — " + marketDate, ""}
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
		}
		md = append(md, "")

		daily.Risks = append(daily.Risks, agg.Negative...)
		daily.Opportunities = append(daily.Opportunities, agg.Positive...)
	}
	daily.SummaryText = strings.TrimSpace(strings.Join(md, "\n"))
	return daily
}

// marketOnly keeps only the MARKET sentinel; per-video ticker detail is
// deliberately left out of the daily prompt to bound its size.
func marketOnly(tickers []string) []string {
	out := []string{}
	for _, t := range tickers {
		if t == types.MarketTicker {
			out = append(out, t)
		}
	}
	return out
}

func finalizeDailySummary(d *types.DailySummary, marketDate string, moverCap int) {
	if strings.TrimSpace(d.Title) == "" {
		d.Title = "Market Summary — " + marketDate
	}
	d.Risks = canonical.Dedupe(d.Risks, maxDailyItems)
	d.Opportunities = canonical.Dedupe(d.Opportunities, maxDailyItems)

	seen := make(map[string]bool)
	movers := make([]types.Mover, 0, len(d.Movers))
	for _, m := range d.Movers {
		sym := strings.ToUpper(strings.TrimSpace(m.Symbol))
		if sym == "" || sym == types.MarketTicker || seen[sym] {
			continue
		}
		if len(movers) >= moverCap {
			break
		}
		seen[sym] = true
		m.Symbol = sym
		movers = append(movers, m)
	}
	d.Movers = movers
}

func buildDailyPrompt(marketDate string, payload string) string {
	return fmt.Sprintf(`You are writing a one-day market digest from the summaries of all financial commentary videos published on %s.

Per-video summaries (JSON list):
%s

Output ONE valid JSON object only, no markdown fences, no prose outside the object, shaped as:
{
  "title": "short headline for the day",
  "overall_summarize": "plain-text overview, at most 6 sentences",
  "summary_text": "markdown digest of the day",
  "movers": [{"symbol": "AAPL", "direction": "up|down|mixed", "reason": "one sentence"}],
  "risks": ["..."],
  "opportunities": ["..."]
}
Limits: at most 5 movers (never MARKET), 12 risks, 12 opportunities. Use empty arrays or empty strings when not applicable; every key must be present.`, marketDate, payload)
}
