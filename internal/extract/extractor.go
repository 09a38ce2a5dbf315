// Package extract finds ticker symbols in transcript chunks and
// categorizes supporting statements, combining a deterministic pattern
// scan with a generative call.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ticker-digest/internal/interfaces"
	"ticker-digest/internal/llm"
	"ticker-digest/internal/logger"
	"ticker-digest/internal/trace"
	"ticker-digest/internal/types"
)

const (
	maxPairsPerChunk    = 10
	maxBulletsPerBucket = 4
	maxChunkPromptChars = 12000
)

// tickerPattern matches explicit $SYMBOL mentions: 1-5 uppercase letters
// immediately following a dollar sign.
var tickerPattern = regexp.MustCompile(`\$([A-Z]{1,5})\b`)

// symbolPattern validates normalized ticker symbols from model output.
var symbolPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// Extractor extracts per-chunk ticker keypoints. The regex scan acts as
// a floor: an explicit $TICKER mention is never lost, even when the
// generative stage omits it or fails entirely.
type Extractor struct {
	completer interfaces.Completer
}

func New(completer interfaces.Completer) *Extractor {
	return &Extractor{completer: completer}
}

// Extract returns the ticker keypoints found in chunkText.
func (e *Extractor) Extract(ctx context.Context, chunkText string) []types.TickerKeypoints {
	ctx, span := trace.StartSpan(ctx, "extract-chunk-tickers")
	defer span.End()

	regexTickers := scanTickers(chunkText)

	raw, err := e.completer.Complete(ctx, buildPrompt(chunkText))
	if err != nil {
		logger.Fallback(ctx, "extraction", "generative call failed",
			"error", err, "regex_tickers", len(regexTickers))
		return regexOnly(regexTickers)
	}

	pairs := normalize(raw, regexTickers)
	if len(pairs) == 0 {
		return regexOnly(regexTickers)
	}
	return pairs
}

// scanTickers collects the unique symbols mentioned with the explicit
// $SYMBOL convention, sorted for deterministic output.
func scanTickers(text string) []string {
	seen := make(map[string]bool)
	for _, m := range tickerPattern.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// normalize coerces untrusted model output into valid keypoint rows and
// unions in any regex ticker the model missed.
func normalize(raw string, regexTickers []string) []types.TickerKeypoints {
	var pairs []types.TickerKeypoints
	seen := make(map[string]bool)

	if parsed, ok := llm.ExtractObject(raw); ok {
		for _, obj := range llm.ObjList(parsed["ticker_topic_pairs"], maxPairsPerChunk) {
			ticker := strings.ToUpper(llm.Str(obj["ticker"]))
			ticker = strings.TrimPrefix(ticker, "$")
			if ticker != types.MarketTicker && !symbolPattern.MatchString(ticker) {
				continue
			}
			if seen[ticker] {
				continue
			}
			seen[ticker] = true

			pairs = append(pairs, types.TickerKeypoints{
				Ticker:   ticker,
				Positive: llm.StrList(obj["positive_keypoints"], maxBulletsPerBucket),
				Negative: llm.StrList(obj["negative_keypoints"], maxBulletsPerBucket),
				Neutral:  llm.StrList(obj["neutral_keypoints"], maxBulletsPerBucket),
			})
		}
	}

	for _, t := range regexTickers {
		if !seen[t] {
			seen[t] = true
			pairs = append(pairs, types.TickerKeypoints{Ticker: t})
		}
	}
	return pairs
}

func regexOnly(tickers []string) []types.TickerKeypoints {
	out := make([]types.TickerKeypoints, 0, len(tickers))
	for _, t := range tickers {
		out = append(out, types.TickerKeypoints{Ticker: t})
	}
	return out
}

func buildPrompt(chunkText string) string {
	if len(chunkText) > maxChunkPromptChars {
		chunkText = chunkText[:maxChunkPromptChars]
	}

	return fmt.Sprintf(`From the transcript chunk below, extract up to 10 tickers (plus optional MARKET) and write concise, transcript-grounded keypoints.
Focus on HIGH-SIGNAL items: risks, opportunities, and catalysts/events (earnings, guidance changes, product launches, M&A, lawsuits, regulation, macro releases like CPI/FOMC/jobs, rate cuts/hikes).
If a statement is uncertain, preserve the uncertainty (e.g. "Speaker expects/might/could ...").

Transcript chunk (verbatim):
<chunk>
%s
</chunk>

Output requirements:
- Output ONE valid JSON object only (no markdown/code fences, no commentary).
- JSON schema: {"ticker_topic_pairs": [ ... ]}.
- Each item must be: {"ticker": "AAPL", "positive_keypoints": [...], "negative_keypoints": [...], "neutral_keypoints": [...]}
- ticker: uppercase letters only, 1-5 chars (no '$'). Use ticker "MARKET" for macro/market-wide items.
- Keypoints: short bullet-like strings. Prefer numbers + direction + timeframe/date when present. Max 4 per list.
- Categorize: upside/opportunities in positive_keypoints; risks/headwinds in negative_keypoints; dated facts/events (if not clearly +/-) in neutral_keypoints.
- Include explicit $TICKER mentions. Infer a ticker from a company name only when confident; otherwise omit it rather than guessing.
- If there are no relevant tickers or macro items, return {"ticker_topic_pairs": []}.`, chunkText)
}
