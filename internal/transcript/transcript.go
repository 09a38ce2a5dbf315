// Package transcript fetches timed caption tracks by scraping a video's
// watch page for its player response and downloading the referenced
// timedtext track.
package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"ticker-digest/internal/api"
	"ticker-digest/internal/interfaces"
	"ticker-digest/internal/logger"
	"ticker-digest/internal/types"
)

const defaultWatchBase = "https://www.youtube.com/watch?v="

var captionTracksPattern = regexp.MustCompile(`"captionTracks":(\[.*?\])[,}]`)

// Source implements interfaces.TranscriptSource by scraping watch pages.
type Source struct {
	client    *api.Client
	watchBase string
	timeout   time.Duration
}

var _ interfaces.TranscriptSource = (*Source)(nil)

func New(timeout time.Duration) *Source {
	return &Source{
		client:    api.NewClient(api.WithTimeout(timeout)),
		watchBase: defaultWatchBase,
		timeout:   timeout,
	}
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
}

type timedtext struct {
	Texts []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

// Fetch returns the timed entries for videoID in the preferred language.
// Videos with disabled or missing captions yield an empty slice, not an
// error.
func (s *Source) Fetch(ctx context.Context, videoID, language string) ([]types.TranscriptEntry, error) {
	page, err := s.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("fetching watch page for %s: %w", videoID, err)
	}

	tracks := parseCaptionTracks(page)
	if len(tracks) == 0 {
		logger.Info(ctx, "No caption tracks available", "video_id", videoID)
		return []types.TranscriptEntry{}, nil
	}

	track := pickTrack(tracks, language)
	entries, err := s.fetchTrack(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetching caption track for %s: %w", videoID, err)
	}

	logger.Info(ctx, "Transcript fetched", "video_id", videoID, "entries", len(entries), "language", track.LanguageCode)
	return entries, nil
}

func (s *Source) fetchWatchPage(ctx context.Context, videoID string) (string, error) {
	c := colly.NewCollector(colly.MaxDepth(1))
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		for key, value := range api.BrowserHeaders() {
			r.Headers.Set(key, value)
		}
	})

	var page string
	c.OnResponse(func(r *colly.Response) {
		page = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		logger.Warn(ctx, "Watch page request failed", "video_id", videoID, "error", err)
	})

	if err := c.Visit(s.watchBase + videoID); err != nil {
		return "", err
	}
	c.Wait()

	if page == "" {
		return "", fmt.Errorf("empty watch page")
	}
	return page, nil
}

func parseCaptionTracks(page string) []captionTrack {
	match := captionTracksPattern.FindStringSubmatch(page)
	if match == nil {
		return nil
	}
	var tracks []captionTrack
	if err := json.Unmarshal([]byte(match[1]), &tracks); err != nil {
		return nil
	}
	return tracks
}

// pickTrack prefers a manual track in the requested language, then an
// auto-generated one, then the first track.
func pickTrack(tracks []captionTrack, language string) captionTrack {
	var asrMatch *captionTrack
	for i, t := range tracks {
		if !strings.HasPrefix(t.LanguageCode, language) {
			continue
		}
		if t.Kind != "asr" {
			return t
		}
		if asrMatch == nil {
			asrMatch = &tracks[i]
		}
	}
	if asrMatch != nil {
		return *asrMatch
	}
	return tracks[0]
}

func (s *Source) fetchTrack(ctx context.Context, trackURL string) ([]types.TranscriptEntry, error) {
	resp, err := s.client.GET(ctx, trackURL, api.BrowserHeaders())
	if err != nil {
		return nil, err
	}

	var parsed timedtext
	if err := xml.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing timedtext: %w", err)
	}

	entries := make([]types.TranscriptEntry, 0, len(parsed.Texts))
	for _, t := range parsed.Texts {
		text := cleanCaptionText(t.Body)
		if text == "" {
			continue
		}
		entries = append(entries, types.TranscriptEntry{
			Start:    t.Start,
			Duration: t.Dur,
			Text:     text,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Start < entries[j].Start })
	return entries, nil
}

// cleanCaptionText strips markup and entity escapes from a caption line.
// Tracks double-escape entities, so unescape runs before and after the
// markup pass.
func cleanCaptionText(raw string) string {
	text := html.UnescapeString(raw)
	if strings.ContainsRune(text, '<') {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err == nil {
			text = doc.Text()
		}
	}
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
