// Package youtube discovers recently published videos through the
// YouTube Data API v3.
package youtube

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"ticker-digest/internal/api"
	"ticker-digest/internal/interfaces"
	"ticker-digest/internal/logger"
	"ticker-digest/internal/types"
)

const (
	baseURL        = "https://www.googleapis.com/youtube/v3"
	pageSize       = 50
	maxSearchPages = 4
)

// Source implements interfaces.VideoSource against the Data API.
type Source struct {
	client  *api.Client
	apiKey  string
	queries []string
	retry   *api.RetryConfig
}

var _ interfaces.VideoSource = (*Source)(nil)

// New reads YOUTUBE_API_KEY from the environment. queries are the search
// terms run per discovery pass.
func New(queries []string) (*Source, error) {
	apiKey := os.Getenv("YOUTUBE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY not set")
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no discovery queries configured")
	}
	return &Source{
		client: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(30*time.Second),
			api.WithLogging(true),
		),
		apiKey:  apiKey,
		queries: queries,
		retry:   api.DefaultRetryConfig(),
	}, nil
}

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			PublishedAt  time.Time `json:"publishedAt"`
			Title        string    `json:"title"`
			Description  string    `json:"description"`
			ChannelTitle string    `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// Discover runs every configured query and returns de-duplicated videos
// published within the lookback window, capped at maxCount.
func (s *Source) Discover(ctx context.Context, lookback time.Duration, maxCount int, language string) ([]types.VideoMetadata, error) {
	publishedAfter := time.Now().UTC().Add(-lookback).Format(time.RFC3339)

	seen := make(map[string]bool)
	var videos []types.VideoMetadata
	for _, query := range s.queries {
		found, err := s.search(ctx, query, publishedAfter, language, maxCount-len(videos))
		if err != nil {
			// One failing query must not sink the whole discovery pass.
			logger.Warn(ctx, "Discovery query failed", "query", query, "error", err)
			continue
		}
		for _, v := range found {
			if seen[v.VideoID] {
				continue
			}
			seen[v.VideoID] = true
			videos = append(videos, v)
		}
		if len(videos) >= maxCount {
			videos = videos[:maxCount]
			break
		}
	}

	if err := s.fillDurations(ctx, videos); err != nil {
		logger.Warn(ctx, "Fetching video durations failed", "error", err)
	}

	logger.Info(ctx, "Discovery complete", "videos", len(videos), "queries", len(s.queries))
	return videos, nil
}

func (s *Source) search(ctx context.Context, query, publishedAfter, language string, remaining int) ([]types.VideoMetadata, error) {
	var videos []types.VideoMetadata
	pageToken := ""
	for page := 0; page < maxSearchPages; page++ {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("type", "video")
		params.Set("order", "date")
		params.Set("q", query)
		params.Set("publishedAfter", publishedAfter)
		params.Set("maxResults", fmt.Sprintf("%d", pageSize))
		params.Set("key", s.apiKey)
		if language != "" {
			params.Set("relevanceLanguage", language)
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		req := api.NewRequest("GET", "/search?"+params.Encode()).WithContext(ctx)
		resp, err := s.client.DoWithRetry(req, s.retry)
		if err != nil {
			return nil, err
		}

		var parsed searchResponse
		if err := resp.ParseJSON(&parsed); err != nil {
			return nil, err
		}
		for _, item := range parsed.Items {
			if item.ID.VideoID == "" {
				continue
			}
			videos = append(videos, types.VideoMetadata{
				VideoID:     item.ID.VideoID,
				Title:       item.Snippet.Title,
				Channel:     item.Snippet.ChannelTitle,
				PublishedAt: item.Snippet.PublishedAt,
				Description: item.Snippet.Description,
			})
			if len(videos) >= remaining {
				return videos, nil
			}
		}

		pageToken = parsed.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return videos, nil
}

// fillDurations batches a videos.list call for ISO-8601 durations.
func (s *Source) fillDurations(ctx context.Context, videos []types.VideoMetadata) error {
	if len(videos) == 0 {
		return nil
	}
	ids := make([]string, 0, len(videos))
	index := make(map[string]int, len(videos))
	for i, v := range videos {
		ids = append(ids, v.VideoID)
		index[v.VideoID] = i
	}

	for start := 0; start < len(ids); start += pageSize {
		end := start + pageSize
		if end > len(ids) {
			end = len(ids)
		}
		params := url.Values{}
		params.Set("part", "contentDetails")
		params.Set("id", strings.Join(ids[start:end], ","))
		params.Set("key", s.apiKey)

		resp, err := s.client.GET(ctx, "/videos?"+params.Encode())
		if err != nil {
			return err
		}
		var parsed videosResponse
		if err := resp.ParseJSON(&parsed); err != nil {
			return err
		}
		for _, item := range parsed.Items {
			if i, ok := index[item.ID]; ok {
				videos[i].Duration = item.ContentDetails.Duration
			}
		}
	}
	return nil
}
