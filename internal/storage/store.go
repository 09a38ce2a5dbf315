// Package storage persists every pipeline entity in SQLite behind idempotent
// upserts keyed by the entity's natural key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"ticker-digest/internal/interfaces"
	"ticker-digest/internal/types"
)

// Store implements interfaces.Store on a SQLite database.
type Store struct {
	db *gorm.DB
}

var _ interfaces.Store = (*Store)(nil)

// New opens (or creates) the database at path and migrates the schema.
func New(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}
	if err := db.AutoMigrate(
		&videoRow{},
		&chunkRow{},
		&chunkKeypointsRow{},
		&tickerAggregateRow{},
		&videoSummaryRow{},
		&videoEmbeddingRow{},
		&dailySummaryRow{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) UpsertVideo(ctx context.Context, video types.VideoMetadata) error {
	row := videoRow{
		VideoID:     video.VideoID,
		Title:       video.Title,
		Channel:     video.Channel,
		PublishedAt: video.PublishedAt,
		Description: video.Description,
		Duration:    video.Duration,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "channel", "published_at", "description", "duration"}),
	}).Create(&row).Error
}

func (s *Store) IsVideoProcessed(ctx context.Context, videoID string) (bool, error) {
	var row videoRow
	err := s.db.WithContext(ctx).Where("video_id = ?", videoID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return row.Processed, nil
}

func (s *Store) MarkVideoProcessed(ctx context.Context, videoID string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&videoRow{}).
		Where("video_id = ?", videoID).
		Updates(map[string]any{"processed": true, "processed_at": &now}).Error
}

func (s *Store) UpsertChunks(ctx context.Context, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]chunkRow, 0, len(chunks))
	for _, c := range chunks {
		rows = append(rows, chunkRow{
			VideoID:    c.VideoID,
			ChunkIndex: c.ChunkIndex,
			StartTime:  c.StartTime,
			EndTime:    c.EndTime,
			Text:       c.Text,
		})
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}, {Name: "chunk_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"start_time", "end_time", "text"}),
	}).Create(&rows).Error
}

func (s *Store) UpsertChunkKeypoints(ctx context.Context, videoID string, chunkIndex int, kp types.TickerKeypoints) error {
	row := toKeypointsRow(videoID, chunkIndex, kp)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}, {Name: "chunk_index"}, {Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{"positive", "negative", "neutral"}),
	}).Create(&row).Error
}

func (s *Store) ListChunkKeypoints(ctx context.Context, videoID string) (map[string][]types.TickerKeypoints, error) {
	var rows []chunkKeypointsRow
	err := s.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("ticker, chunk_index").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	byTicker := make(map[string][]types.TickerKeypoints)
	for _, r := range rows {
		byTicker[r.Ticker] = append(byTicker[r.Ticker], r.toKeypoints())
	}
	return byTicker, nil
}

func (s *Store) UpsertTickerAggregate(ctx context.Context, agg types.TickerAggregate) error {
	row := toAggregateRow(agg)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}, {Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{"positive", "negative", "neutral"}),
	}).Create(&row).Error
}

func (s *Store) ListTickerAggregates(ctx context.Context, videoID string) ([]types.TickerAggregate, error) {
	var rows []tickerAggregateRow
	err := s.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("ticker").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return aggregatesFromRows(rows), nil
}

func (s *Store) ListTickerAggregatesForVideos(ctx context.Context, videoIDs []string) ([]types.TickerAggregate, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}
	var rows []tickerAggregateRow
	err := s.db.WithContext(ctx).
		Where("video_id IN ?", videoIDs).
		Order("video_id, ticker").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return aggregatesFromRows(rows), nil
}

func (s *Store) ListTickerAggregatesByTicker(ctx context.Context, ticker string) ([]types.TickerAggregate, error) {
	var rows []tickerAggregateRow
	err := s.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("video_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return aggregatesFromRows(rows), nil
}

func aggregatesFromRows(rows []tickerAggregateRow) []types.TickerAggregate {
	aggs := make([]types.TickerAggregate, 0, len(rows))
	for _, r := range rows {
		aggs = append(aggs, r.toAggregate())
	}
	return aggs
}

func (s *Store) UpsertVideoSummary(ctx context.Context, summary types.VideoSummary) error {
	row := toSummaryRow(summary)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "published_at", "summary_text", "overall_explanation",
			"movers", "risks", "opportunities", "key_points", "tickers",
			"sentiment", "events", "model", "summarized_at",
		}),
	}).Create(&row).Error
}

func (s *Store) GetVideoSummary(ctx context.Context, videoID string) (*types.VideoSummary, error) {
	var row videoSummaryRow
	err := s.db.WithContext(ctx).Where("video_id = ?", videoID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	summary := row.toSummary()
	return &summary, nil
}

// ListVideoSummariesBetween returns summaries generated in [start, end).
func (s *Store) ListVideoSummariesBetween(ctx context.Context, start, end time.Time) ([]types.VideoSummary, error) {
	var rows []videoSummaryRow
	err := s.db.WithContext(ctx).
		Where("summarized_at >= ? AND summarized_at < ?", start, end).
		Order("summarized_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	summaries := make([]types.VideoSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, r.toSummary())
	}
	return summaries, nil
}

func (s *Store) UpsertVideoSummaryEmbedding(ctx context.Context, videoID, model string, vector []float32) error {
	row := videoEmbeddingRow{
		VideoID:   videoID,
		Model:     model,
		Vector:    toJSON(vector),
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"model", "vector", "updated_at"}),
	}).Create(&row).Error
}

func (s *Store) UpsertDailySummary(ctx context.Context, summary types.DailySummary) error {
	row := toDailyRow(summary)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "market_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "overall_summarize", "summary_text",
			"movers", "risks", "opportunities", "model", "generated_at",
		}),
	}).Create(&row).Error
}

func (s *Store) GetDailySummary(ctx context.Context, marketDate string) (*types.DailySummary, error) {
	var row dailySummaryRow
	err := s.db.WithContext(ctx).Where("market_date = ?", marketDate).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	daily := row.toDaily()
	return &daily, nil
}
