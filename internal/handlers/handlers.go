// Package handlers exposes the stored entity levels over a read-only
// HTTP surface. Day filtering uses the same market-day boundary rule as
// the write-side daily window.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticker-digest/internal/interfaces"
	"ticker-digest/internal/marketday"
)

// Server wires the read-only routes onto a gin engine.
type Server struct {
	store    interfaces.Store
	calendar *marketday.Calendar
}

func NewServer(store interfaces.Store, calendar *marketday.Calendar) *Server {
	return &Server{store: store, calendar: calendar}
}

// Router returns the configured engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.health)

	videos := r.Group("/videos")
	{
		videos.GET("", s.listVideoSummaries)
		videos.GET("/:video_id", s.getVideoSummary)
		videos.GET("/:video_id/aggregates", s.listVideoAggregates)
	}

	r.GET("/entities/:symbol/aggregates", s.listTickerAggregates)

	daily := r.Group("/daily-summaries")
	{
		daily.GET("/latest", s.getLatestDailySummary)
		daily.GET("/:market_date", s.getDailySummary)
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listVideoSummaries returns every video summary of one market day.
// The date query defaults to the current market day.
func (s *Server) listVideoSummaries(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = s.calendar.Today()
	}
	start, end, err := s.calendar.Bounds(date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	summaries, err := s.store.ListVideoSummariesBetween(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"market_date": date, "videos": summaries})
}

func (s *Server) getVideoSummary(c *gin.Context) {
	summary, err := s.store.GetVideoSummary(c.Request.Context(), c.Param("video_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video summary not found"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) listVideoAggregates(c *gin.Context) {
	aggs, err := s.store.ListTickerAggregates(c.Request.Context(), c.Param("video_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"aggregates": aggs})
}

func (s *Server) listTickerAggregates(c *gin.Context) {
	aggs, err := s.store.ListTickerAggregatesByTicker(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": c.Param("symbol"), "aggregates": aggs})
}

func (s *Server) getDailySummary(c *gin.Context) {
	s.respondDailySummary(c, c.Param("market_date"))
}

func (s *Server) getLatestDailySummary(c *gin.Context) {
	s.respondDailySummary(c, s.calendar.Today())
}

func (s *Server) respondDailySummary(c *gin.Context, marketDate string) {
	daily, err := s.store.GetDailySummary(c.Request.Context(), marketDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if daily == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "daily summary not found"})
		return
	}
	c.JSON(http.StatusOK, daily)
}
