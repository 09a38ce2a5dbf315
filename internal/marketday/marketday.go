// Package marketday computes calendar-day boundaries in the market's
// time zone. The write-side daily window and the read-side day filters
// both go through here so they never disagree on which videos belong to
// a given day.
package marketday

import (
	"fmt"
	"time"
)

// Clock returns the current time. Swappable in tests.
type Clock func() time.Time

// Calendar resolves instants to market dates and market dates to UTC
// bounds in one fixed location.
type Calendar struct {
	loc *time.Location
	now Clock
}

// NewCalendar loads the market time zone, e.g. "America/New_York".
// DST shifts are handled by the location database.
func NewCalendar(timezone string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading market timezone %q: %w", timezone, err)
	}
	return &Calendar{loc: loc, now: time.Now}, nil
}

// WithClock returns a copy using the given clock.
func (c *Calendar) WithClock(now Clock) *Calendar {
	return &Calendar{loc: c.loc, now: now}
}

// DateOf returns the market date (YYYY-MM-DD) the instant falls on.
func (c *Calendar) DateOf(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// Today returns the current market date.
func (c *Calendar) Today() string {
	return c.DateOf(c.now())
}

// Bounds returns the UTC half-open interval [start, end) covering the
// given market date (YYYY-MM-DD) in the market time zone.
func (c *Calendar) Bounds(marketDate string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", marketDate, c.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing market date %q: %w", marketDate, err)
	}
	start := day
	end := day.AddDate(0, 0, 1)
	return start.UTC(), end.UTC(), nil
}

// Contains reports whether the instant falls on the given market date.
func (c *Calendar) Contains(marketDate string, t time.Time) (bool, error) {
	start, end, err := c.Bounds(marketDate)
	if err != nil {
		return false, err
	}
	u := t.UTC()
	return !u.Before(start) && u.Before(end), nil
}
