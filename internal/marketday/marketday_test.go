package marketday

import (
	"testing"
	"time"
)

func TestDateOfCrossesUTCMidnight(t *testing.T) {
	c, err := NewCalendar("America/New_York")
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}

	// 01:30 UTC is still the previous evening in New York.
	utcEvening := time.Date(2026, 8, 29, 1, 30, 0, 0, time.UTC)
	if got := c.DateOf(utcEvening); got != "2026-08-28" {
		t.Errorf("Expected 2026-08-28, got %q", got)
	}
}

func TestBoundsDuringDST(t *testing.T) {
	c, err := NewCalendar("America/New_York")
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}

	// August is EDT (UTC-4).
	start, end, err := c.Bounds("2026-08-28")
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if want := time.Date(2026, 8, 28, 4, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("Expected start %v, got %v", want, start)
	}
	if want := time.Date(2026, 8, 29, 4, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("Expected end %v, got %v", want, end)
	}
}

func TestBoundsOutsideDST(t *testing.T) {
	c, err := NewCalendar("America/New_York")
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}

	// January is EST (UTC-5).
	start, _, err := c.Bounds("2026-01-15")
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if want := time.Date(2026, 1, 15, 5, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("Expected start %v, got %v", want, start)
	}
}

func TestContainsHalfOpen(t *testing.T) {
	c, err := NewCalendar("America/New_York")
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}

	end := time.Date(2026, 8, 29, 4, 0, 0, 0, time.UTC)
	if ok, _ := c.Contains("2026-08-28", end); ok {
		t.Error("Expected interval end exclusive")
	}
	if ok, _ := c.Contains("2026-08-28", end.Add(-time.Second)); !ok {
		t.Error("Expected last second of the day included")
	}
}

func TestTodayUsesClock(t *testing.T) {
	c, err := NewCalendar("America/New_York")
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}
	c = c.WithClock(func() time.Time {
		return time.Date(2026, 8, 29, 2, 0, 0, 0, time.UTC)
	})
	if got := c.Today(); got != "2026-08-28" {
		t.Errorf("Expected clock-driven date, got %q", got)
	}
}

func TestNewCalendarRejectsUnknownZone(t *testing.T) {
	if _, err := NewCalendar("Mars/Olympus"); err == nil {
		t.Error("Expected error for unknown zone")
	}
}
