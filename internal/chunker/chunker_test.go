package chunker

import (
	"testing"

	"ticker-digest/internal/types"
)

func TestNewRejectsNonPositiveWindow(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("Expected error for zero window")
	}
	if _, err := New(-5); err == nil {
		t.Error("Expected error for negative window")
	}
}

func TestChunkWindowSplit(t *testing.T) {
	c, err := New(300)
	if err != nil {
		t.Fatal(err)
	}

	entries := []types.TranscriptEntry{
		{Start: 0, Duration: 5, Text: "x"},
		{Start: 4, Duration: 5, Text: "y"},
		{Start: 300, Duration: 5, Text: "z"},
	}

	chunks := c.Chunk("vid1", entries)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}

	if chunks[0].StartTime != 0 || chunks[0].EndTime != 9 {
		t.Errorf("Chunk 0 span = [%v,%v], want [0,9]", chunks[0].StartTime, chunks[0].EndTime)
	}
	if chunks[0].Text != "x y" {
		t.Errorf("Chunk 0 text = %q, want %q", chunks[0].Text, "x y")
	}
	if chunks[1].StartTime != 300 || chunks[1].EndTime != 305 {
		t.Errorf("Chunk 1 span = [%v,%v], want [300,305]", chunks[1].StartTime, chunks[1].EndTime)
	}
	if chunks[1].Text != "z" {
		t.Errorf("Chunk 1 text = %q, want %q", chunks[1].Text, "z")
	}
}

func TestChunkIndicesDense(t *testing.T) {
	c, _ := New(10)

	entries := []types.TranscriptEntry{
		{Start: 0, Duration: 5, Text: "a"},
		{Start: 20, Duration: 5, Text: "b"},
		{Start: 40, Duration: 5, Text: "c"},
	}

	chunks := c.Chunk("vid1", entries)
	for i, ch := range chunks {
		if ch.ChunkIndex != i {
			t.Errorf("Chunk %d has index %d, want dense sequence", i, ch.ChunkIndex)
		}
		if ch.VideoID != "vid1" {
			t.Errorf("Chunk %d has video_id %q", i, ch.VideoID)
		}
	}
}

func TestChunkDropsBlankEntries(t *testing.T) {
	c, _ := New(300)

	entries := []types.TranscriptEntry{
		{Start: 0, Duration: 5, Text: "   "},
		{Start: 5, Duration: 5, Text: ""},
		{Start: 10, Duration: 5, Text: "hello"},
	}

	chunks := c.Chunk("vid1", entries)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "hello" {
		t.Errorf("Chunk text = %q, want %q", chunks[0].Text, "hello")
	}
}

func TestChunkAllBlank(t *testing.T) {
	c, _ := New(300)
	chunks := c.Chunk("vid1", []types.TranscriptEntry{{Start: 0, Duration: 5, Text: " "}})
	if len(chunks) != 0 {
		t.Errorf("Expected no chunks for blank transcript, got %d", len(chunks))
	}
}

func TestChunkSortsUnorderedEntries(t *testing.T) {
	c, _ := New(300)

	entries := []types.TranscriptEntry{
		{Start: 10, Duration: 2, Text: "second"},
		{Start: 0, Duration: 2, Text: "first"},
	}

	chunks := c.Chunk("vid1", entries)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "first second" {
		t.Errorf("Chunk text = %q, want sorted order", chunks[0].Text)
	}
	if chunks[0].StartTime != 0 {
		t.Errorf("Chunk start = %v, want 0", chunks[0].StartTime)
	}
}

func TestChunkWindowInvariant(t *testing.T) {
	c, _ := New(60)

	var entries []types.TranscriptEntry
	for i := 0; i < 100; i++ {
		entries = append(entries, types.TranscriptEntry{
			Start:    float64(i) * 7,
			Duration: 8,
			Text:     "word",
		})
	}

	maxEntryDur := 8.0
	for _, ch := range c.Chunk("vid1", entries) {
		if span := ch.EndTime - ch.StartTime; span > 60+maxEntryDur {
			t.Errorf("Chunk %d span %v exceeds window+maxDuration", ch.ChunkIndex, span)
		}
	}
}
