// Package chunker segments a time-ordered transcript into bounded-duration
// text chunks keyed by (video_id, chunk_index).
package chunker

import (
	"errors"
	"sort"
	"strings"

	"ticker-digest/internal/types"
)

// Chunker accumulates transcript entries into chunks whose covered time
// span stays within a configured window. A chunk may exceed the window
// slightly rather than split an entry in the middle.
type Chunker struct {
	window float64
}

// New returns a Chunker with the given window in seconds. A non-positive
// window is a configuration error.
func New(windowSeconds float64) (*Chunker, error) {
	if windowSeconds <= 0 {
		return nil, errors.New("chunk window must be positive")
	}
	return &Chunker{window: windowSeconds}, nil
}

// Chunk splits entries into chunks. Entries with blank text are dropped,
// and the remainder is sorted by start time; the upstream source usually
// sorts already, but that is not assumed. Chunks with empty joined text
// are never emitted, so indices stay dense.
func (c *Chunker) Chunk(videoID string, entries []types.TranscriptEntry) []types.Chunk {
	kept := make([]types.TranscriptEntry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Text) != "" {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

	var (
		chunks     []types.Chunk
		parts      []string
		chunkStart float64
		chunkEnd   float64
		index      int
	)

	flush := func() {
		text := joinParts(parts)
		if text != "" {
			chunks = append(chunks, types.Chunk{
				VideoID:    videoID,
				ChunkIndex: index,
				StartTime:  chunkStart,
				EndTime:    chunkEnd,
				Text:       text,
			})
			index++
		}
		parts = parts[:0]
	}

	for _, e := range kept {
		entryEnd := e.Start
		if e.Duration > 0 {
			entryEnd = e.Start + e.Duration
		}

		if len(parts) == 0 {
			chunkStart = e.Start
			chunkEnd = entryEnd
			parts = append(parts, e.Text)
			continue
		}

		proposedEnd := chunkEnd
		if entryEnd > proposedEnd {
			proposedEnd = entryEnd
		}
		if proposedEnd-chunkStart > c.window {
			flush()
			chunkStart = e.Start
			chunkEnd = entryEnd
			parts = append(parts, e.Text)
		} else {
			chunkEnd = proposedEnd
			parts = append(parts, e.Text)
		}
	}
	flush()

	return chunks
}

func joinParts(parts []string) string {
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			trimmed = append(trimmed, s)
		}
	}
	return strings.Join(trimmed, " ")
}
