// Package runlog appends per-run pipeline records to daily JSONL files.
package runlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu  sync.Mutex
	dir string
)

// SetDir points the log directory somewhere other than the default.
// The PIPELINE_LOG_DIR environment variable still wins.
func SetDir(d string) {
	mu.Lock()
	defer mu.Unlock()
	dir = d
}

// RunEntry records one pipeline run.
type RunEntry struct {
	Time         string         `json:"time"`
	RunID        string         `json:"run_id"`
	MarketDate   string         `json:"market_date"`
	Discovered   int            `json:"discovered"`
	Processed    int            `json:"processed"`
	Skipped      int            `json:"skipped"`
	NoTranscript int            `json:"no_transcript"`
	Failed       int            `json:"failed"`
	DurationMs   int64          `json:"duration_ms"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// VideoEntry records the outcome of one video within a run.
type VideoEntry struct {
	Time    string `json:"time"`
	RunID   string `json:"run_id"`
	VideoID string `json:"video_id"`
	Outcome string `json:"outcome"` // processed, skipped, no-transcript, failed
	Tickers int    `json:"tickers"`
	Model   string `json:"model,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func logDir() string {
	if v := os.Getenv("PIPELINE_LOG_DIR"); v != "" {
		return v
	}
	if dir != "" {
		return dir
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".jsonl")
}

func videosFilepath(t time.Time) string {
	return filepath.Join(logDir(), "videos", t.UTC().Format("2006-01-02")+".jsonl")
}

// AppendRun writes the run record to today's file.
func AppendRun(e RunEntry) error {
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(dailyFilepath(now), e)
}

// AppendVideo writes a per-video record to today's videos file.
func AppendVideo(e VideoEntry) error {
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(videosFilepath(now), e)
}

func appendLine(path string, v any) error {
	mu.Lock()
	defer mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips log files older than retentionDays and removes the
// originals. A non-positive retention disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(logDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}
		if e3 := gzipFile(p, gz); e3 != nil {
			return nil
		}
		_ = os.Remove(p)
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		return err
	}
	return gw.Close()
}
