package runlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendRunWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PIPELINE_LOG_DIR", dir)

	entries := []RunEntry{
		{RunID: "run-1", MarketDate: "2026-08-28", Discovered: 5, Processed: 4, Skipped: 1},
		{RunID: "run-2", MarketDate: "2026-08-28", Discovered: 2, Processed: 0, Skipped: 2},
	}
	for _, e := range entries {
		if err := AppendRun(e); err != nil {
			t.Fatalf("AppendRun: %v", err)
		}
	}

	path := dailyFilepath(time.Now().UTC())
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening log file: %v", err)
	}
	defer f.Close()

	var lines []RunEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e RunEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("parsing line: %v", err)
		}
		lines = append(lines, e)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0].RunID != "run-1" || lines[1].RunID != "run-2" {
		t.Errorf("Unexpected entries: %+v", lines)
	}
	if lines[0].Time == "" {
		t.Error("Expected timestamp stamped on append")
	}
}

func TestAppendVideoSeparateFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PIPELINE_LOG_DIR", dir)

	if err := AppendVideo(VideoEntry{RunID: "run-1", VideoID: "vid1", Outcome: "processed", Tickers: 3}); err != nil {
		t.Fatalf("AppendVideo: %v", err)
	}
	if _, err := os.Stat(videosFilepath(time.Now().UTC())); err != nil {
		t.Errorf("Expected videos file created: %v", err)
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PIPELINE_LOG_DIR", dir)

	old := filepath.Join(dir, "2026-01-01.jsonl")
	if err := os.WriteFile(old, []byte(`{"run_id":"old"}`+"\n"), 0o644); err != nil {
		t.Fatalf("writing old file: %v", err)
	}
	past := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatalf("backdating: %v", err)
	}

	fresh := filepath.Join(dir, "2026-08-28.jsonl")
	if err := os.WriteFile(fresh, []byte(`{"run_id":"new"}`+"\n"), 0o644); err != nil {
		t.Fatalf("writing fresh file: %v", err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("CompressOlder: %v", err)
	}

	if _, err := os.Stat(old + ".gz"); err != nil {
		t.Errorf("Expected old file gzipped: %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("Expected original removed, got %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("Expected fresh file untouched: %v", err)
	}
}

func TestCompressOlderDisabled(t *testing.T) {
	t.Setenv("PIPELINE_LOG_DIR", t.TempDir())
	if err := CompressOlder(0); err != nil {
		t.Errorf("Expected no-op, got %v", err)
	}
}
