package status

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".markupr-watch.log")
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}
	return path
}

func TestParseWatchLog(t *testing.T) {
	path := writeLog(t,
		"2026-02-14T12:00:00Z\t/rec/clip.mov\t-> /out/clip-feedback-20260214-120000.md\n"+
			"2026-02-14T13:30:00Z\t/rec/other.mp4\t-> /out/other-feedback-20260214-133000.md\n")

	stats, err := ParseWatchLog(path)
	if err != nil {
		t.Fatalf("ParseWatchLog failed: %v", err)
	}

	if stats.FilesProcessed != 2 {
		t.Errorf("expected 2 processed, got %d", stats.FilesProcessed)
	}
	last := stats.LastProcessed
	if last == nil {
		t.Fatal("expected a last entry")
	}
	if last.Source != "/rec/other.mp4" {
		t.Errorf("unexpected last source: %s", last.Source)
	}
	if last.Output != "/out/other-feedback-20260214-133000.md" {
		t.Errorf("unexpected last output: %s", last.Output)
	}
	want := time.Date(2026, 2, 14, 13, 30, 0, 0, time.UTC)
	if !last.Timestamp.Equal(want) {
		t.Errorf("unexpected timestamp: %v", last.Timestamp)
	}
}

func TestParseWatchLog_MissingFile(t *testing.T) {
	stats, err := ParseWatchLog(filepath.Join(t.TempDir(), "nope.log"))
	if err != nil {
		t.Fatalf("missing log must yield empty stats, got error: %v", err)
	}
	if stats.FilesProcessed != 0 || stats.LastProcessed != nil {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}

func TestParseWatchLog_SkipsMalformedLines(t *testing.T) {
	path := writeLog(t,
		"garbage line\n"+
			"2026-02-14T12:00:00Z\tonly-two-fields\n"+
			"not-a-time\t/rec/a.mov\t-> /out/a.md\n"+
			"2026-02-14T12:00:00Z\t/rec/clip.mov\t-> /out/clip-feedback-20260214-120000.md\n"+
			"\n")

	stats, err := ParseWatchLog(path)
	if err != nil {
		t.Fatalf("ParseWatchLog failed: %v", err)
	}
	if stats.FilesProcessed != 1 {
		t.Errorf("expected 1 valid entry, got %d", stats.FilesProcessed)
	}
	if stats.LastProcessed == nil || stats.LastProcessed.Source != "/rec/clip.mov" {
		t.Errorf("unexpected last entry: %+v", stats.LastProcessed)
	}
}

func TestParseLine(t *testing.T) {
	entry, ok := parseLine("2026-02-14T12:00:00Z\t/rec/clip.mov\t-> /out/report.md")
	if !ok {
		t.Fatal("expected valid line to parse")
	}
	if entry.Source != "/rec/clip.mov" || entry.Output != "/out/report.md" {
		t.Errorf("unexpected entry: %+v", entry)
	}

	for _, bad := range []string{
		"",
		"a\tb",
		"a\tb\tc\td",
		"2026-02-14T12:00:00Z\t\t-> /out/report.md",
		"2026-02-14T12:00:00Z\t/rec/clip.mov\t-> ",
	} {
		if _, ok := parseLine(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}
