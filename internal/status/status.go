// Package status summarizes a watch session by parsing the audit log the
// watcher appends to. It reads the watcher's artifacts; it never talks to
// the watcher itself.
package status

import (
	"bufio"
	"os"
	"strings"
	"time"
)

// Stats holds what the audit log records about completed runs.
type Stats struct {
	FilesProcessed int
	LastProcessed  *Entry
}

// Entry is one completed run parsed from the audit log.
type Entry struct {
	Timestamp time.Time
	Source    string
	Output    string
}

// ParseWatchLog parses the audit log at path. A missing file yields empty
// stats, matching a watch directory nothing has been processed in yet.
func ParseWatchLog(path string) (*Stats, error) {
	stats := &Stats{}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		entry, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		stats.FilesProcessed++
		stats.LastProcessed = entry
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// parseLine reads one audit line: <RFC3339>\t<source>\t-> <output>.
func parseLine(line string) (*Entry, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) != 3 {
		return nil, false
	}

	ts, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return nil, false
	}

	output := strings.TrimPrefix(parts[2], "-> ")
	if parts[1] == "" || output == "" {
		return nil, false
	}

	return &Entry{Timestamp: ts, Source: parts[1], Output: output}, true
}

// FormatTimestamp formats a timestamp for display.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
