package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/markupr/markupr/internal/naming"
)

// WatchLog is the append-only audit trail of completed runs, kept next to
// the recordings at <watchDir>/.markupr-watch.log. Appends are best effort:
// the log is an audit convenience, not a correctness dependency, and a
// failed append must never block a completion callback.
type WatchLog struct {
	path string
}

// NewWatchLog creates the audit log for the given watch directory.
func NewWatchLog(watchDir string) *WatchLog {
	return &WatchLog{path: filepath.Join(watchDir, naming.WatchLogName)}
}

// Path returns the location of the log file.
func (l *WatchLog) Path() string { return l.path }

// Append records one completed run as a single human-readable line.
func (l *WatchLog) Append(sourcePath, outputPath string) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open watch log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\t-> %s\n", time.Now().Format(time.RFC3339), sourcePath, outputPath)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append watch log: %w", err)
	}
	return nil
}
