// Package report renders the markdown feedback report produced for each
// processed recording. Report filenames follow the naming package's
// <slug>-feedback-<timestamp>.md contract, which is also what the watcher's
// skip detection matches against.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/markupr/markupr/internal/naming"
)

// TranscriptSegment is one timed span of transcript text to render.
type TranscriptSegment struct {
	Start float64
	End   float64
	Text  string
}

// Options configures one report.
type Options struct {
	OutputDir       string
	SourcePath      string
	Timestamp       time.Time
	DurationSeconds float64
	RunID           string
	Transcript      []TranscriptSegment
	Frames          []string
}

// Writer renders feedback reports to the output directory.
type Writer struct{}

// NewWriter creates a report writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write renders the report and returns the path of the created file. A
// second report for the same recording in the same second gets a numeric
// suffix instead of overwriting the first.
func (w *Writer) Write(ctx context.Context, opts Options) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if opts.OutputDir == "" {
		return "", fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	filename, err := w.pickFilename(opts)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(outputPath, []byte(render(opts)), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return outputPath, nil
}

// pickFilename derives the report filename, adding -2, -3, ... on
// collision.
func (w *Writer) pickFilename(opts Options) (string, error) {
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	name := naming.ReportFileName(opts.SourcePath, ts)
	if _, err := os.Stat(filepath.Join(opts.OutputDir, name)); os.IsNotExist(err) {
		return name, nil
	}

	base := strings.TrimSuffix(name, ".md")
	for i := 2; i <= 1000; i++ {
		candidate := fmt.Sprintf("%s-%d.md", base, i)
		if _, err := os.Stat(filepath.Join(opts.OutputDir, candidate)); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("too many reports with same timestamp")
}

func render(opts Options) string {
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("source: %s\n", filepath.Base(opts.SourcePath)))
	sb.WriteString(fmt.Sprintf("recorded: %s\n", ts.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("duration_seconds: %.1f\n", opts.DurationSeconds))
	if opts.RunID != "" {
		sb.WriteString(fmt.Sprintf("run: %s\n", opts.RunID))
	}
	sb.WriteString("type: feedback-report\n")
	sb.WriteString("---\n\n")

	sb.WriteString("# Feedback Report\n\n")
	sb.WriteString(fmt.Sprintf("**Source:** %s\n\n", filepath.Base(opts.SourcePath)))

	sb.WriteString("## Transcript\n\n")
	if len(opts.Transcript) == 0 {
		sb.WriteString("_No speech detected._\n")
	}
	for _, seg := range opts.Transcript {
		sb.WriteString(fmt.Sprintf("- **[%s – %s]** %s\n",
			formatOffset(seg.Start), formatOffset(seg.End), strings.TrimSpace(seg.Text)))
	}
	sb.WriteString("\n")

	if len(opts.Frames) > 0 {
		sb.WriteString("## Frames\n\n")
		for _, frame := range opts.Frames {
			rel := frame
			if r, err := filepath.Rel(opts.OutputDir, frame); err == nil {
				rel = r
			}
			sb.WriteString(fmt.Sprintf("![%s](%s)\n", filepath.Base(frame), rel))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatOffset renders a second offset as m:ss.
func formatOffset(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
