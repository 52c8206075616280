// Package naming derives every filename markupr writes or matches for a
// source recording. The watcher's skip detection and the report writer both
// go through this package so they can never disagree about what a report for
// a given recording is called.
package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// WatchLogName is the audit log kept inside the watch directory.
const WatchLogName = ".markupr-watch.log"

// DefaultOutputDirName is created under the watch directory when no explicit
// output directory is configured.
const DefaultOutputDirName = "markupr-output"

// ReportTimeFormat is the timestamp embedded in report filenames.
const ReportTimeFormat = "20060102-150405"

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Slug converts a source filename into the identifier used for its output
// artifacts: extension stripped, every run of non-alphanumeric characters
// collapsed to a single hyphen. "bad (video).mov" yields "bad-video-".
func Slug(sourceFilename string) string {
	base := filepath.Base(sourceFilename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return nonAlnum.ReplaceAllString(base, "-")
}

// FeedbackPrefix is the filename prefix shared by every report generated for
// the given source recording.
func FeedbackPrefix(sourceFilename string) string {
	return Slug(sourceFilename) + "-feedback-"
}

// ReportFileName builds the report filename for a recording processed at ts.
func ReportFileName(sourceFilename string, ts time.Time) string {
	return fmt.Sprintf("%s%s.md", FeedbackPrefix(sourceFilename), ts.Format(ReportTimeFormat))
}

// FramesDirName is the directory, relative to the output directory, holding
// frames extracted from the given source recording.
func FramesDirName(sourceFilename string) string {
	return Slug(sourceFilename) + "-frames"
}
