package watch

import (
	"os"
	"strings"

	"github.com/markupr/markupr/internal/naming"
)

// OutputRegistry infers "already processed" by scanning the output directory
// for feedback reports whose names match a source recording's slug. It holds
// no state of its own; the filesystem is the source of truth, which is what
// lets a restarted watcher skip old recordings without persisting anything.
type OutputRegistry struct {
	outputDir string
}

// NewOutputRegistry creates a registry over the given output directory.
func NewOutputRegistry(outputDir string) *OutputRegistry {
	return &OutputRegistry{outputDir: outputDir}
}

// HasExistingOutput reports whether the output directory already holds a
// feedback report for the given source filename. A missing or unreadable
// output directory means nothing has been processed.
func (r *OutputRegistry) HasExistingOutput(sourceFilename string) bool {
	entries, err := os.ReadDir(r.outputDir)
	if err != nil {
		return false
	}

	prefix := naming.FeedbackPrefix(sourceFilename)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			return true
		}
	}
	return false
}
