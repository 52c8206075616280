package watch

import (
	"path/filepath"
	"strings"
)

// watchableExts are the recording containers markupr captures to.
var watchableExts = map[string]bool{
	".mov":  true,
	".mp4":  true,
	".webm": true,
}

// IsWatchable reports whether filename names a video recording the watcher
// should track. Some platform watch APIs emit events with an empty name on
// certain event types; those are never watchable.
func IsWatchable(filename string) bool {
	if filename == "" {
		return false
	}
	return watchableExts[strings.ToLower(filepath.Ext(filename))]
}
