package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ProbeDuration runs a single ffprobe JSON call against path and returns
// the container duration in seconds.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseDuration(out)
}

// ParseDuration converts raw ffprobe JSON output into a duration in
// seconds. Exported for testing without a real ffprobe binary.
func ParseDuration(data []byte) (float64, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	if raw.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe output has no duration")
	}
	d, err := strconv.ParseFloat(raw.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw.Format.Duration, err)
	}
	return d, nil
}

// ffprobe JSON wire types, limited to what the pipeline reads.

type ffprobeOutput struct {
	Format ffprobeFormat `json:"format"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}
