package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ExecResult holds the outcome of a single ffmpeg invocation.
type ExecResult struct {
	Stderr string
	Err    error
}

// Execute runs the given argument slice (args[0] is the binary). When
// verbose is set, stderr is tee'd to os.Stderr in real time; otherwise it is
// captured silently so failures can be reported with context.
func Execute(ctx context.Context, args []string, verbose bool) ExecResult {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderrBuf bytes.Buffer
	if verbose {
		cmd.Stderr = io.MultiWriter(&stderrBuf, os.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	if err != nil {
		err = fmt.Errorf("%s: %w", args[0], err)
	}
	return ExecResult{
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}
