// Package ffmpeg builds and runs the ffmpeg/ffprobe invocations the
// processing pipeline needs: audio demux for transcription, frame sampling
// for the report, and duration probing.
package ffmpeg

import (
	"fmt"
	"path/filepath"
)

// FramePattern is the printf pattern used for sampled frame files.
const FramePattern = "frame-%04d.png"

// AudioExtractArgs builds the argument slice that demuxes a recording's
// audio track to a 16 kHz mono wav, the input format the ASR service
// expects.
func AudioExtractArgs(videoPath, wavPath string, verbose bool) []string {
	args := preamble(verbose)
	args = append(args,
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		wavPath,
	)
	return args
}

// FrameSampleArgs builds the argument slice that samples one frame every
// intervalSec seconds into framesDir.
func FrameSampleArgs(videoPath, framesDir string, intervalSec int, verbose bool) []string {
	if intervalSec <= 0 {
		intervalSec = 5
	}
	args := preamble(verbose)
	args = append(args,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%d", intervalSec),
		filepath.Join(framesDir, FramePattern),
	)
	return args
}

func preamble(verbose bool) []string {
	args := []string{"ffmpeg", "-hide_banner", "-nostdin", "-y"}
	if verbose {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "error")
	}
	return args
}
