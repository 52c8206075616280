// Package pipeline implements the per-recording processing chain: probe the
// recording, demux its audio, transcribe and sample frames concurrently,
// then render the feedback report.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/markupr/markupr/internal/asr"
	"github.com/markupr/markupr/internal/ffmpeg"
	"github.com/markupr/markupr/internal/logging"
	"github.com/markupr/markupr/internal/naming"
	"github.com/markupr/markupr/internal/report"
	"github.com/markupr/markupr/internal/watch"
)

// DefaultFrameIntervalSec is how often a frame is sampled from the
// recording when no interval is configured.
const DefaultFrameIntervalSec = 5

// Compile-time check that Runner satisfies the watcher's collaborator
// interface.
var _ watch.Pipeline = (*Runner)(nil)

// Runner runs the full processing chain for one recording. Runs for
// distinct recordings are independent; the Runner keeps no per-run state.
type Runner struct {
	asr           asr.Client
	writer        *report.Writer
	logger        logging.Logger
	language      string
	frameInterval int

	// Hooks over the external binaries, swapped out in tests.
	execFn  func(ctx context.Context, args []string, verbose bool) ffmpeg.ExecResult
	probeFn func(ctx context.Context, path string) (float64, error)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the operational logger.
func WithLogger(l logging.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithLanguage forces the transcription language instead of auto-detection.
func WithLanguage(lang string) RunnerOption {
	return func(r *Runner) {
		r.language = lang
	}
}

// WithFrameInterval sets the seconds between sampled frames.
func WithFrameInterval(sec int) RunnerOption {
	return func(r *Runner) {
		if sec > 0 {
			r.frameInterval = sec
		}
	}
}

// NewRunner creates a pipeline runner transcribing against the given ASR
// client.
func NewRunner(client asr.Client, opts ...RunnerOption) *Runner {
	r := &Runner{
		asr:           client,
		writer:        report.NewWriter(),
		logger:        logging.Nop(),
		frameInterval: DefaultFrameIntervalSec,
		execFn:        ffmpeg.Execute,
		probeFn:       ffmpeg.ProbeDuration,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes one recording and returns what it produced.
func (r *Runner) Run(ctx context.Context, opts watch.PipelineOptions) (*watch.Result, error) {
	runID := uuid.NewString()[:8]
	started := time.Now()
	log := r.logger

	log.Info("pipeline run started",
		logging.String("run", runID),
		logging.String("video", opts.VideoPath),
	)

	duration, err := r.probeFn(ctx, opts.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("probe recording: %w", err)
	}

	workDir, err := os.MkdirTemp("", "markupr-"+runID+"-")
	if err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	wavPath := filepath.Join(workDir, "audio.wav")
	if res := r.execFn(ctx, ffmpeg.AudioExtractArgs(opts.VideoPath, wavPath, opts.Verbose), opts.Verbose); res.Err != nil {
		return nil, fmt.Errorf("extract audio: %w (%s)", res.Err, res.Stderr)
	}

	var (
		transcript *asr.Transcription
		frames     []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := r.asr.Transcribe(gctx, wavPath, asr.Options{Language: r.language})
		if err != nil {
			return fmt.Errorf("transcribe: %w", err)
		}
		transcript = t
		return nil
	})
	if !opts.SkipFrames {
		g.Go(func() error {
			f, err := r.extractFrames(gctx, opts)
			if err != nil {
				return err
			}
			frames = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	segments := make([]report.TranscriptSegment, 0, len(transcript.Segments))
	resultSegments := make([]watch.Segment, 0, len(transcript.Segments))
	for _, s := range transcript.Segments {
		segments = append(segments, report.TranscriptSegment{Start: s.Start, End: s.End, Text: s.Text})
		resultSegments = append(resultSegments, watch.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}

	outputPath, err := r.writer.Write(ctx, report.Options{
		OutputDir:       opts.OutputDir,
		SourcePath:      opts.VideoPath,
		Timestamp:       started,
		DurationSeconds: duration,
		RunID:           runID,
		Transcript:      segments,
		Frames:          frames,
	})
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	log.Info("pipeline run finished",
		logging.String("run", runID),
		logging.String("output", outputPath),
		logging.Duration("elapsed", time.Since(started)),
	)

	return &watch.Result{
		OutputPath:         outputPath,
		TranscriptSegments: resultSegments,
		ExtractedFrames:    frames,
		DurationSeconds:    duration,
	}, nil
}

// extractFrames samples frames into <outputDir>/<slug>-frames and returns
// the produced file paths in order.
func (r *Runner) extractFrames(ctx context.Context, opts watch.PipelineOptions) ([]string, error) {
	framesDir := filepath.Join(opts.OutputDir, naming.FramesDirName(opts.VideoPath))
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, fmt.Errorf("create frames directory: %w", err)
	}

	if res := r.execFn(ctx, ffmpeg.FrameSampleArgs(opts.VideoPath, framesDir, r.frameInterval, opts.Verbose), opts.Verbose); res.Err != nil {
		return nil, fmt.Errorf("extract frames: %w (%s)", res.Err, res.Stderr)
	}

	entries, err := os.ReadDir(framesDir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	var frames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		frames = append(frames, filepath.Join(framesDir, e.Name()))
	}
	sort.Strings(frames)
	return frames, nil
}
