// Package watch implements markupr's watch mode: it monitors a directory
// for newly written recordings, decides via size polling when each file has
// finished being written, and feeds every finished recording into the
// processing pipeline exactly once.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/markupr/markupr/internal/logging"
)

// ErrWatchDirMissing is returned from Start when the configured watch
// directory does not exist.
var ErrWatchDirMissing = errors.New("watch directory does not exist")

// ErrAlreadyStarted is returned from Start when the watcher is already
// running.
var ErrAlreadyStarted = errors.New("watcher already started")

// Watcher owns the directory-watch handle and drives each detected path
// through the per-path state machine: classified, stability-checked, then
// handed to the pipeline at most once per watcher lifetime. Per-file
// failures are isolated; one bad recording never halts the watch.
type Watcher struct {
	cfg       Config
	pipeline  Pipeline
	callbacks Callbacks
	logger    logging.Logger

	registry *OutputRegistry
	detector *stabilityDetector
	watchLog *WatchLog

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error

	mu        sync.Mutex
	processed map[string]bool
	started   bool

	loopWG sync.WaitGroup
	runWG  sync.WaitGroup
}

// New creates a watcher. The pipeline is required; callbacks hooks and the
// logger are optional. Configuration is fixed for the watcher's lifetime.
func New(cfg Config, pipeline Pipeline, callbacks Callbacks, logger logging.Logger) (*Watcher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid watch config: %w", err)
	}
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	w := &Watcher{
		cfg:       cfg,
		pipeline:  pipeline,
		callbacks: callbacks,
		logger:    logger,
		registry:  NewOutputRegistry(cfg.OutputDir),
		watchLog:  NewWatchLog(cfg.WatchDir),
		done:      make(chan struct{}),
		processed: make(map[string]bool),
	}
	w.detector = newStabilityDetector(cfg, w.logf, w.handleStable)
	return w, nil
}

// Start validates the directories, seeds the processed set from existing
// reports, opens the watch handle, and begins accepting events. A missing
// watch directory is fatal; everything after Start returns is handled
// without stopping the watch.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.started = true
	w.mu.Unlock()

	info, err := os.Stat(w.cfg.WatchDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrWatchDirMissing, w.cfg.WatchDir)
	}
	if err := os.MkdirAll(w.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	seeded := w.seedProcessed()
	if seeded > 0 {
		w.logf("Found %d previously processed recording(s)", seeded)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watch handle: %w", err)
	}
	if err := fsw.Add(w.cfg.WatchDir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", w.cfg.WatchDir, err)
	}
	w.fsw = fsw

	w.loopWG.Add(1)
	go w.run()

	w.logger.Info("watch mode started",
		logging.String("watch_dir", w.cfg.WatchDir),
		logging.String("output_dir", w.cfg.OutputDir),
	)
	return nil
}

// Stop closes the watch handle exactly once regardless of call count,
// cancels all pending stability polls, and makes subsequent events no-ops.
// In-flight pipeline runs are left to finish; use Wait to drain them.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.fsw != nil {
			w.stopErr = w.fsw.Close()
		}
		w.detector.cancelAll()
		w.loopWG.Wait()
		w.logger.Info("watch mode stopped")
	})
	return w.stopErr
}

// Wait blocks until every in-flight pipeline run has finished.
func (w *Watcher) Wait() {
	w.runWG.Wait()
}

// seedProcessed scans the watch directory and marks every recording that
// already has a feedback report as processed, so a restarted watcher does
// not reprocess old recordings. Returns the number of paths seeded.
func (w *Watcher) seedProcessed() int {
	entries, err := os.ReadDir(w.cfg.WatchDir)
	if err != nil {
		return 0
	}

	count := 0
	w.mu.Lock()
	for _, e := range entries {
		if e.IsDir() || !IsWatchable(e.Name()) {
			continue
		}
		if w.registry.HasExistingOutput(e.Name()) {
			w.processed[filepath.Join(w.cfg.WatchDir, e.Name())] = true
			count++
		}
	}
	w.mu.Unlock()
	return count
}

// run is the event loop. Watcher-level errors are logged and the watch
// keeps running; the underlying handle is not restarted.
func (w *Watcher) run() {
	defer w.loopWG.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logf("Watcher error: %v", err)
			w.logger.Error("watch handle error", err)
		}
	}
}

// handleEvent classifies one raw filesystem event. Rename-style and
// change-style events are treated uniformly; a path with an active pending
// check or an entry in the processed set is absorbed.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	select {
	case <-w.done:
		return
	default:
	}

	if !IsWatchable(filepath.Base(ev.Name)) {
		return
	}
	path := ev.Name

	w.mu.Lock()
	done := w.processed[path]
	w.mu.Unlock()
	if done {
		return
	}

	if !w.detector.begin(path) {
		return
	}

	w.callbacks.fileDetected(path)
	w.logf("Detected recording: %s", filepath.Base(path))
}

// handleStable runs once a path has shown two consecutive equal non-zero
// sizes. The processed set and the output registry are consulted
// immediately before invocation so a path is handed to the pipeline at most
// once per watcher lifetime.
func (w *Watcher) handleStable(path string) {
	select {
	case <-w.done:
		return
	default:
	}

	w.mu.Lock()
	done := w.processed[path]
	w.mu.Unlock()

	if done || w.registry.HasExistingOutput(filepath.Base(path)) {
		w.logf("Skipping (already processed): %s", filepath.Base(path))
		return
	}

	w.runWG.Add(1)
	go func() {
		defer w.runWG.Done()
		w.invoke(path)
	}()
}

// invoke runs the pipeline for one stabilized recording. Success marks the
// path processed, appends the audit log entry, and fires the completion
// callback; failure fires the error callback and leaves the path
// unprocessed so a user-triggered event can retry it.
func (w *Watcher) invoke(path string) {
	w.callbacks.processingStart(path)
	w.logger.Info("processing recording", logging.String("path", path))

	res, err := w.pipeline.Run(context.Background(), PipelineOptions{
		VideoPath:  path,
		OutputDir:  w.cfg.OutputDir,
		SkipFrames: w.cfg.SkipFrames,
		Verbose:    w.cfg.Verbose,
	})
	if err != nil {
		w.logger.Error("pipeline failed", err, logging.String("path", path))
		w.callbacks.processingError(path, err)
		return
	}

	w.mu.Lock()
	w.processed[path] = true
	w.mu.Unlock()

	if logErr := w.watchLog.Append(path, res.OutputPath); logErr != nil {
		w.logf("Could not append watch log: %v", logErr)
	}

	w.logger.Info("recording processed",
		logging.String("path", path),
		logging.String("output", res.OutputPath),
		logging.Float64("duration_s", res.DurationSeconds),
	)
	w.callbacks.processingComplete(path, res.OutputPath)
}

// logf feeds a formatted message to both the callback sink and the
// operational log.
func (w *Watcher) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.callbacks.log(msg)
	w.logger.Info(msg)
}
