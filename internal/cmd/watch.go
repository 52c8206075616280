package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/markupr/markupr/internal/asr"
	"github.com/markupr/markupr/internal/config"
	"github.com/markupr/markupr/internal/logging"
	"github.com/markupr/markupr/internal/naming"
	"github.com/markupr/markupr/internal/pidfile"
	"github.com/markupr/markupr/internal/pipeline"
	"github.com/markupr/markupr/internal/status"
	"github.com/markupr/markupr/internal/watch"
)

// ErrNotRunning indicates watch mode is not running.
var ErrNotRunning = errors.New("watch mode is not running")

// ErrStaleProcess indicates the PID file exists but the process is gone.
var ErrStaleProcess = errors.New("stale PID file (process not running)")

// stopTimeout is the maximum wait for graceful shutdown before SIGKILL.
const stopTimeout = 10 * time.Second

// NewWatchCmd creates the watch command group.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage watch mode",
		Long:  "Commands for configuring and running the recording watcher",
	}

	cmd.AddCommand(NewWatchConfigCmd(nil))
	cmd.AddCommand(newWatchStartCmd())
	cmd.AddCommand(newWatchStopCmd())
	cmd.AddCommand(newWatchStatusCmd())

	return cmd
}

// NewWatchConfigCmd creates the config subcommand.
func NewWatchConfigCmd(prompter Prompter) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Configure watch mode",
		Long:  "Interactive configuration for watch mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := prompter
			if p == nil {
				p = NewStdinPrompter()
			}
			return runWatchConfig(cmd, p)
		},
	}
}

func runWatchConfig(cmd *cobra.Command, prompter Prompter) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Watch Mode Configuration")
	fmt.Fprintln(out, "========================")
	fmt.Fprintln(out, "")

	watchDir, err := promptRequired(prompter, "Recordings folder [required]: ")
	if err != nil {
		return err
	}

	apiURL, err := prompter.Prompt(fmt.Sprintf("Transcription API URL [default: %s]: ", config.DefaultAPIURL))
	if err != nil {
		return err
	}

	outputDir, err := prompter.Prompt("Report output folder [default: <recordings folder>/" + naming.DefaultOutputDirName + "]: ")
	if err != nil {
		return err
	}

	cfg := &config.Config{
		WatchDir:  watchDir,
		OutputDir: outputDir,
		APIURL:    apiURL,
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	path, _ := config.Path()
	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "Configuration saved to %s\n", path)
	return nil
}

// newWatchStartCmd creates the watch start command.
func newWatchStartCmd() *cobra.Command {
	var (
		flagDir        string
		flagOutput     string
		flagAPIURL     string
		flagSkipFrames bool
		flagVerbose    bool
		flagIntervalMs int
		flagChecks     int
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start watch mode in foreground",
		Long: `Start watch mode in foreground.

Watches the recordings folder for new videos, waits for each one to finish
being written, and runs the processing pipeline on it. Settings come from
~/.markupr/config.json; flags override the file.

Runs until interrupted with Ctrl+C or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigWithFlags(cmd, flagDir, flagOutput, flagAPIURL, flagSkipFrames, flagVerbose, flagIntervalMs, flagChecks)
			if err != nil {
				return err
			}
			return runWatchStart(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&flagDir, "dir", "", "recordings folder to watch")
	cmd.Flags().StringVar(&flagOutput, "output", "", "report output folder")
	cmd.Flags().StringVar(&flagAPIURL, "api-url", "", "transcription API URL")
	cmd.Flags().BoolVar(&flagSkipFrames, "skip-frames", false, "skip frame extraction")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "log every stability poll")
	cmd.Flags().IntVar(&flagIntervalMs, "interval", 0, "stability poll interval in milliseconds")
	cmd.Flags().IntVar(&flagChecks, "checks", 0, "max stability polls per detection")

	return cmd
}

// loadConfigWithFlags reads the settings file (a missing file is fine) and
// lets explicit flags override it.
func loadConfigWithFlags(cmd *cobra.Command, dir, output, apiURL string, skipFrames, verbose bool, intervalMs, checks int) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = &config.Config{}
	}

	if dir != "" {
		cfg.WatchDir = dir
	}
	if output != "" {
		cfg.OutputDir = output
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if cmd.Flags().Changed("skip-frames") {
		cfg.SkipFrames = skipFrames
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	if intervalMs > 0 {
		cfg.StabilityIntervalMs = intervalMs
	}
	if checks > 0 {
		cfg.StabilityChecks = checks
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration (run 'markupr watch config' or pass --dir): %w", err)
	}
	return cfg, nil
}

func runWatchStart(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	if _, err := pidfile.CleanStale(); err != nil {
		return fmt.Errorf("check PID file: %w", err)
	}
	if running, pid, err := pidfile.IsRunning(); err != nil {
		return fmt.Errorf("check PID file: %w", err)
	} else if running {
		return fmt.Errorf("watch mode already running (PID %d)", pid)
	}
	if err := pidfile.Write(os.Getpid()); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	defer pidfile.Remove()

	logger, err := logging.New(logging.DefaultConfig())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Close()

	client := asr.NewRetryClient(
		asr.NewWhisperClient(cfg.APIURL),
		asr.WithRetryCount(cfg.RetryCount),
		asr.WithLogger(logger.WithComponent("asr")),
	)
	runner := pipeline.NewRunner(client,
		pipeline.WithLogger(logger.WithComponent("pipeline")),
		pipeline.WithLanguage(cfg.Language),
		pipeline.WithFrameInterval(cfg.FrameIntervalSeconds),
	)

	watcher, err := watch.New(watch.Config{
		WatchDir:            cfg.WatchDir,
		OutputDir:           cfg.OutputDir,
		SkipFrames:          cfg.SkipFrames,
		Verbose:             cfg.Verbose,
		StabilityIntervalMs: cfg.StabilityIntervalMs,
		MaxStabilityChecks:  cfg.StabilityChecks,
	}, runner, watch.Callbacks{
		OnLog: func(msg string) {
			fmt.Fprintln(out, msg)
		},
		OnFileDetected: func(path string) {
			fmt.Fprintf(out, "Detected: %s\n", filepath.Base(path))
		},
		OnProcessingStart: func(path string) {
			fmt.Fprintf(out, "Processing: %s\n", filepath.Base(path))
		},
		OnProcessingComplete: func(path, outputPath string) {
			fmt.Fprintf(out, "Done: %s -> %s\n", filepath.Base(path), outputPath)
		},
		OnProcessingError: func(path string, err error) {
			fmt.Fprintf(out, "Failed: %s: %v\n", filepath.Base(path), err)
		},
	}, logger.WithComponent("watcher"))
	if err != nil {
		return err
	}

	if err := watcher.Start(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Watching: %s\n", cfg.WatchDir)
	fmt.Fprintf(out, "Output:   %s\n", cfg.OutputDir)
	fmt.Fprintln(out, "Press Ctrl+C to stop")
	fmt.Fprintln(out)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	fmt.Fprintf(out, "Received %s, shutting down...\n", sig)

	if err := watcher.Stop(); err != nil {
		logger.Error("error closing watch handle", err)
	}
	watcher.Wait()
	return nil
}

// newWatchStopCmd creates the watch stop command.
func newWatchStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop watch mode",
		Long: `Stop watch mode.

Reads the PID from ~/.markupr/watch.pid and sends SIGTERM for graceful
shutdown. If the process does not exit within 10 seconds, SIGKILL is sent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchStop(cmd)
		},
	}
}

func runWatchStop(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	pid, err := pidfile.Read()
	if err != nil {
		if errors.Is(err, pidfile.ErrNoPIDFile) {
			return ErrNotRunning
		}
		return fmt.Errorf("read PID file: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	if err := process.Signal(syscall.Signal(0)); err != nil {
		if removeErr := pidfile.Remove(); removeErr != nil {
			fmt.Fprintf(out, "Warning: failed to remove stale PID file: %v\n", removeErr)
		}
		return ErrStaleProcess
	}

	fmt.Fprintf(out, "Stopping watch mode (PID %d)...\n", pid)

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send SIGTERM: %w", err)
	}

	if !waitForExit(pid, stopTimeout) {
		fmt.Fprintln(out, "Process did not exit gracefully, sending SIGKILL...")
		if err := process.Signal(syscall.SIGKILL); err != nil {
			if !errors.Is(err, os.ErrProcessDone) {
				return fmt.Errorf("send SIGKILL: %w", err)
			}
		}
		waitForExit(pid, 2*time.Second)
	}

	if err := pidfile.Remove(); err != nil {
		fmt.Fprintf(out, "Warning: failed to remove PID file: %v\n", err)
	}

	fmt.Fprintln(out, "Watch mode stopped")
	return nil
}

// waitForExit polls until the process exits or the timeout is reached.
func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		process, err := os.FindProcess(pid)
		if err != nil {
			return true
		}
		if err := process.Signal(syscall.Signal(0)); err != nil {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// newWatchStatusCmd creates the watch status command.
func newWatchStatusCmd() *cobra.Command {
	var flagDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show watch mode status",
		Long:  "Show whether watch mode is running and what the audit log records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchStatus(cmd, flagDir)
		},
	}
	cmd.Flags().StringVar(&flagDir, "dir", "", "recordings folder (default from config)")
	return cmd
}

func runWatchStatus(cmd *cobra.Command, dir string) error {
	out := cmd.OutOrStdout()

	if dir == "" {
		cfg, err := config.Load()
		if err != nil {
			if os.IsNotExist(err) {
				return errors.New("no configuration found; run 'markupr watch config' or pass --dir")
			}
			return fmt.Errorf("load config: %w", err)
		}
		dir = cfg.WatchDir
	}

	running, pid, err := pidfile.IsRunning()
	if err != nil {
		return err
	}
	if running {
		fmt.Fprintln(out, "Status: running (PID "+strconv.Itoa(pid)+")")
	} else {
		fmt.Fprintln(out, "Status: stopped")
	}

	stats, err := status.ParseWatchLog(filepath.Join(dir, naming.WatchLogName))
	if err != nil {
		return fmt.Errorf("read watch log: %w", err)
	}

	fmt.Fprintf(out, "Processed recordings: %d\n", stats.FilesProcessed)
	if stats.LastProcessed != nil {
		fmt.Fprintf(out, "Last processed: %s (%s)\n",
			filepath.Base(stats.LastProcessed.Source),
			status.FormatTimestamp(stats.LastProcessed.Timestamp))
		fmt.Fprintf(out, "Last report:    %s\n", stats.LastProcessed.Output)
	}
	return nil
}
