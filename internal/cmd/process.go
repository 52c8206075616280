package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/markupr/markupr/internal/asr"
	"github.com/markupr/markupr/internal/config"
	"github.com/markupr/markupr/internal/logging"
	"github.com/markupr/markupr/internal/naming"
	"github.com/markupr/markupr/internal/pipeline"
	"github.com/markupr/markupr/internal/watch"
)

// NewProcessCmd creates the process command: run the pipeline once on a
// single recording without watching anything.
func NewProcessCmd() *cobra.Command {
	var (
		flagOutput     string
		flagAPIURL     string
		flagSkipFrames bool
		flagVerbose    bool
	)

	cmd := &cobra.Command{
		Use:   "process <video>",
		Short: "Process a single recording",
		Long:  "Run the transcription and report pipeline once on a single recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if _, err := os.Stat(videoPath); err != nil {
				return fmt.Errorf("recording not found: %s", videoPath)
			}

			cfg, err := config.Load()
			if err != nil {
				if !os.IsNotExist(err) {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = &config.Config{}
			}
			cfg.ApplyDefaults()
			if flagAPIURL != "" {
				cfg.APIURL = flagAPIURL
			}

			outputDir := flagOutput
			if outputDir == "" {
				outputDir = filepath.Join(filepath.Dir(videoPath), naming.DefaultOutputDirName)
			}

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

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processing %s...\n", filepath.Base(videoPath))

			result, err := runner.Run(cmd.Context(), watch.PipelineOptions{
				VideoPath:  videoPath,
				OutputDir:  outputDir,
				SkipFrames: flagSkipFrames,
				Verbose:    flagVerbose,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Report: %s\n", result.OutputPath)
			fmt.Fprintf(out, "Transcript segments: %d, frames: %d, duration: %.1fs\n",
				len(result.TranscriptSegments), len(result.ExtractedFrames), result.DurationSeconds)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagOutput, "output", "", "report output folder (default <video dir>/"+naming.DefaultOutputDirName+")")
	cmd.Flags().StringVar(&flagAPIURL, "api-url", "", "transcription API URL")
	cmd.Flags().BoolVar(&flagSkipFrames, "skip-frames", false, "skip frame extraction")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "verbose ffmpeg output")

	return cmd
}
