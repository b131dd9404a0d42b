package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/pipeline"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var videoID string
	var sourceURL string
	var dryRun bool
	var force bool
	var skipHealth bool
	var windowSec int
	var overlapSec int
	var concurrency int
	var workerBinary string
	var languageCode string

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file into one ordered transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if force {
				cfg.Transcription.Force = true
			}
			if skipHealth {
				cfg.Transcription.SkipHealthCheck = true
			}
			if cmd.Flags().Changed("window") {
				cfg.Transcription.WindowSec = windowSec
			}
			if cmd.Flags().Changed("overlap") {
				cfg.Transcription.OverlapSec = overlapSec
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Transcription.Concurrency = concurrency
			}
			if workerBinary != "" {
				cfg.Transcription.Worker = workerBinary
			}
			if languageCode != "" {
				cfg.Transcription.Language = languageCode
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			store := openStoreBestEffort(cfg, logger)
			if store != nil {
				defer store.Close()
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			p := pipeline.New(cfg, store, logger)
			result, err := p.Run(signalCtx, pipeline.Request{
				VideoID:   videoID,
				AudioPath: args[0],
				SourceURL: sourceURL,
				DryRun:    dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "Dry run complete; manifest at %s\n", result.ManifestPath)
				return nil
			}
			fmt.Fprintf(out, "Transcript written to %s\n", result.TranscriptPath)
			if result.Report != nil && !result.Report.Complete() {
				fmt.Fprintf(out, "Warning: %d window(s) produced no output; see %s\n",
					len(result.Report.Skipped), result.WorkDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&videoID, "video-id", "", "Identifier for the source video (required)")
	cmd.Flags().StringVar(&sourceURL, "source-url", "", "Origin URL recorded in transcript metadata")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the run without extracting or dispatching")
	cmd.Flags().BoolVar(&force, "force", false, "Re-transcribe windows whose output already exists")
	cmd.Flags().BoolVar(&skipHealth, "skip-health-check", false, "Skip the worker preflight invocation")
	cmd.Flags().IntVar(&windowSec, "window", 0, "Window length in seconds")
	cmd.Flags().IntVar(&overlapSec, "overlap", 0, "Overlap between adjacent windows in seconds")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Per-run worker pool size")
	cmd.Flags().StringVar(&workerBinary, "worker", "", "Transcription worker binary")
	cmd.Flags().StringVar(&languageCode, "language", "", "Expected spoken language")
	_ = cmd.MarkFlagRequired("video-id")

	return cmd
}
