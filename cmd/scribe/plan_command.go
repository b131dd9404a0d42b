package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/media/probe"
	"scribe/internal/plan"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var windowSec int
	var overlapSec int

	cmd := &cobra.Command{
		Use:   "plan <audio-file>",
		Short: "Preview the window layout for an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("window") {
				cfg.Transcription.WindowSec = windowSec
			}
			if cmd.Flags().Changed("overlap") {
				cfg.Transcription.OverlapSec = overlapSec
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			audioPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			duration, err := probe.Duration(cmd.Context(), cfg.FFprobeBinary(), audioPath)
			if err != nil {
				return err
			}

			windows := plan.Boundaries(duration, cfg.Transcription.WindowSec, cfg.Transcription.OverlapSec)
			rows := make([][]string, 0, len(windows))
			for _, w := range windows {
				rows = append(rows, []string{
					strconv.Itoa(w.Index),
					formatWindowSpan(w.GlobalStart, w.GlobalEnd),
					fmt.Sprintf("%.1fs", w.GlobalEnd-w.GlobalStart),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source duration: %s (%.1fs)\n", formatClock(duration), duration)
			fmt.Fprintln(out, renderTable(
				[]string{"Window", "Span", "Length"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%d window(s) of %ds with %ds overlap\n",
				len(windows), cfg.Transcription.WindowSec, cfg.Transcription.OverlapSec)
			return nil
		},
	}

	cmd.Flags().IntVar(&windowSec, "window", 0, "Window length in seconds")
	cmd.Flags().IntVar(&overlapSec, "overlap", 0, "Overlap between adjacent windows in seconds")

	return cmd
}
