package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"scribe/internal/config"
	"scribe/internal/runstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter []string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded transcription runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFilter)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *runstore.Store) error {
				runs, err := store.ListRuns(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}

				titler := cases.Title(language.Und)
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.VideoID,
						run.Engine,
						run.Language,
						strconv.Itoa(run.ChunkSec),
						strconv.Itoa(run.OverlapSec),
						titler.String(string(run.Status)),
						formatTimestamp(run.UpdatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Video", "Engine", "Lang", "Window", "Overlap", "Status", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFilter, "status", nil, "Filter by run status (started, dry-run, completed, failed)")

	return cmd
}

func parseStatuses(values []string) ([]runstore.Status, error) {
	statuses := make([]runstore.Status, 0, len(values))
	for _, value := range values {
		status := runstore.Status(strings.ToLower(strings.TrimSpace(value)))
		if !status.Valid() {
			return nil, fmt.Errorf("unknown run status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
