package main

import (
	"fmt"
	"log/slog"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/runstore"
)

// openStoreBestEffort opens the run store for lifecycle tracking. The
// transcription run proceeds without tracking when the store is broken.
func openStoreBestEffort(cfg *config.Config, logger *slog.Logger) *runstore.Store {
	store, err := runstore.Open(cfg)
	if err != nil {
		logger.Warn("run store unavailable, lifecycle tracking disabled", logging.Error(err))
		return nil
	}
	return store
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func formatWindowSpan(start, end float64) string {
	return fmt.Sprintf("%s - %s", formatClock(start), formatClock(end))
}

func formatClock(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}
