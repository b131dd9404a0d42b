package pipeline

import (
	"context"
	"log/slog"

	"scribe/internal/logging"
	"scribe/internal/runstore"
)

// tracker shields the pipeline from run store failures. Lifecycle records
// are best effort: a broken or missing store produces warnings, never a
// failed run.
type tracker struct {
	store  *runstore.Store
	logger *slog.Logger
}

func newTracker(store *runstore.Store, logger *slog.Logger) *tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &tracker{
		store:  store,
		logger: logging.NewComponentLogger(logger, "runstore"),
	}
}

func (t *tracker) upsertVideo(ctx context.Context, videoID, audioPath string) {
	if t.store == nil {
		return
	}
	if err := t.store.UpsertVideo(ctx, videoID, audioPath); err != nil {
		t.logger.Warn("record video", logging.String(logging.FieldVideoID, videoID), logging.Error(err))
	}
}

func (t *tracker) insertRun(ctx context.Context, videoID, engine, language string, chunkSec, overlapSec int, status runstore.Status) string {
	if t.store == nil {
		return ""
	}
	id, err := t.store.InsertRun(ctx, videoID, engine, language, chunkSec, overlapSec, status)
	if err != nil {
		t.logger.Warn("record run", logging.String(logging.FieldVideoID, videoID), logging.Error(err))
		return ""
	}
	return id
}

func (t *tracker) setStatus(ctx context.Context, runID string, status runstore.Status) {
	if t.store == nil || runID == "" {
		return
	}
	if err := t.store.UpdateRunStatus(ctx, runID, status); err != nil {
		t.logger.Warn("update run status", logging.String(logging.FieldRunID, runID), logging.Error(err))
	}
}
