package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"scribe/internal/config"
	"scribe/internal/dispatch"
	"scribe/internal/gate"
	"scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/merge"
	"scribe/internal/plan"
	"scribe/internal/runstore"
	"scribe/internal/services"
	"scribe/internal/services/worker"
)

const (
	windowsDirName   = "windows"
	fragmentsDirName = "fragments"
	manifestName     = "manifest.json"
	transcriptName   = "transcript.json"
	skippedName      = "skipped.json"
	lockName         = ".lock"
)

// Request describes one transcription run.
type Request struct {
	VideoID   string
	AudioPath string
	// SourceURL is recorded in the transcript metadata when known.
	SourceURL string
	// DryRun plans without probing or dispatching and records a dry-run
	// lifecycle entry.
	DryRun bool
}

// Result reports the artifacts of a completed run.
type Result struct {
	RunID          string
	WorkDir        string
	Manifest       *plan.Manifest
	ManifestPath   string
	TranscriptPath string
	Report         *dispatch.Report
}

// Pipeline drives one audio file through windowing, dispatch, and merge.
type Pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracker *tracker

	planner *plan.Planner
	client  worker.Client
	gate    *gate.Gate
}

// New constructs a pipeline. The store may be nil; lifecycle tracking is
// then disabled entirely.
func New(cfg *config.Config, store *runstore.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.Transcription.TimeoutSec) * time.Second
	return &Pipeline{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		tracker: newTracker(store, logger),
		planner: plan.NewPlanner(cfg.FFprobeBinary(), cfg.FFmpegBinary(), logger),
		client:  worker.NewCLI(cfg.Transcription.Worker, worker.WithTimeout(timeout)),
		gate:    gate.Process(cfg.Transcription.GlobalConcurrency),
	}
}

// WithPlanner replaces the window planner (for testing).
func (p *Pipeline) WithPlanner(planner *plan.Planner) {
	p.planner = planner
}

// WithClient replaces the worker client (for testing).
func (p *Pipeline) WithClient(client worker.Client) {
	p.client = client
}

// WithGate replaces the cross-run gate (for testing).
func (p *Pipeline) WithGate(g *gate.Gate) {
	p.gate = g
}

// Run executes probe, plan, preflight, dispatch, and merge for one video.
// Windows that exhaust their retries leave gaps in the transcript and are
// annotated next to it; only structural failures return an error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.VideoID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "validate", "video id is required", nil)
	}
	if req.AudioPath == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "validate", "audio path is required", nil)
	}
	audioPath, err := config.ExpandPath(req.AudioPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "validate", "resolve audio path", err)
	}
	if !req.DryRun {
		if _, err := os.Stat(audioPath); err != nil {
			return nil, services.Wrap(services.ErrNotFound, "pipeline", "validate", fmt.Sprintf("audio file %s", audioPath), err)
		}
	}

	workDir := filepath.Join(p.cfg.Paths.WorkDir, req.VideoID)
	for _, dir := range []string{workDir, filepath.Join(workDir, windowsDirName), filepath.Join(workDir, fragmentsDirName)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "layout", fmt.Sprintf("create %s", dir), err)
		}
	}

	lock := flock.New(filepath.Join(workDir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock", "acquire work directory lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "lock", fmt.Sprintf("another run is active for video %s", req.VideoID), nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warn("release work directory lock", logging.Error(err))
		}
	}()

	languageCode := language.ToISO2(p.cfg.Transcription.Language)

	p.tracker.upsertVideo(ctx, req.VideoID, audioPath)
	status := runstore.StatusStarted
	if req.DryRun {
		status = runstore.StatusDryRun
	}
	runID := p.tracker.insertRun(ctx, req.VideoID, p.cfg.Transcription.Engine, languageCode, p.cfg.Transcription.WindowSec, p.cfg.Transcription.OverlapSec, status)

	p.logger.Info("run started",
		logging.String(logging.FieldVideoID, req.VideoID),
		logging.String(logging.FieldRunID, runID),
		logging.String("audio", audioPath),
		logging.Bool("dry_run", req.DryRun))

	manifest, err := p.planner.Split(ctx, plan.Request{
		VideoID:    req.VideoID,
		AudioPath:  audioPath,
		WindowSec:  p.cfg.Transcription.WindowSec,
		OverlapSec: p.cfg.Transcription.OverlapSec,
		OutDir:     filepath.Join(workDir, windowsDirName),
		DryRun:     req.DryRun,
	})
	if err != nil {
		p.tracker.setStatus(ctx, runID, runstore.StatusFailed)
		return nil, err
	}

	manifestPath := filepath.Join(workDir, manifestName)
	if err := plan.SaveManifest(manifest, manifestPath); err != nil {
		p.tracker.setStatus(ctx, runID, runstore.StatusFailed)
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "plan", "persist manifest", err)
	}

	result := &Result{
		RunID:        runID,
		WorkDir:      workDir,
		Manifest:     manifest,
		ManifestPath: manifestPath,
	}

	if req.DryRun {
		p.logger.Info("dry run complete",
			logging.String(logging.FieldVideoID, req.VideoID),
			logging.String(logging.FieldRunID, runID))
		return result, nil
	}

	dispatcher := dispatch.New(dispatch.Config{
		Concurrency:      p.cfg.Transcription.Concurrency,
		MaxRetries:       p.cfg.Transcription.MaxRetries,
		RetryBaseDelay:   time.Duration(p.cfg.Transcription.RetryBaseDelayMS) * time.Millisecond,
		Force:            p.cfg.Transcription.Force,
		ProgressInterval: time.Duration(p.cfg.Transcription.ProgressIntervalSec) * time.Second,
	}, p.client, p.gate, p.logger)

	if err := dispatcher.Preflight(ctx, p.cfg.Transcription.SkipHealthCheck); err != nil {
		p.tracker.setStatus(ctx, runID, runstore.StatusFailed)
		return nil, err
	}

	fragmentsDir := filepath.Join(workDir, fragmentsDirName)
	report, err := dispatcher.Run(ctx, manifest, fragmentsDir)
	if err != nil {
		p.tracker.setStatus(ctx, runID, runstore.StatusFailed)
		return nil, err
	}
	result.Report = report

	merger := merge.New(p.logger)
	transcript := merger.Merge(manifest, fragmentsDir, merge.Options{
		Engine:    p.cfg.Transcription.Engine,
		Language:  languageCode,
		SourceURL: req.SourceURL,
	})

	transcriptPath := filepath.Join(workDir, transcriptName)
	if err := merge.WriteTranscript(transcript, transcriptPath); err != nil {
		p.tracker.setStatus(ctx, runID, runstore.StatusFailed)
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "merge", "persist transcript", err)
	}
	result.TranscriptPath = transcriptPath

	if !report.Complete() {
		skippedPath := filepath.Join(workDir, skippedName)
		if err := report.WriteAnnotation(skippedPath); err != nil {
			p.logger.Warn("write skip annotation", logging.Error(err))
		}
		p.logger.Warn("transcript has gaps",
			logging.String(logging.FieldVideoID, req.VideoID),
			logging.Any("skipped_chunks", report.Skipped))
	}

	p.tracker.setStatus(ctx, runID, runstore.StatusCompleted)
	p.logger.Info("run complete",
		logging.String(logging.FieldVideoID, req.VideoID),
		logging.String(logging.FieldRunID, runID),
		logging.Int("windows", report.Total),
		logging.Int("transcribed", len(report.Transcribed)),
		logging.Int("resumed", len(report.Resumed)),
		logging.Int("skipped", len(report.Skipped)))
	return result, nil
}
