package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"scribe/internal/gate"
	"scribe/internal/logging"
	"scribe/internal/plan"
	"scribe/internal/services"
	"scribe/internal/services/worker"
)

// State tracks one window through the dispatch lifecycle.
type State string

const (
	StatePending    State = "pending"
	StateDispatched State = "dispatched"
	StateSucceeded  State = "succeeded"
	StateResumed    State = "resumed"
	StateExhausted  State = "failed-exhausted"
)

// Config bounds scheduling and retry behaviour for one run.
type Config struct {
	// Concurrency is the per-run worker pool size.
	Concurrency int
	// MaxRetries is the number of additional attempts after a failure.
	MaxRetries int
	// RetryBaseDelay seeds the exponential backoff between attempts.
	RetryBaseDelay time.Duration
	// Force redispatches windows whose output already exists.
	Force bool
	// ProgressInterval throttles progress/ETA log lines.
	ProgressInterval time.Duration
}

// Dispatcher fans the manifest's windows out to external worker processes
// under the per-run pool and the process-wide gate.
type Dispatcher struct {
	cfg    Config
	client worker.Client
	gate   *gate.Gate
	logger *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a dispatcher. A nil gate disables the cross-run ceiling.
func New(cfg Config, client worker.Client, g *gate.Gate, logger *slog.Logger) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	return &Dispatcher{
		cfg:    cfg,
		client: client,
		gate:   g,
		logger: logging.NewComponentLogger(logger, "dispatch"),
		sleep:  sleepCtx,
	}
}

// WithSleeper sets a custom backoff sleeper (for testing).
func (d *Dispatcher) WithSleeper(sleep func(ctx context.Context, delay time.Duration) error) {
	d.sleep = sleep
}

// Preflight verifies the worker binary is resolvable and, unless skipped,
// runs one cheap health invocation so a broken worker fails the run before
// any window is dispatched.
func (d *Dispatcher) Preflight(ctx context.Context, skipHealth bool) error {
	if err := d.client.Resolve(); err != nil {
		return err
	}
	if skipHealth {
		d.logger.Debug("worker health check skipped")
		return nil
	}
	if err := d.client.Health(ctx); err != nil {
		return err
	}
	d.logger.Debug("worker health check passed")
	return nil
}

// Run drains the manifest's window queue through the per-run pool. Every
// launch holds both a pool slot and the global gate; the gate is released
// the moment the worker exits so other runs can proceed while this one
// retries or writes results. Windows whose retries are exhausted produce
// no output and the run continues.
func (d *Dispatcher) Run(ctx context.Context, manifest *plan.Manifest, fragmentsDir string) (*Report, error) {
	if manifest == nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "run", "manifest required", nil)
	}
	if err := os.MkdirAll(fragmentsDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "run", "ensure fragments dir", err)
	}

	total := len(manifest.Windows)
	report := &Report{Total: total}
	if total == 0 {
		return report, nil
	}

	d.logger.Info(
		"dispatching windows",
		logging.String(logging.FieldVideoID, manifest.VideoID),
		logging.Int("windows", total),
		logging.Int("concurrency", d.cfg.Concurrency),
		logging.Int("max_retries", d.cfg.MaxRetries),
	)

	jobs := make(chan plan.Window)
	type completion struct {
		index int
		state State
	}
	results := make(chan completion)

	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for window := range jobs {
				state := d.processWindow(ctx, window, FragmentPath(fragmentsDir, window.Index))
				results <- completion{index: window.Index, state: state}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, window := range manifest.Windows {
			select {
			case jobs <- window:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	progress := logging.NewProgressReporter(total, d.cfg.ProgressInterval)
	done := 0
	for result := range results {
		done++
		switch result.state {
		case StateSucceeded:
			report.Transcribed = append(report.Transcribed, result.index)
		case StateResumed:
			report.Resumed = append(report.Resumed, result.index)
		default:
			report.Skipped = append(report.Skipped, result.index)
		}
		if msg, ok := progress.Update(done); ok {
			d.logger.Info(msg, logging.String(logging.FieldVideoID, manifest.VideoID))
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	report.sort()

	if len(report.Skipped) > 0 {
		d.logger.Warn(
			"windows skipped after exhausting retries",
			logging.String(logging.FieldVideoID, manifest.VideoID),
			logging.Any("skipped_windows", report.Skipped),
		)
	}
	return report, nil
}

// processWindow drives one window through its state machine:
// pending -> dispatched -> (succeeded | dispatched [retry] | failed-exhausted).
func (d *Dispatcher) processWindow(ctx context.Context, window plan.Window, outputPath string) State {
	logger := d.logger.With(logging.Int(logging.FieldWindow, window.Index))

	if !d.cfg.Force {
		if info, err := os.Stat(outputPath); err == nil && info.Size() > 0 {
			logger.Info("window output already present, not re-dispatching")
			return StateResumed
		}
	}

	attempts := 1 + d.cfg.MaxRetries
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := d.cfg.RetryBaseDelay << (attempt - 2)
			logger.Info("retrying window", logging.Int("attempt", attempt), logging.Duration("backoff", delay))
			if err := d.sleep(ctx, delay); err != nil {
				return StateExhausted
			}
		}

		if err := d.gate.Acquire(ctx); err != nil {
			logger.Warn("global gate acquisition aborted", logging.Error(err))
			return StateExhausted
		}
		logger.Debug("window dispatched", logging.Int("attempt", attempt))
		err := d.client.Transcribe(ctx, window.Path, outputPath, func(line string) {
			logger.Debug("worker output", logging.String("line", line))
		})
		d.gate.Release()

		if err == nil {
			logger.Debug("window transcribed", logging.Int("attempt", attempt))
			return StateSucceeded
		}
		logger.Warn("window attempt failed", logging.Int("attempt", attempt), logging.Error(err))
		if ctx.Err() != nil {
			return StateExhausted
		}
	}

	logger.Warn("window failed after all attempts, transcript will have a gap",
		logging.Int("attempts", attempts))
	return StateExhausted
}

// FragmentPath returns the worker output path for a window index.
func FragmentPath(fragmentsDir string, index int) string {
	return filepath.Join(fragmentsDir, fmt.Sprintf("chunk_%04d.json", index))
}

func sleepCtx(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
