package plan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"scribe/internal/logging"
	"scribe/internal/media/probe"
	"scribe/internal/services"
)

const (
	// minWindowSec discards degenerate trailing windows shorter than this.
	minWindowSec = 0.05
	// endEpsilon tolerates float drift when deciding whether a window
	// already reaches the true source end.
	endEpsilon = 1e-3
)

// Request describes one window-planning job.
type Request struct {
	VideoID    string
	AudioPath  string
	WindowSec  int
	OverlapSec int
	// OutDir receives one WAV artifact per window.
	OutDir string
	// DryRun skips probing, extraction, and validation and emits an empty
	// manifest, enabling pipeline-wiring tests without real audio.
	DryRun bool
}

// Planner computes bounded overlapping windows over the source timeline and
// extracts each into its own mono 16 kHz PCM WAV artifact.
type Planner struct {
	ffprobeBinary string
	ffmpegBinary  string
	logger        *slog.Logger

	prober        func(ctx context.Context, binary, path string) (float64, error)
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewPlanner constructs a planner using the given external binaries.
func NewPlanner(ffprobeBinary, ffmpegBinary string, logger *slog.Logger) *Planner {
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Planner{
		ffprobeBinary: ffprobeBinary,
		ffmpegBinary:  ffmpegBinary,
		logger:        logging.NewComponentLogger(logger, "planner"),
		prober:        probe.Duration,
	}
}

// WithProber sets a custom duration prober (for testing).
func (p *Planner) WithProber(prober func(ctx context.Context, binary, path string) (float64, error)) {
	p.prober = prober
}

// WithCommandRunner sets a custom extraction runner (for testing).
func (p *Planner) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	p.commandRunner = runner
}

// Split probes the source duration and walks the timeline sequentially,
// extracting each window before computing the next start. Extraction is
// strictly sequential: every start depends on the previous window's end.
// Any extraction failure aborts the whole split, since a partially written
// manifest is unsafe to resume from.
func (p *Planner) Split(ctx context.Context, req Request) (*Manifest, error) {
	windowSec := req.WindowSec
	overlapSec := req.OverlapSec
	if windowSec < 1 {
		return nil, services.Wrap(services.ErrConfiguration, "planner", "split", fmt.Sprintf("window size %d must be at least 1s", windowSec), nil)
	}
	if overlapSec < 0 || overlapSec >= windowSec {
		return nil, services.Wrap(services.ErrConfiguration, "planner", "split", fmt.Sprintf("overlap %ds must be in [0, %ds)", overlapSec, windowSec), nil)
	}

	manifest := &Manifest{
		VideoID:    req.VideoID,
		AudioPath:  req.AudioPath,
		ChunkSec:   windowSec,
		OverlapSec: overlapSec,
		Windows:    []Window{},
	}

	if req.DryRun {
		p.logger.Info("dry run, emitting empty manifest", logging.String(logging.FieldVideoID, req.VideoID))
		return manifest, nil
	}

	duration, err := p.prober(ctx, p.ffprobeBinary, req.AudioPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "planner", "probe duration", req.AudioPath, err)
	}

	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "planner", "ensure output dir", req.OutDir, err)
	}

	p.logger.Info(
		"splitting source",
		logging.String(logging.FieldVideoID, req.VideoID),
		logging.Float64("duration_sec", duration),
		logging.Int("window_sec", windowSec),
		logging.Int("overlap_sec", overlapSec),
	)

	for _, window := range Boundaries(duration, windowSec, overlapSec) {
		window.Path = filepath.Join(req.OutDir, fmt.Sprintf("chunk_%04d.wav", window.Index))
		if err := p.extract(ctx, req.AudioPath, window.GlobalStart, window.GlobalEnd-window.GlobalStart, window.Path); err != nil {
			return nil, err
		}
		manifest.Windows = append(manifest.Windows, window)
		p.logger.Debug("window extracted", logging.Int(logging.FieldWindow, window.Index), logging.Float64("start", window.GlobalStart), logging.Float64("end", window.GlobalEnd))
	}

	p.logger.Info("split complete", logging.String(logging.FieldVideoID, req.VideoID), logging.Int("windows", len(manifest.Windows)))
	return manifest, nil
}

// Boundaries walks the timeline and returns the window layout without
// touching the source. Each window starts one overlap before the previous
// window's end; a degenerate trailing sliver is dropped.
func Boundaries(duration float64, windowSec, overlapSec int) []Window {
	var windows []Window
	start := 0.0
	index := 0
	for start < duration {
		end := min(duration, start+float64(windowSec))
		if end-start < minWindowSec {
			break
		}
		windows = append(windows, Window{
			Index:       index,
			GlobalStart: start,
			GlobalEnd:   end,
		})
		if end >= duration-endEpsilon {
			break
		}
		start = max(0, end-float64(overlapSec))
		index++
	}
	return windows
}

// extract cuts [start, start+length) into a mono 16 kHz 16-bit PCM WAV.
func (p *Planner) extract(ctx context.Context, source string, start, length float64, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := p.run(ctx, p.ffmpegBinary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "planner", "extract window", dest, err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "planner", "extract window", fmt.Sprintf("%s missing after extraction", dest), err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "planner", "extract window", fmt.Sprintf("%s is empty", dest), nil)
	}
	return nil
}

func (p *Planner) run(ctx context.Context, name string, args ...string) error {
	if p.commandRunner != nil {
		return p.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
