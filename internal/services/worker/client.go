package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"scribe/internal/services"
)

var commandContext = exec.CommandContext

// healthDeadline bounds the preflight invocation so a wedged worker binary
// cannot stall startup.
const healthDeadline = 30 * time.Second

// Client defines transcription worker behaviour. The worker is an external
// process invoked once per window as `<worker> <input_wav> <output_json>`;
// exit 0 means the output file was written.
type Client interface {
	Resolve() error
	Health(ctx context.Context) error
	Transcribe(ctx context.Context, inputPath, outputPath string, onLine func(string)) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithTimeout sets the wall-clock limit per invocation. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *CLI) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// CLI wraps a command-line transcription worker.
type CLI struct {
	binary  string
	timeout time.Duration
}

// NewCLI constructs a CLI client for the given worker binary.
func NewCLI(binary string, opts ...Option) *CLI {
	cli := &CLI{binary: strings.TrimSpace(binary)}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Resolve verifies the worker binary can be located before any window is
// dispatched.
func (c *CLI) Resolve() error {
	if c.binary == "" {
		return services.Wrap(services.ErrConfiguration, "worker", "resolve", "worker binary not configured", nil)
	}
	if _, err := exec.LookPath(c.binary); err != nil {
		return services.Wrap(services.ErrNotFound, "worker", "resolve", fmt.Sprintf("worker binary %q", c.binary), err)
	}
	return nil
}

// Health launches the worker once with no arguments to prove the binary
// actually starts (catching broken interpreters, missing runtimes, or
// unreadable images). The worker is expected to exit promptly; a usage
// error is fine, failing to start or to exit is not.
func (c *CLI) Health(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, healthDeadline)
	defer cancel()

	cmd := commandContext(healthCtx, c.binary) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && healthCtx.Err() == nil {
		// The worker started and exited on its own; a non-zero usage exit
		// still proves the binary is runnable.
		return nil
	}
	return services.Wrap(services.ErrExternalTool, "worker", "health check",
		strings.TrimSpace(string(output)), err)
}

// Transcribe runs one worker invocation for one window. Worker output is
// streamed line by line to onLine (stderr merged into stdout) so the
// scheduler never blocks on a chatty worker. When the configured timeout
// expires, the process is killed and the error carries the timeout marker.
func (c *CLI) Transcribe(ctx context.Context, inputPath, outputPath string, onLine func(string)) error {
	if inputPath == "" || outputPath == "" {
		return services.Wrap(services.ErrConfiguration, "worker", "transcribe", "input and output paths required", nil)
	}

	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	defer cancel()

	cmd := commandContext(runCtx, c.binary, inputPath, outputPath) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrTransient, "worker", "transcribe", "stdout pipe", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrNotFound, "worker", "transcribe", fmt.Sprintf("start %q", c.binary), err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var tail []string
	for scanner.Scan() {
		line := scanner.Text()
		if onLine != nil {
			onLine(line)
		}
		tail = append(tail, line)
		if len(tail) > 10 {
			tail = tail[1:]
		}
	}

	waitErr := cmd.Wait()
	if waitErr == nil {
		return nil
	}
	detail := strings.TrimSpace(strings.Join(tail, "\n"))
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "worker", "transcribe",
			fmt.Sprintf("killed after %s", c.timeout), waitErr)
	}
	return services.Wrap(services.ErrTransient, "worker", "transcribe", detail, waitErr)
}

var _ Client = (*CLI)(nil)
