package logging

import (
	"fmt"
	"time"
)

// ProgressReporter throttles window-completion progress logs and projects
// remaining time from a linear completion rate. It is safe for use from a
// single goroutine; the dispatcher funnels completions through one channel.
type ProgressReporter struct {
	total       int
	minInterval time.Duration
	started     time.Time
	lastEmit    time.Time
	now         func() time.Time
}

// NewProgressReporter constructs a reporter for total units of work that
// emits at most once per minInterval (default 10s when non-positive).
func NewProgressReporter(total int, minInterval time.Duration) *ProgressReporter {
	if minInterval <= 0 {
		minInterval = 10 * time.Second
	}
	reporter := &ProgressReporter{total: total, minInterval: minInterval, now: time.Now}
	reporter.started = reporter.now()
	return reporter
}

// WithClock overrides the time source (for testing).
func (r *ProgressReporter) WithClock(now func() time.Time) *ProgressReporter {
	r.now = now
	r.started = now()
	return r
}

// Update reports done units complete. It returns a formatted progress line
// and true when enough time has passed since the previous emission; the
// final unit always emits.
func (r *ProgressReporter) Update(done int) (string, bool) {
	if r == nil || r.total <= 0 {
		return "", false
	}
	current := r.now()
	if done < r.total && !r.lastEmit.IsZero() && current.Sub(r.lastEmit) < r.minInterval {
		return "", false
	}
	r.lastEmit = current
	return formatProgress(current.Sub(r.started), done, r.total), true
}

// formatProgress projects remaining time from the observed linear rate.
func formatProgress(elapsed time.Duration, done, total int) string {
	if done <= 0 {
		return fmt.Sprintf("0/%d windows", total)
	}
	rate := elapsed / time.Duration(done)
	remaining := rate * time.Duration(total-done)
	return fmt.Sprintf("%d/%d windows, eta %s", done, total, remaining.Round(time.Second))
}
