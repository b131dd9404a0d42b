// Package dispatch schedules one external worker process per audio window
// under two gates: a bounded per-run pool and the process-wide ceiling in
// package gate. Failed windows are retried with exponential backoff and
// degrade to a logged skip once attempts are exhausted; only structural
// problems (unresolvable worker, failed health check) abort a run.
package dispatch
