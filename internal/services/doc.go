// Package services defines the shared error taxonomy for pipeline
// components and hosts clients for external services under subpackages.
//
// Errors are tagged with sentinel markers (ErrExternalTool, ErrTimeout,
// ErrTransient, ...) so the pipeline can decide whether a failure aborts
// the run or degrades to a per-window skip.
package services
