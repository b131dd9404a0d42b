// Package plan computes bounded overlapping windows over a source audio
// timeline and extracts each window into its own WAV artifact via ffmpeg.
//
// The resulting Manifest pairs every window with its global offsets and is
// the immutable contract consumed by the dispatcher (launch targets) and
// merge (offset lookup by index).
package plan
