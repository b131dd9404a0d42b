// Package probe provides a typed wrapper around ffprobe JSON output.
//
// The pipeline uses it to obtain the total source duration before window
// planning. Probe failures are structural: there is no retry, because a
// missing or unparsable duration means the input itself is unusable.
package probe
