// Package pipeline orchestrates the transcription run: the source audio is
// probed and split into overlapping windows, each window is transcribed by
// an external worker process, and the per-window fragments are merged into
// one ordered transcript. A file lock on the per-video work directory keeps
// concurrent runs from clobbering each other's artifacts, and run lifecycle
// records are written to the run store on a best-effort basis.
package pipeline
