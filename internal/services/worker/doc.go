// Package worker wraps the external transcription worker process.
//
// The worker contract: invoked as `<worker> <input_wav> <output_json>`, it
// must write `{segments:[...], words:[...]}` to the output path and exit 0.
// Any other exit code is a failure. The client streams worker output into
// a callback, enforces an optional per-invocation wall-clock timeout, and
// decodes fragment files for merge.
package worker
