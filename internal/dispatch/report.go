package dispatch

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Report summarizes one dispatch pass over a manifest.
type Report struct {
	// Total is the number of windows in the manifest.
	Total int `json:"total"`
	// Transcribed lists windows whose worker succeeded during this pass.
	Transcribed []int `json:"transcribed"`
	// Resumed lists windows whose output already existed and were not
	// re-dispatched.
	Resumed []int `json:"resumed"`
	// Skipped lists windows that exhausted every attempt and produced no
	// output. The merged transcript has gaps at these windows.
	Skipped []int `json:"skippedChunks"`
}

// Complete reports whether every window has output available.
func (r *Report) Complete() bool {
	return len(r.Skipped) == 0
}

func (r *Report) sort() {
	sort.Ints(r.Transcribed)
	sort.Ints(r.Resumed)
	sort.Ints(r.Skipped)
}

// WriteAnnotation records skipped window indices next to the transcript so
// incomplete output is visible without digging through logs.
func (r *Report) WriteAnnotation(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dispatch report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dispatch report: %w", err)
	}
	return nil
}
