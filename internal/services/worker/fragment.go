package worker

import (
	"fmt"
	"os"

	"encoding/json"
)

// Span is one timed unit of transcript text in window-local seconds.
type Span struct {
	StartSec float64 `json:"startSec"`
	EndSec   float64 `json:"endSec"`
	Text     string  `json:"text"`
	Speaker  string  `json:"speaker,omitempty"`
}

// Fragment is one worker's output for one window: segments and words with
// window-local timestamps. Written once by the worker, read once by merge.
type Fragment struct {
	Segments []Span `json:"segments"`
	Words    []Span `json:"words"`
}

// LoadFragment reads and decodes a worker output file.
func LoadFragment(path string) (*Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fragment Fragment
	if err := json.Unmarshal(data, &fragment); err != nil {
		return nil, fmt.Errorf("parse fragment %s: %w", path, err)
	}
	return &fragment, nil
}
