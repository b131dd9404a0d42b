package plan

import "fmt"

// Window is one bounded, possibly-overlapping sub-interval of source audio.
// GlobalStart and GlobalEnd are seconds relative to the full source.
type Window struct {
	Index       int     `json:"chunkIndex"`
	Path        string  `json:"path"`
	GlobalStart float64 `json:"globalStart"`
	GlobalEnd   float64 `json:"globalEnd"`
}

// Duration returns the window length in seconds.
func (w Window) Duration() float64 {
	return w.GlobalEnd - w.GlobalStart
}

// String returns a compact representation for logging.
func (w Window) String() string {
	return fmt.Sprintf("chunk %d [%.2f, %.2f)", w.Index, w.GlobalStart, w.GlobalEnd)
}

// Manifest is the immutable contract between the planner, the dispatcher,
// and merge: ordered windows with global offsets. It is produced once by
// Split and never modified afterwards.
type Manifest struct {
	VideoID    string   `json:"videoId"`
	AudioPath  string   `json:"audioPath"`
	ChunkSec   int      `json:"chunkSec"`
	OverlapSec int      `json:"overlapSec"`
	Windows    []Window `json:"chunks"`
}

// WindowByIndex resolves a window by its chunk index, used by merge for
// offset lookup.
func (m *Manifest) WindowByIndex(index int) (Window, bool) {
	for _, window := range m.Windows {
		if window.Index == index {
			return window, true
		}
	}
	return Window{}, false
}
