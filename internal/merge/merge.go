package merge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"scribe/internal/dispatch"
	"scribe/internal/logging"
	"scribe/internal/plan"
	"scribe/internal/services/worker"
)

// Source records where the audio came from.
type Source struct {
	URL string `json:"url"`
}

// Processing records how the transcript was produced.
type Processing struct {
	CreatedAt  string `json:"createdAt"`
	Engine     string `json:"engine"`
	Language   string `json:"language"`
	ChunkSec   int    `json:"chunkSec"`
	OverlapSec int    `json:"overlapSec"`
}

// Transcript is the pipeline's terminal artifact: every fragment shifted
// into absolute time and sorted chronologically. Text repeated inside
// overlap regions is NOT deduplicated; downstream consumers must tolerate
// near-boundary repeats.
type Transcript struct {
	VideoID    string        `json:"videoId"`
	Source     Source        `json:"source"`
	Processing Processing    `json:"processing"`
	Segments   []worker.Span `json:"segments"`
	Words      []worker.Span `json:"words"`
}

// Options carries run metadata into the transcript.
type Options struct {
	Engine    string
	Language  string
	SourceURL string
}

// Merger assembles per-window fragments into one ordered transcript.
type Merger struct {
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a merger.
func New(logger *slog.Logger) *Merger {
	return &Merger{
		logger: logging.NewComponentLogger(logger, "merge"),
		now:    time.Now,
	}
}

// Merge offsets every readable fragment by its window's global start and
// stable-sorts the accumulated segments and words by start time. Sorting
// is required: windows complete in any order, and overlapping windows
// inherently interleave timestamps. Unreadable or malformed fragments are
// skipped with a warning rather than aborting the merge.
func (m *Merger) Merge(manifest *plan.Manifest, fragmentsDir string, opts Options) *Transcript {
	transcript := &Transcript{
		VideoID: manifest.VideoID,
		Source:  Source{URL: opts.SourceURL},
		Processing: Processing{
			CreatedAt:  m.now().UTC().Format(time.RFC3339),
			Engine:     opts.Engine,
			Language:   opts.Language,
			ChunkSec:   manifest.ChunkSec,
			OverlapSec: manifest.OverlapSec,
		},
		Segments: []worker.Span{},
		Words:    []worker.Span{},
	}

	merged := 0
	for _, window := range manifest.Windows {
		path := dispatch.FragmentPath(fragmentsDir, window.Index)
		fragment, err := worker.LoadFragment(path)
		if err != nil {
			m.logger.Warn(
				"fragment unreadable, excluded from transcript",
				logging.Int(logging.FieldWindow, window.Index),
				logging.Error(err),
			)
			continue
		}
		transcript.Segments = append(transcript.Segments, offsetSpans(fragment.Segments, window.GlobalStart)...)
		transcript.Words = append(transcript.Words, offsetSpans(fragment.Words, window.GlobalStart)...)
		merged++
	}

	sort.SliceStable(transcript.Segments, func(i, j int) bool {
		return transcript.Segments[i].StartSec < transcript.Segments[j].StartSec
	})
	sort.SliceStable(transcript.Words, func(i, j int) bool {
		return transcript.Words[i].StartSec < transcript.Words[j].StartSec
	})

	m.logger.Info(
		"transcript assembled",
		logging.String(logging.FieldVideoID, manifest.VideoID),
		logging.Int("fragments_merged", merged),
		logging.Int("segments", len(transcript.Segments)),
		logging.Int("words", len(transcript.Words)),
	)
	return transcript
}

func offsetSpans(spans []worker.Span, offset float64) []worker.Span {
	shifted := make([]worker.Span, len(spans))
	for i, span := range spans {
		span.StartSec += offset
		span.EndSec += offset
		shifted[i] = span
	}
	return shifted
}

// WriteTranscript persists the transcript JSON, the pipeline's single
// terminal write.
func WriteTranscript(transcript *Transcript, path string) error {
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit transcript: %w", err)
	}
	return nil
}
