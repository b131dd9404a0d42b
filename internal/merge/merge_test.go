package merge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/dispatch"
	"scribe/internal/logging"
	"scribe/internal/plan"
	"scribe/internal/services/worker"
)

func writeFragment(t *testing.T, dir string, index int, fragment worker.Fragment) {
	t.Helper()
	data, err := json.Marshal(fragment)
	if err != nil {
		t.Fatalf("marshal fragment: %v", err)
	}
	if err := os.WriteFile(dispatch.FragmentPath(dir, index), data, 0o644); err != nil {
		t.Fatalf("write fragment: %v", err)
	}
}

func overlapManifest() *plan.Manifest {
	return &plan.Manifest{
		VideoID:    "vid-1",
		ChunkSec:   60,
		OverlapSec: 10,
		Windows: []plan.Window{
			{Index: 0, GlobalStart: 0, GlobalEnd: 60},
			{Index: 1, GlobalStart: 50, GlobalEnd: 110},
			{Index: 2, GlobalStart: 100, GlobalEnd: 130},
		},
	}
}

func TestMergeOffsetsAndSortsOutOfOrderFragments(t *testing.T) {
	dir := t.TempDir()
	// Written in completion order 2, 0, 1 to mimic an out-of-order run.
	writeFragment(t, dir, 2, worker.Fragment{
		Segments: []worker.Span{{StartSec: 1, EndSec: 5, Text: "tail"}},
		Words:    []worker.Span{{StartSec: 1, EndSec: 2, Text: "tail"}},
	})
	writeFragment(t, dir, 0, worker.Fragment{
		Segments: []worker.Span{{StartSec: 0, EndSec: 4, Text: "head"}, {StartSec: 55, EndSec: 59, Text: "head-end"}},
		Words:    []worker.Span{{StartSec: 0, EndSec: 1, Text: "head"}},
	})
	writeFragment(t, dir, 1, worker.Fragment{
		Segments: []worker.Span{{StartSec: 2, EndSec: 6, Text: "middle"}},
		Words:    []worker.Span{{StartSec: 2, EndSec: 3, Text: "middle"}},
	})

	merger := New(logging.NewNop())
	transcript := merger.Merge(overlapManifest(), dir, Options{Engine: "whisper", Language: "en", SourceURL: "https://example.com/v"})

	if len(transcript.Segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(transcript.Segments))
	}
	wantStarts := []float64{0, 52, 55, 101}
	for i, segment := range transcript.Segments {
		if segment.StartSec != wantStarts[i] {
			t.Fatalf("segment %d starts at %g, want %g", i, segment.StartSec, wantStarts[i])
		}
	}
	for i := 0; i < len(transcript.Segments)-1; i++ {
		if transcript.Segments[i].StartSec > transcript.Segments[i+1].StartSec {
			t.Fatalf("segments not sorted at %d: %v", i, transcript.Segments)
		}
	}
	for i := 0; i < len(transcript.Words)-1; i++ {
		if transcript.Words[i].StartSec > transcript.Words[i+1].StartSec {
			t.Fatalf("words not sorted at %d: %v", i, transcript.Words)
		}
	}
	if transcript.Processing.Engine != "whisper" || transcript.Processing.ChunkSec != 60 {
		t.Fatalf("unexpected processing metadata: %+v", transcript.Processing)
	}
	if transcript.Source.URL != "https://example.com/v" {
		t.Fatalf("unexpected source: %+v", transcript.Source)
	}
	if transcript.Processing.CreatedAt == "" {
		t.Fatal("expected createdAt to be set")
	}
}

func TestMergeZeroOffsetReproducesConcatenation(t *testing.T) {
	dir := t.TempDir()
	manifest := &plan.Manifest{
		VideoID:  "vid",
		ChunkSec: 10,
		Windows: []plan.Window{
			{Index: 0, GlobalStart: 0, GlobalEnd: 10},
			{Index: 1, GlobalStart: 10, GlobalEnd: 20},
		},
	}
	writeFragment(t, dir, 0, worker.Fragment{Segments: []worker.Span{{StartSec: 0, EndSec: 9, Text: "a"}}})
	writeFragment(t, dir, 1, worker.Fragment{Segments: []worker.Span{{StartSec: 0, EndSec: 9, Text: "b"}}})

	transcript := New(logging.NewNop()).Merge(manifest, dir, Options{})
	if len(transcript.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(transcript.Segments))
	}
	if transcript.Segments[0].Text != "a" || transcript.Segments[1].Text != "b" {
		t.Fatalf("expected concatenation order preserved, got %+v", transcript.Segments)
	}
	if transcript.Segments[1].StartSec != 10 {
		t.Fatalf("expected second segment offset to 10, got %g", transcript.Segments[1].StartSec)
	}
}

func TestMergeSkipsMissingAndMalformedFragments(t *testing.T) {
	dir := t.TempDir()
	manifest := overlapManifest()
	writeFragment(t, dir, 0, worker.Fragment{Segments: []worker.Span{{StartSec: 0, EndSec: 2, Text: "ok"}}})
	// Window 1 has no fragment at all; window 2 is malformed.
	if err := os.WriteFile(dispatch.FragmentPath(dir, 2), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write malformed: %v", err)
	}

	transcript := New(logging.NewNop()).Merge(manifest, dir, Options{})
	if len(transcript.Segments) != 1 {
		t.Fatalf("expected only readable fragment merged, got %d segments", len(transcript.Segments))
	}
}

func TestMergePreservesOverlapDuplicates(t *testing.T) {
	dir := t.TempDir()
	manifest := overlapManifest()
	// The same phrase lands in window 0's tail and window 1's head.
	writeFragment(t, dir, 0, worker.Fragment{Segments: []worker.Span{{StartSec: 55, EndSec: 58, Text: "repeated phrase"}}})
	writeFragment(t, dir, 1, worker.Fragment{Segments: []worker.Span{{StartSec: 5, EndSec: 8, Text: "repeated phrase"}}})

	transcript := New(logging.NewNop()).Merge(manifest, dir, Options{})
	if len(transcript.Segments) != 2 {
		t.Fatalf("overlap duplicates must be preserved, got %d segments", len(transcript.Segments))
	}
}

func TestWriteTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.json")
	transcript := &Transcript{
		VideoID:  "vid",
		Segments: []worker.Span{{StartSec: 0, EndSec: 1, Text: "hi"}},
		Words:    []worker.Span{},
	}
	if err := WriteTranscript(transcript, path); err != nil {
		t.Fatalf("WriteTranscript: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	var loaded Transcript
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("parse transcript: %v", err)
	}
	if loaded.VideoID != "vid" || len(loaded.Segments) != 1 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}
