package plan

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/logging"
	"scribe/internal/services"
)

func newTestPlanner(t *testing.T, duration float64) (*Planner, *[]string) {
	t.Helper()

	planner := NewPlanner("ffprobe", "ffmpeg", logging.NewNop())
	planner.WithProber(func(ctx context.Context, binary, path string) (float64, error) {
		return duration, nil
	})
	var extracted []string
	planner.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		dest := args[len(args)-1]
		extracted = append(extracted, dest)
		return os.WriteFile(dest, []byte("RIFF"), 0o644)
	})
	return planner, &extracted
}

func TestSplitScenario130s(t *testing.T) {
	planner, extracted := newTestPlanner(t, 130)

	manifest, err := planner.Split(context.Background(), Request{
		VideoID:    "vid-1",
		AudioPath:  "/tmp/source.wav",
		WindowSec:  60,
		OverlapSec: 10,
		OutDir:     t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	want := []struct{ start, end float64 }{
		{0, 60},
		{50, 110},
		{100, 130},
	}
	if len(manifest.Windows) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(manifest.Windows))
	}
	for i, w := range manifest.Windows {
		if w.Index != i {
			t.Fatalf("window %d has index %d", i, w.Index)
		}
		if w.GlobalStart != want[i].start || w.GlobalEnd != want[i].end {
			t.Fatalf("window %d = [%g, %g], want [%g, %g]", i, w.GlobalStart, w.GlobalEnd, want[i].start, want[i].end)
		}
	}
	if len(*extracted) != 3 {
		t.Fatalf("expected 3 extractions, got %d", len(*extracted))
	}
}

func TestSplitCoverageInvariants(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		window   int
		overlap  int
	}{
		{"short file single window", 42, 60, 10},
		{"exact multiple no overlap", 120, 60, 0},
		{"long file large overlap", 3600.5, 600, 30},
		{"tiny overlap", 95.2, 30, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			planner, _ := newTestPlanner(t, tc.duration)
			manifest, err := planner.Split(context.Background(), Request{
				VideoID:    "vid",
				AudioPath:  "/tmp/in.wav",
				WindowSec:  tc.window,
				OverlapSec: tc.overlap,
				OutDir:     t.TempDir(),
			})
			if err != nil {
				t.Fatalf("Split: %v", err)
			}
			windows := manifest.Windows
			if len(windows) == 0 {
				t.Fatal("expected at least one window for positive duration")
			}
			if windows[0].GlobalStart != 0 {
				t.Fatalf("first window starts at %g", windows[0].GlobalStart)
			}
			last := windows[len(windows)-1]
			if math.Abs(last.GlobalEnd-tc.duration) > 0.05 {
				t.Fatalf("last window ends at %g, want %g", last.GlobalEnd, tc.duration)
			}
			for i := 0; i < len(windows)-1; i++ {
				wantStart := math.Max(0, windows[i].GlobalEnd-float64(tc.overlap))
				if math.Abs(windows[i+1].GlobalStart-wantStart) > 1e-9 {
					t.Fatalf("window %d starts at %g, want %g", i+1, windows[i+1].GlobalStart, wantStart)
				}
				if windows[i+1].GlobalStart > windows[i].GlobalEnd {
					t.Fatalf("gap between windows %d and %d", i, i+1)
				}
			}
			for _, w := range windows {
				if w.GlobalEnd <= w.GlobalStart {
					t.Fatalf("degenerate window %v", w)
				}
			}
		})
	}
}

func TestSplitDropsDegenerateTrailingWindow(t *testing.T) {
	planner, _ := newTestPlanner(t, 60.02)
	manifest, err := planner.Split(context.Background(), Request{
		VideoID:   "vid",
		AudioPath: "/tmp/in.wav",
		WindowSec: 60,
		OutDir:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(manifest.Windows) != 1 {
		t.Fatalf("expected trailing 0.02s window to be dropped, got %d windows", len(manifest.Windows))
	}
}

func TestSplitDryRunSkipsProbingAndExtraction(t *testing.T) {
	planner := NewPlanner("ffprobe", "ffmpeg", logging.NewNop())
	planner.WithProber(func(ctx context.Context, binary, path string) (float64, error) {
		t.Fatal("prober must not run in dry-run mode")
		return 0, nil
	})
	planner.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		t.Fatal("extraction must not run in dry-run mode")
		return nil
	})

	manifest, err := planner.Split(context.Background(), Request{
		VideoID:    "vid",
		AudioPath:  "/tmp/in.wav",
		WindowSec:  60,
		OverlapSec: 5,
		DryRun:     true,
	})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(manifest.Windows) != 0 {
		t.Fatalf("expected empty manifest, got %d windows", len(manifest.Windows))
	}
	if manifest.ChunkSec != 60 || manifest.OverlapSec != 5 {
		t.Fatalf("expected configuration echoed in manifest, got %+v", manifest)
	}
}

func TestSplitAbortsOnExtractionFailure(t *testing.T) {
	planner := NewPlanner("ffprobe", "ffmpeg", logging.NewNop())
	planner.WithProber(func(ctx context.Context, binary, path string) (float64, error) {
		return 130, nil
	})
	calls := 0
	planner.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		calls++
		if calls == 2 {
			return errors.New("ffmpeg: disk full")
		}
		return os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o644)
	})

	_, err := planner.Split(context.Background(), Request{
		VideoID:    "vid",
		AudioPath:  "/tmp/in.wav",
		WindowSec:  60,
		OverlapSec: 10,
		OutDir:     t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected split to abort on extraction failure")
	}
	if !services.IsStructural(err) {
		t.Fatalf("expected structural error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected abort after second extraction, got %d calls", calls)
	}
}

func TestSplitRejectsZeroByteArtifact(t *testing.T) {
	planner := NewPlanner("ffprobe", "ffmpeg", logging.NewNop())
	planner.WithProber(func(ctx context.Context, binary, path string) (float64, error) {
		return 30, nil
	})
	planner.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(args[len(args)-1], nil, 0o644)
	})

	_, err := planner.Split(context.Background(), Request{
		VideoID:   "vid",
		AudioPath: "/tmp/in.wav",
		WindowSec: 60,
		OutDir:    t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for zero-byte artifact")
	}
}

func TestManifestRoundTrip(t *testing.T) {
	manifest := &Manifest{
		VideoID:    "vid-1",
		AudioPath:  "/tmp/in.wav",
		ChunkSec:   60,
		OverlapSec: 10,
		Windows: []Window{
			{Index: 0, Path: "/tmp/chunk_0000.wav", GlobalStart: 0, GlobalEnd: 60},
			{Index: 1, Path: "/tmp/chunk_0001.wav", GlobalStart: 50, GlobalEnd: 110},
		},
	}
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := SaveManifest(manifest, path); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if loaded.VideoID != manifest.VideoID || len(loaded.Windows) != 2 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	window, ok := loaded.WindowByIndex(1)
	if !ok || window.GlobalStart != 50 {
		t.Fatalf("WindowByIndex(1) = %+v, %v", window, ok)
	}
	if _, ok := loaded.WindowByIndex(9); ok {
		t.Fatal("expected lookup miss for unknown index")
	}
}

func TestLoadManifestRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestBoundariesWithoutExtraction(t *testing.T) {
	windows := Boundaries(130, 60, 10)
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	if windows[2].GlobalStart != 100 || windows[2].GlobalEnd != 130 {
		t.Fatalf("trailing window = [%g, %g]", windows[2].GlobalStart, windows[2].GlobalEnd)
	}
	for _, w := range windows {
		if w.Path != "" {
			t.Fatalf("boundary window %d carries a path", w.Index)
		}
	}
	if got := Boundaries(0, 60, 10); len(got) != 0 {
		t.Fatalf("expected no windows for zero duration, got %d", len(got))
	}
}
