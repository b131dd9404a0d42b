package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SCRIBE_WORKER", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "scribe", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Transcription.WindowSec != 600 {
		t.Fatalf("unexpected window size: %d", cfg.Transcription.WindowSec)
	}
	if cfg.Transcription.Concurrency != 1 {
		t.Fatalf("expected default concurrency of 1, got %d", cfg.Transcription.Concurrency)
	}
	if cfg.Transcription.GlobalConcurrency != 0 {
		t.Fatalf("expected global ceiling disabled by default, got %d", cfg.Transcription.GlobalConcurrency)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be a directory", dir)
		}
	}
}

func TestLoadParsesFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
work_dir = "` + filepath.Join(dir, "work") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[transcription]
window_sec = 60
overlap_sec = 10
concurrency = 4
global_concurrency = 2
timeout_sec = 300
worker = "/opt/bin/transcriber"
engine = "faster-whisper"
language = "de"

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Transcription.WindowSec != 60 || cfg.Transcription.OverlapSec != 10 {
		t.Fatalf("unexpected windowing: %+v", cfg.Transcription)
	}
	if cfg.Transcription.Worker != "/opt/bin/transcriber" {
		t.Fatalf("unexpected worker: %q", cfg.Transcription.Worker)
	}
	if cfg.Transcription.GlobalConcurrency != 2 {
		t.Fatalf("unexpected global ceiling: %d", cfg.Transcription.GlobalConcurrency)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadWorkerFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SCRIBE_WORKER", "  /usr/local/bin/worker  ")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[transcription]\nworker = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transcription.Worker != "/usr/local/bin/worker" {
		t.Fatalf("expected worker from env, got %q", cfg.Transcription.Worker)
	}
}

func TestValidateRejectsBadWindowing(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		fragment string
	}{
		{
			name:     "zero window",
			mutate:   func(c *config.Config) { c.Transcription.WindowSec = 0 },
			fragment: "window_sec",
		},
		{
			name:     "negative overlap",
			mutate:   func(c *config.Config) { c.Transcription.OverlapSec = -1 },
			fragment: "overlap_sec",
		},
		{
			name: "overlap not smaller than window",
			mutate: func(c *config.Config) {
				c.Transcription.WindowSec = 30
				c.Transcription.OverlapSec = 30
			},
			fragment: "overlap_sec",
		},
		{
			name:     "missing worker",
			mutate:   func(c *config.Config) { c.Transcription.Worker = "" },
			fragment: "worker",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("expected %q in error %q", tc.fragment, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Transcription.WindowSec != 600 {
		t.Fatalf("sample should match defaults, got window %d", cfg.Transcription.WindowSec)
	}
}
