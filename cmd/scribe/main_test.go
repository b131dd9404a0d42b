package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/config"
	"scribe/internal/runstore"
	"scribe/internal/testsupport"
)

func TestTranscribeDryRunWritesManifest(t *testing.T) {
	env := setupCLITestEnv(t)
	audio := filepath.Join(env.baseDir, "audio.wav")
	testsupport.WriteFile(t, audio, 32)

	out, _, err := runCLI(t, []string{"transcribe", audio, "--video-id", "vid-1", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("transcribe --dry-run: %v", err)
	}
	requireContains(t, out, "Dry run complete")

	manifest := filepath.Join(env.workDir, "vid-1", "manifest.json")
	if _, err := os.Stat(manifest); err != nil {
		t.Fatalf("expected manifest at %s: %v", manifest, err)
	}
}

func TestTranscribeRequiresVideoID(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"transcribe", "audio.wav"}, env.configPath); err == nil {
		t.Fatal("expected missing --video-id to fail")
	}
}

func TestRunsCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestRunsCommandListsRecordedRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := runstore.Open(cfg)
	if err != nil {
		t.Fatalf("runstore.Open: %v", err)
	}
	ctx := context.Background()
	if err := store.UpsertVideo(ctx, "vid-listed", "/tmp/a.wav"); err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	if _, err := store.InsertRun(ctx, "vid-listed", "whisper", "en", 60, 10, runstore.StatusCompleted); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	store.Close()

	out, _, err := runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "vid-listed")
	requireContains(t, out, "Completed")

	out, _, err = runCLI(t, []string{"runs", "--status", "completed"}, env.configPath)
	if err != nil {
		t.Fatalf("runs --status completed: %v", err)
	}
	requireContains(t, out, "vid-listed")

	if _, _, err := runCLI(t, []string{"runs", "--status", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestPlanCommandPreviewsLayout(t *testing.T) {
	env := setupCLITestEnv(t)

	binDir := filepath.Join(env.baseDir, "bin")
	testsupport.StubBinary(t, binDir, "ffprobe", "#!/bin/sh\necho '{\"format\":{\"duration\":\"130.0\"}}'\n")
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	out, _, err := runCLI(t, []string{"plan", "ignored.wav", "--window", "60", "--overlap", "10"}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "3 window(s) of 60s with 10s overlap")
	requireContains(t, out, "00:00:50")
}
