package probe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDurationSeconds(t *testing.T) {
	result := Result{Format: Format{Duration: "123.45"}}
	got, err := result.DurationSeconds()
	if err != nil {
		t.Fatalf("DurationSeconds: %v", err)
	}
	if got != 123.45 {
		t.Fatalf("unexpected duration: %v", got)
	}
}

func TestDurationSecondsRejectsUnusableValues(t *testing.T) {
	tests := []struct {
		name     string
		duration string
	}{
		{"missing", ""},
		{"non-numeric", "N/A"},
		{"zero", "0"},
		{"negative", "-3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Result{Format: Format{Duration: tc.duration}}
			if _, err := result.DurationSeconds(); err == nil {
				t.Fatalf("expected error for duration %q", tc.duration)
			}
		})
	}
}

func TestAudioStreamCount(t *testing.T) {
	result := Result{Streams: []Stream{
		{CodecType: "video"},
		{CodecType: "audio"},
		{CodecType: "Audio"},
	}}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
}

func TestDurationRunsStubBinary(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffprobe")
	script := `#!/bin/sh
echo '{"streams":[{"codec_type":"audio"}],"format":{"duration":"130.0"}}'
`
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	got, err := Duration(context.Background(), stub, "/tmp/input.wav")
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if got != 130.0 {
		t.Fatalf("unexpected duration: %v", got)
	}
}

func TestDurationSurfacesToolOutput(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffprobe")
	script := `#!/bin/sh
echo 'input.wav: No such file or directory' >&2
exit 1
`
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	_, err := Duration(context.Background(), stub, "/tmp/input.wav")
	if err == nil {
		t.Fatal("expected error from failing stub")
	}
	if !strings.Contains(err.Error(), "No such file or directory") {
		t.Fatalf("expected tool output in error, got %v", err)
	}
}
