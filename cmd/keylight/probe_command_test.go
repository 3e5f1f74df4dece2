package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestProbeCommandRendersTable(t *testing.T) {
	env := setupCLITestEnv(t)
	clip := env.mediaFile(t, "clip.mp4")

	stdout, _, err := runCLI(t, env, "probe", clip)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, stdout, clip)
	requireContains(t, stdout, "h264 1280x720")
	requireContains(t, stdout, "30 fps")
	requireContains(t, stdout, "yuv420p")
	requireContains(t, stdout, "aac 48000 Hz, 2 ch")
	requireContains(t, stdout, "512.0 KiB")
	requireContains(t, stdout, "1 video, 1 audio")
}

func TestProbeCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	clip := env.mediaFile(t, "clip.mp4")

	stdout, _, err := runCLI(t, env, "probe", clip, "--json")
	if err != nil {
		t.Fatalf("probe --json: %v", err)
	}
	var doc struct {
		Streams []map[string]any `json:"streams"`
		Format  map[string]any   `json:"format"`
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if len(doc.Streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(doc.Streams))
	}
	if doc.Format["format_name"] != "mov,mp4,m4a,3gp,3g2,mj2" {
		t.Fatalf("unexpected format %v", doc.Format["format_name"])
	}
}

func TestProbeCommandMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "probe", filepath.Join(env.mediaDir, "absent.mp4"))
	if err == nil || !strings.Contains(err.Error(), "ffprobe inspect") {
		t.Fatalf("expected probe failure, got %v", err)
	}
}
