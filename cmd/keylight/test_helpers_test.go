package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// probeDocument is what the stubbed ffprobe prints for any existing path: a
// three-second 1280x720 h264 stream with stereo aac audio.
const probeDocument = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "h264",
      "codec_type": "video",
      "width": 1280,
      "height": 720,
      "pix_fmt": "yuv420p",
      "r_frame_rate": "30/1",
      "avg_frame_rate": "30/1",
      "nb_frames": "90",
      "duration": "3.000000"
    },
    {
      "index": 1,
      "codec_name": "aac",
      "codec_type": "audio",
      "sample_rate": "48000",
      "channels": 2,
      "duration": "3.000000"
    }
  ],
  "format": {
    "filename": "input.mp4",
    "nb_streams": 2,
    "duration": "3.000000",
    "size": "524288",
    "bit_rate": "1398101",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2"
  }
}`

type cliTestEnv struct {
	baseDir     string
	configPath  string
	workDir     string
	logDir      string
	mediaDir    string
	ffmpegPath  string
	ffprobePath string
}

// setupCLITestEnv builds an isolated home, stub ffmpeg/ffprobe binaries,
// and a config file pointing at all of them. Commands run against the
// config via runCLI.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}

	env := &cliTestEnv{
		baseDir:     base,
		workDir:     filepath.Join(base, "work"),
		logDir:      filepath.Join(base, "logs"),
		mediaDir:    filepath.Join(base, "media"),
		ffmpegPath:  filepath.Join(binDir, "ffmpeg"),
		ffprobePath: filepath.Join(binDir, "ffprobe"),
	}
	writeEngineStub(t, env.ffmpegPath)
	writeProbeStub(t, env.ffprobePath)
	if err := os.MkdirAll(env.mediaDir, 0o755); err != nil {
		t.Fatalf("mkdir media: %v", err)
	}

	env.configPath = filepath.Join(homeDir, ".config", "keylight", "config.toml")
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeCLIConfig(t, env)

	return env
}

// writeEngineStub fakes ffmpeg: it answers -version and otherwise writes a
// small artifact to its final argument, which is always the output path.
func writeEngineStub(t *testing.T, path string) {
	t.Helper()
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"-version\" ]; then\n" +
		"  echo \"ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers\"\n" +
		"  exit 0\n" +
		"fi\n" +
		"for a; do last=$a; done\n" +
		"printf 'artifact' > \"$last\"\n" +
		"exit 0\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
}

// writeProbeStub fakes ffprobe: it answers -version, fails for paths that do
// not exist, and prints a fixed probe document otherwise.
func writeProbeStub(t *testing.T, path string) {
	t.Helper()
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"-version\" ]; then\n" +
		"  echo \"ffprobe version 6.1.1 Copyright (c) 2007-2023 the FFmpeg developers\"\n" +
		"  exit 0\n" +
		"fi\n" +
		"for a; do last=$a; done\n" +
		"if [ ! -e \"$last\" ]; then\n" +
		"  echo \"$last: No such file or directory\" >&2\n" +
		"  exit 1\n" +
		"fi\n" +
		"cat <<'PROBE_EOF'\n" +
		probeDocument + "\n" +
		"PROBE_EOF\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
}

func writeCLIConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
work_dir = %q
log_dir = %q

[tools]
ffmpeg = %q
ffprobe = %q

[history]
enabled = true
path = %q

[logging]
format = "json"
level = "info"
`,
		env.workDir,
		env.logDir,
		env.ffmpegPath,
		env.ffprobePath,
		filepath.Join(env.workDir, "history.db"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// rewriteConfig applies a literal replacement to the config file for tests
// that need a broken or reduced setup.
func rewriteConfig(t *testing.T, env *cliTestEnv, old, replacement string) {
	t.Helper()
	data, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	updated := strings.Replace(string(data), old, replacement, 1)
	if updated == string(data) {
		t.Fatalf("config rewrite %q had no effect", old)
	}
	if err := os.WriteFile(env.configPath, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
}

// mediaFile drops a placeholder media file the stubbed ffprobe will accept.
func (env *cliTestEnv) mediaFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(env.mediaDir, name)
	if err := os.WriteFile(path, []byte("media-bytes"), 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}
	return path
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
