package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenJobLogCapturesDebugJSON(t *testing.T) {
	dir := t.TempDir()

	jl, err := OpenJobLog(dir, "job-123")
	if err != nil {
		t.Fatalf("OpenJobLog returned error: %v", err)
	}

	wantPath := filepath.Join(dir, "jobs", "job-123.log")
	if jl.Path() != wantPath {
		t.Fatalf("Path() = %q, want %q", jl.Path(), wantPath)
	}

	logger := slog.New(jl.Handler()).With(Args(String(FieldJobID, "job-123"))...)
	logger.Debug("engine spawn", String("args", "-y"))
	if err := jl.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	content, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read job log: %v", err)
	}
	for _, want := range []string{`"msg":"engine spawn"`, `"job_id":"job-123"`, `"level":"debug"`, `"args":"-y"`} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %s in job log, got %q", want, content)
		}
	}
}

func TestJobLogTeeRoutesByLevel(t *testing.T) {
	dir := t.TempDir()
	jl, err := OpenJobLog(dir, "job-tee")
	if err != nil {
		t.Fatalf("OpenJobLog returned error: %v", err)
	}
	defer jl.Close()

	consoleBuf, console := newConsoleLogger(slog.LevelInfo)
	logger := TeeLogger(console, jl.Handler())

	logger.Debug("quiet diagnostics")
	logger.Info("visible milestone")

	if strings.Contains(consoleBuf.String(), "quiet diagnostics") {
		t.Fatalf("debug line leaked to console: %q", consoleBuf.String())
	}
	if !strings.Contains(consoleBuf.String(), "visible milestone") {
		t.Fatalf("info line missing from console: %q", consoleBuf.String())
	}

	jl.Close()
	content, err := os.ReadFile(jl.Path())
	if err != nil {
		t.Fatalf("read job log: %v", err)
	}
	for _, want := range []string{"quiet diagnostics", "visible milestone"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q captured in job log, got %q", want, content)
		}
	}
}

func TestOpenJobLogRequiresDirAndID(t *testing.T) {
	if _, err := OpenJobLog("", "job"); err == nil {
		t.Fatal("expected error for empty directory")
	}
	if _, err := OpenJobLog(t.TempDir(), " "); err == nil {
		t.Fatal("expected error for empty job id")
	}
}

func TestOpenJobLogTruncatesPreviousRun(t *testing.T) {
	dir := t.TempDir()

	first, err := OpenJobLog(dir, "job-re")
	if err != nil {
		t.Fatalf("OpenJobLog returned error: %v", err)
	}
	slog.New(first.Handler()).Info("first run")
	first.Close()

	second, err := OpenJobLog(dir, "job-re")
	if err != nil {
		t.Fatalf("OpenJobLog returned error: %v", err)
	}
	slog.New(second.Handler()).Info("second run")
	second.Close()

	content, err := os.ReadFile(second.Path())
	if err != nil {
		t.Fatalf("read job log: %v", err)
	}
	if strings.Contains(string(content), "first run") {
		t.Fatalf("expected truncated log, got %q", content)
	}
	if !strings.Contains(string(content), "second run") {
		t.Fatalf("expected second run line, got %q", content)
	}
}

func TestNilJobLogIsSafe(t *testing.T) {
	var jl *JobLog
	if jl.Path() != "" {
		t.Fatal("expected empty path on nil job log")
	}
	if err := jl.Close(); err != nil {
		t.Fatalf("Close on nil returned error: %v", err)
	}
	if _, ok := jl.Handler().(NoopHandler); !ok {
		t.Fatalf("expected NoopHandler on nil job log, got %T", jl.Handler())
	}
}
