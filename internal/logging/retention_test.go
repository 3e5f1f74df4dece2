package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAgedFile(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("log line\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestCleanupOldLogsPrunesAgedFiles(t *testing.T) {
	dir := t.TempDir()
	oldLog := filepath.Join(dir, "old.log")
	freshLog := filepath.Join(dir, "fresh.log")
	activeLog := filepath.Join(dir, "keylight.log")
	oldJobLog := filepath.Join(dir, "jobs", "stale-job.log")

	writeAgedFile(t, oldLog, 10*24*time.Hour)
	writeAgedFile(t, freshLog, time.Hour)
	writeAgedFile(t, activeLog, 10*24*time.Hour)
	writeAgedFile(t, oldJobLog, 10*24*time.Hour)

	CleanupOldLogs(NewNop(), 7, RetentionTargets(dir)...)

	if _, err := os.Stat(oldLog); !os.IsNotExist(err) {
		t.Fatalf("expected %s pruned, stat err %v", oldLog, err)
	}
	if _, err := os.Stat(oldJobLog); !os.IsNotExist(err) {
		t.Fatalf("expected %s pruned, stat err %v", oldJobLog, err)
	}
	if _, err := os.Stat(freshLog); err != nil {
		t.Fatalf("expected %s kept: %v", freshLog, err)
	}
	if _, err := os.Stat(activeLog); err != nil {
		t.Fatalf("expected active log excluded from pruning: %v", err)
	}
}

func TestCleanupOldLogsZeroRetentionDisablesPruning(t *testing.T) {
	dir := t.TempDir()
	oldLog := filepath.Join(dir, "old.log")
	writeAgedFile(t, oldLog, 30*24*time.Hour)

	CleanupOldLogs(NewNop(), 0, RetentionTargets(dir)...)

	if _, err := os.Stat(oldLog); err != nil {
		t.Fatalf("expected file kept with retention disabled: %v", err)
	}
}

func TestRetentionTargetsEmptyDir(t *testing.T) {
	if got := RetentionTargets("  "); got != nil {
		t.Fatalf("expected nil targets for blank dir, got %v", got)
	}
}
