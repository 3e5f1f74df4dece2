package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// JobLog captures one job's log lines into a dedicated file under the log
// directory. Its handler is meant to be teed next to the main logger and
// accepts debug records regardless of the global level, so the capture
// stays complete even when the console is quiet. Lines are JSON so the
// file replays cleanly through tooling.
type JobLog struct {
	path    string
	file    *os.File
	handler slog.Handler
}

// JobLogDir returns the directory holding per-job log files under dir.
func JobLogDir(dir string) string {
	return filepath.Join(dir, "jobs")
}

// JobLogPath returns the log file location for the given job id.
func JobLogPath(dir, id string) string {
	return filepath.Join(JobLogDir(dir), id+".log")
}

// OpenJobLog creates (or truncates) the per-job log file for id under
// dir/jobs.
func OpenJobLog(dir, id string) (*JobLog, error) {
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("job log: directory and job id required")
	}
	if err := os.MkdirAll(JobLogDir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("ensure job log dir: %w", err)
	}
	path := JobLogPath(dir, id)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open job log %s: %w", path, err)
	}
	level := new(slog.LevelVar)
	level.Set(slog.LevelDebug)
	handler, err := newJSONHandler(file, level, false)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &JobLog{path: path, file: file, handler: handler}, nil
}

// Handler returns the slog handler writing into the job log file.
func (j *JobLog) Handler() slog.Handler {
	if j == nil {
		return NoopHandler{}
	}
	return j.handler
}

// Path returns the on-disk location of the job log.
func (j *JobLog) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Close releases the underlying file. Records handled afterwards are
// dropped with an error the logger ignores.
func (j *JobLog) Close() error {
	if j == nil || j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
