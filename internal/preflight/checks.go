package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"keylight/internal/config"
	"keylight/internal/deps"
)

// versionProbeTimeout bounds each -version banner read.
const versionProbeTimeout = 3 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTools evaluates the external binaries the engine shells out to and
// probes their versions. Both Verify and the doctor command build on this
// to avoid duplicating the requirements list.
func CheckTools(ctx context.Context, cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for rendering and encoding",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Required for media inspection",
		},
	})
	for i := range statuses {
		if !statuses[i].Available {
			continue
		}
		probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
		version, err := deps.Version(probeCtx, statuses[i].Command)
		cancel()
		if err != nil {
			statuses[i].Detail = fmt.Sprintf("version probe failed: %v", err)
			continue
		}
		statuses[i].Version = version
	}
	return statuses
}
