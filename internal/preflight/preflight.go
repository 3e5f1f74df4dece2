package preflight

import (
	"context"
	"fmt"
	"strings"

	"keylight/internal/config"
	"keylight/internal/deps"
	"keylight/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every readiness check for the given config: scratch and
// log directory access plus the external tool probes.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	for _, status := range CheckTools(ctx, cfg) {
		results = append(results, toolResult(status))
	}
	return results
}

// Verify gates job-running commands on the required tools. It returns a
// configuration error naming the first unavailable requirement, so a missing
// ffmpeg fails before any job state exists.
func Verify(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "verify", "configuration missing", nil)
	}
	for _, status := range CheckTools(ctx, cfg) {
		if status.Available || status.Optional {
			continue
		}
		msg := fmt.Sprintf("%s unavailable: %s", strings.ToLower(status.Name), status.Detail)
		return services.Wrap(services.ErrConfiguration, "preflight", "verify", msg, nil)
	}
	return nil
}

func toolResult(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available}
	switch {
	case !status.Available:
		result.Detail = status.Detail
	case status.Version != "":
		result.Detail = fmt.Sprintf("%s (version %s)", status.Command, status.Version)
	case status.Detail != "":
		result.Detail = fmt.Sprintf("%s (%s)", status.Command, status.Detail)
	default:
		result.Detail = status.Command
	}
	return result
}
