package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"keylight/internal/config"
	"keylight/internal/history"
	"keylight/internal/logging"
	"keylight/internal/services"
)

// lockFileName lives inside the work directory; holding its flock makes
// this process the owner of scratch space and history.
const lockFileName = "keylight.lock"

// Runtime owns one engine instance: the work-directory lock, the history
// store, and the supervisor on top of them. Job-running commands build a
// Runtime, Start it, submit work, and Close on the way out.
type Runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *history.Store
	sup    *Supervisor

	lockPath string
	lock     *flock.Flock
	locked   bool
}

// NewRuntime prepares the configured directories, opens the history archive
// when enabled, and wires the production engine.
func NewRuntime(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("runtime requires a config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare directories: %w", err)
	}

	var store *history.Store
	if cfg.History.Enabled {
		opened, err := history.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		store = opened
	}
	sup, err := NewSupervisor(cfg, nil, store, logger)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	lockPath := filepath.Join(cfg.Paths.WorkDir, lockFileName)
	return &Runtime{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "runtime"),
		store:    store,
		sup:      sup,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the work-directory lock, then sweeps whatever a previous
// owner left behind: history rows stuck in pending or running are failed,
// and orphaned scratch intermediates are deleted. The lock guarantees no
// live job owns any of them.
func (r *Runtime) Start(ctx context.Context) error {
	ok, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire work-dir lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another keylight instance owns %s", r.cfg.Paths.WorkDir)
	}
	r.locked = true

	sweepCtx := services.WithStage(ctx, "recover")
	logger := logging.WithContext(sweepCtx, r.logger)
	if r.store != nil {
		swept, err := r.store.FailAbandoned(sweepCtx)
		if err != nil {
			logger.Warn("abandoned job sweep failed", logging.Error(err))
		} else if swept > 0 {
			logger.Info("abandoned jobs marked failed", logging.Int64("count", swept))
		}
	}
	r.sweepScratch(logger)
	return nil
}

// sweepScratch removes stale video-only intermediates from the work
// directory. They only exist mid-job, so under the lock every match is a
// leftover from a crashed or killed run.
func (r *Runtime) sweepScratch(logger *slog.Logger) {
	matches, err := filepath.Glob(filepath.Join(r.cfg.Paths.WorkDir, "*.video.*"))
	if err != nil || len(matches) == 0 {
		return
	}
	removed := 0
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			logger.Warn("stale scratch file not removed",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("stale scratch files removed", logging.Int("count", removed))
	}
}

// Supervisor returns the job supervisor.
func (r *Runtime) Supervisor() *Supervisor { return r.sup }

// History returns the archive store, nil when history is disabled.
func (r *Runtime) History() *history.Store { return r.store }

// LockPath returns the ownership lock file location.
func (r *Runtime) LockPath() string { return r.lockPath }

// Close releases the work-directory lock and the history store. Safe to
// call whether or not Start succeeded.
func (r *Runtime) Close() error {
	if r.locked {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("work-dir lock release failed", logging.Error(err))
		}
		r.locked = false
	}
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
