package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"keylight/internal/preflight"
	"keylight/internal/render"
)

// withRuntime builds the locked engine runtime for a job-running command.
// The callback receives a signal-aware context that cancels in-flight work
// on SIGINT or SIGTERM.
func (c *commandContext) withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *render.Runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := preflight.Verify(cmd.Context(), cfg); err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	rt, err := render.NewRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.Start(cmd.Context()); err != nil {
		return err
	}

	signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return fn(signalCtx, rt)
}

// awaitJob blocks until the job settles and maps the terminal snapshot onto
// the process exit contract. Wait takes a fresh context here: the job's own
// context already carries the signal cancellation, and an interrupted job
// still settles to cancelled before Wait returns.
func awaitJob(cmd *cobra.Command, sup *render.Supervisor, id string) error {
	job, err := sup.Wait(context.Background(), id)
	if err != nil {
		return err
	}
	switch job.Status {
	case render.StatusCompleted:
		fmt.Fprintf(cmd.OutOrStdout(), "Completed %s\n", job.OutputPath)
		return nil
	case render.StatusCancelled:
		return fmt.Errorf("job %s cancelled", shortJobID(job.ID))
	default:
		if job.Err != nil {
			return fmt.Errorf("job %s failed: %w", shortJobID(job.ID), job.Err)
		}
		return fmt.Errorf("job %s failed", shortJobID(job.ID))
	}
}
