package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"keylight/internal/history"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Job history utilities",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				records, err := store.List(cmd.Context(), normalizeStatuses(statuses)...)
				if err != nil {
					return err
				}
				if asJSON {
					views := make([]jobView, 0, len(records))
					for _, rec := range records {
						views = append(views, newJobView(rec))
					}
					return writeJSON(cmd, views)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Kind", "Status", "Progress", "Output", "Created"},
					buildJobRows(records),
					3,
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				rec, err := findJob(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, newJobView(rec))
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, buildJobDetailRows(rec)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete one job record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				rec, err := findJob(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				removed, err := store.Remove(cmd.Context(), rec.ID)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("no job matches %q", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", shortJobID(rec.ID))
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete finished jobs from the history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				var (
					removed int64
					err     error
				)
				if all {
					removed, err = store.Clear(cmd.Context())
				} else {
					removed, err = store.ClearFinished(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d jobs\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Also delete pending and running records")
	return cmd
}

// findJob resolves a job by exact id first, then by unique prefix so the
// shortened ids printed in tables stay usable as arguments.
func findJob(ctx context.Context, store *history.Store, id string) (*history.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("job id is required")
	}
	rec, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	records, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	var match *history.Record
	for _, candidate := range records {
		if !strings.HasPrefix(candidate.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("job id %q is ambiguous", id)
		}
		match = candidate
	}
	if match == nil {
		return nil, fmt.Errorf("no job matches %q", id)
	}
	return match, nil
}

func normalizeStatuses(values []string) []string {
	statuses := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			statuses = append(statuses, value)
		}
	}
	return statuses
}
