package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"kiln/internal/ipc"
	"kiln/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the render queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueClearFailedCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueHealthSubcommand(ctx))

	return queueCmd
}

var queueListHeaders = []string{"ID", "Scene", "Status", "Frames", "Progress", "Created"}

var queueListAlignments = []columnAlignment{
	alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft,
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				api := newQueueAPI(client, store)
				stats, err := api.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, stats)
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List render jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				api := newQueueAPI(client, store)
				jobs, err := api.List(cmd.Context(), listStatuses)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"jobs": jobs})
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(queueListHeaders, buildQueueListRows(jobs), queueListAlignments)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <jobID>",
		Short: "Show render job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				api := newQueueAPI(client, store)
				job, err := api.Describe(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", ids[0])
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, job)
				}
				printJobDetail(cmd, *job)
				return nil
			})
		},
	}
}

func printJobDetail(cmd *cobra.Command, job ipc.JobView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job #%d\n", job.ID)
	fmt.Fprintf(out, "  Scene:          %s\n", job.SceneTitle)
	fmt.Fprintf(out, "  Path:           %s\n", job.ScenePath)
	fmt.Fprintf(out, "  Status:         %s\n", formatStatusLabel(job.Status))
	fmt.Fprintf(out, "  Frames:         %s\n", formatFrameRange(job))
	if job.ResumeFrame > 0 && job.ResumeFrame != job.StartFrame {
		fmt.Fprintf(out, "  Resume From:    %d\n", job.ResumeFrame)
	}
	if strings.TrimSpace(job.MissingFrames) != "" {
		fmt.Fprintf(out, "  Missing Frames: %s\n", job.MissingFrames)
	}
	if strings.TrimSpace(job.OutputDir) != "" {
		fmt.Fprintf(out, "  Output Dir:     %s\n", job.OutputDir)
	}
	if strings.TrimSpace(job.ImageFormat) != "" {
		fmt.Fprintf(out, "  Image Format:   %s\n", job.ImageFormat)
	}
	if job.CurrentFrame > 0 {
		fmt.Fprintf(out, "  Current Frame:  %d\n", job.CurrentFrame)
	}
	fmt.Fprintf(out, "  Frames Done:    %s\n", formatFrameCount(job.FramesRendered))
	if job.RenderSeconds > 0 {
		fmt.Fprintf(out, "  Render Time:    %s\n", formatRenderDuration(job.RenderSeconds))
	}
	if job.CrashCount > 0 {
		fmt.Fprintf(out, "  Crashes:        %d\n", job.CrashCount)
	}
	if stage := strings.TrimSpace(job.Progress.Stage); stage != "" {
		fmt.Fprintf(out, "  Progress:       %.0f%% (%s)\n", job.Progress.Percent, stage)
	}
	if msg := strings.TrimSpace(job.Progress.Message); msg != "" {
		fmt.Fprintf(out, "  Progress Note:  %s\n", msg)
	}
	if strings.TrimSpace(job.ErrorMessage) != "" {
		fmt.Fprintf(out, "  Error:          %s\n", job.ErrorMessage)
	}
	if strings.TrimSpace(job.RenderLogPath) != "" {
		fmt.Fprintf(out, "  Render Log:     %s\n", job.RenderLogPath)
	}
	if created := formatDisplayTime(job.CreatedAt); created != "" {
		fmt.Fprintf(out, "  Created:        %s (%s)\n", created, formatRelativeTime(job.CreatedAt))
	}
	if updated := formatDisplayTime(job.UpdatedAt); updated != "" {
		fmt.Fprintf(out, "  Updated:        %s\n", updated)
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove render jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				api := newQueueAPI(client, store)
				out := cmd.OutOrStdout()
				switch {
				case clearCompleted:
					removed, err := api.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d completed jobs\n", removed)
				case clearFailed:
					removed, err := api.ClearFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d failed jobs\n", removed)
				default:
					removed, err := api.ClearAll(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d jobs\n", removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed jobs")
	return cmd
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove failed render jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				api := newQueueAPI(client, store)
				removed, err := api.ClearFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d failed jobs\n", removed)
				return nil
			})
		},
	}
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight jobs to the queued state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				api := newQueueAPI(client, store)
				updated, err := api.ResetStuck(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d jobs\n", updated)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [jobID...]",
		Short: "Retry failed render jobs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				api := newQueueAPI(client, store)
				out := cmd.OutOrStdout()

				if len(ids) == 0 {
					updated, err := api.Retry(cmd.Context(), nil)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Retried %d failed jobs\n", updated)
					return nil
				}

				for _, id := range ids {
					job, err := api.Describe(cmd.Context(), id)
					if err != nil {
						return err
					}
					if job == nil {
						fmt.Fprintf(out, "Job %d not found\n", id)
						continue
					}
					if !statusIsRetryable(job.Status) {
						fmt.Fprintf(out, "Job %d is not in failed state\n", id)
						continue
					}
					updated, err := api.Retry(cmd.Context(), []int64{id})
					if err != nil {
						return err
					}
					if updated > 0 {
						fmt.Fprintf(out, "Job %d reset for retry\n", id)
					} else {
						fmt.Fprintf(out, "Job %d is not in failed state\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <jobID...>",
		Short: "Remove specific render jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				api := newQueueAPI(client, store)
				out := cmd.OutOrStdout()
				for _, id := range ids {
					removed, err := api.Remove(cmd.Context(), []int64{id})
					if err != nil {
						// Over IPC the sentinel arrives as plain text, so match
						// the message as well as the wrapped error.
						if errors.Is(err, queue.ErrInUse) || strings.Contains(err.Error(), "being processed") {
							fmt.Fprintf(out, "Job %d is being processed; cancel it before removing\n", id)
							continue
						}
						return err
					}
					if removed > 0 {
						fmt.Fprintf(out, "Job %d removed\n", id)
					} else {
						fmt.Fprintf(out, "Job %d not found\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueHealthSubcommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				api := newQueueAPI(client, store)
				health, err := api.Health(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, ipc.QueueHealthResponse{
						Total:      health.Total,
						Queued:     health.Queued,
						Processing: health.Processing,
						Failed:     health.Failed,
						Completed:  health.Completed,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nQueued: %d\nProcessing: %d\nFailed: %d\nCompleted: %d\n",
					health.Total,
					health.Queued,
					health.Processing,
					health.Failed,
					health.Completed,
				)
				return nil
			})
		},
	}
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid job id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func statusIsRetryable(value string) bool {
	status, ok := queue.ParseStatus(value)
	return ok && status == queue.StatusFailed
}
