package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kiln/internal/ipc"
	"kiln/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			initialLimit := lines
			if initialLimit < 0 {
				initialLimit = 0
			}
			initialOffset := int64(-1)
			if initialLimit == 0 {
				initialOffset = 0
			}

			socket := ctx.socketPath()
			client, err := ipc.Dial(socket)
			if err != nil {
				if !daemonUnreachable(err) {
					return wrapDialError(err, socket)
				}
				// Daemon down: read the current log file directly.
				return tailLogFile(cmd, ctx, initialOffset, initialLimit, follow)
			}
			defer client.Close()

			cmdCtx := cmd.Context()
			offset := initialOffset
			limit := initialLimit
			printed := false

			for {
				req := ipc.LogTailRequest{
					Offset:     offset,
					Limit:      limit,
					Follow:     follow,
					WaitMillis: 1000,
				}
				resp, err := client.LogTail(req)
				if err != nil {
					return fmt.Errorf("tail logs: %w", err)
				}
				if resp == nil {
					return errors.New("log tail response missing")
				}
				for _, line := range resp.Lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
					printed = true
				}
				offset = resp.Offset
				limit = 0
				if !follow {
					if !printed {
						fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
					}
					return nil
				}
				select {
				case <-cmdCtx.Done():
					return nil
				default:
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	return cmd
}

func tailLogFile(cmd *cobra.Command, ctx *commandContext, offset int64, limit int, follow bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logPath := cfg.DaemonLogPath()
	cmdCtx := cmd.Context()
	printed := false

	for {
		opts := logs.TailOptions{
			Offset: offset,
			Limit:  limit,
			Follow: follow,
			Wait:   time.Second,
		}
		result, err := logs.Tail(cmdCtx, logPath, opts)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("tail log file %s: %w", logPath, err)
		}
		for _, line := range result.Lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
			printed = true
		}
		offset = result.Offset
		limit = 0
		if !follow {
			if !printed {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
			}
			return nil
		}
		select {
		case <-cmdCtx.Done():
			return nil
		default:
		}
	}
}
