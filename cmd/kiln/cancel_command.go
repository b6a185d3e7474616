package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kiln/internal/ipc"
)

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <jobID>",
		Short: "Cancel a render job, killing its subprocess when active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			// Cancellation must go through the daemon: only the worker
			// holds the subprocess handle for the active job.
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Cancel(ids[0])
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("empty response from daemon")
				}
				if message := strings.TrimSpace(resp.Message); message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), message)
					return nil
				}
				if resp.Cancelled {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d cancelled\n", ids[0])
				}
				return nil
			})
		},
	}
}
