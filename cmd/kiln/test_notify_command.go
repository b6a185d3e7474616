package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"kiln/internal/ipc"
)

// test-notify asks the running daemon to push a test message through ntfy,
// exercising the same topic and credentials render notifications use.
func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()
				resp, err := client.TestNotification()
				if resp != nil && resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
				}
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing notification response")
				}
				if resp.Message == "" {
					if resp.Sent {
						fmt.Fprintln(stdout, "Test notification sent")
					} else {
						fmt.Fprintln(stdout, "Notification not sent")
					}
				}
				return nil
			})
		},
	}
}
