package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"kiln/internal/ipc"
	"kiln/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <scene.blend>",
		Short: "Add a scene file to the render queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("scene file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect scene file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}
			if ext := strings.ToLower(filepath.Ext(info.Name())); ext != ".blend" {
				return fmt.Errorf("unsupported file extension %q; only .blend scenes can be queued", ext)
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if client != nil {
					resp, err := client.QueueAdd(absPath)
					if err != nil {
						return err
					}
					if resp == nil {
						return errors.New("empty response from daemon")
					}
					if resp.Created {
						fmt.Fprintf(out, "Queued %s as job #%d\n", resp.Job.SceneTitle, resp.Job.ID)
					} else {
						fmt.Fprintf(out, "Scene already queued as job #%d (%s)\n", resp.Job.ID, formatStatusLabel(resp.Job.Status))
					}
					return nil
				}

				job, created, err := store.NewScene(cmd.Context(), absPath)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(out, "Queued %s as job #%d\n", job.SceneTitle, job.ID)
					fmt.Fprintln(out, "The daemon is not running; start it with `kiln start` to begin rendering")
				} else {
					fmt.Fprintf(out, "Scene already queued as job #%d (%s)\n", job.ID, formatStatusLabel(string(job.Status)))
				}
				return nil
			})
		},
	}
}
