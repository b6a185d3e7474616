package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"kiln/internal/ipc"
)

const followPollInterval = 500 * time.Millisecond

// followRenderProgress polls daemon status and renders a live progress bar
// for the active job. It returns when the queue drains, the daemon stops, or
// the command context is cancelled.
func followRenderProgress(cmd *cobra.Command, cmdCtx *commandContext) error {
	return cmdCtx.withClient(func(client *ipc.Client) error {
		out := cmd.OutOrStdout()
		var bar *progressbar.ProgressBar
		var barJobID int64

		finishBar := func() {
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(out)
				bar = nil
				barJobID = 0
			}
		}
		defer finishBar()

		for {
			resp, err := client.Status()
			if err != nil {
				return fmt.Errorf("poll status: %w", err)
			}
			if !resp.Running {
				finishBar()
				fmt.Fprintln(out, "Daemon stopped")
				return nil
			}

			if resp.ActiveJobID > 0 {
				// The active job can finish between the status poll and the
				// describe call; a miss here is just skipped until next tick.
				describe, describeErr := client.QueueDescribe(resp.ActiveJobID)
				if describeErr == nil && describe != nil {
					job := describe.Job
					if bar == nil || barJobID != job.ID {
						finishBar()
						barJobID = job.ID
						bar = progressbar.NewOptions64(100,
							progressbar.OptionSetWriter(out),
							progressbar.OptionSetDescription(describeActiveJob(job)),
							progressbar.OptionSetWidth(30),
							progressbar.OptionSetPredictTime(false),
							progressbar.OptionSetRenderBlankState(true),
							progressbar.OptionThrottle(100*time.Millisecond),
						)
					}
					bar.Describe(describeActiveJob(job))
					_ = bar.Set64(int64(job.Progress.Percent))
				}
			} else if !queueHasPendingWork(resp.QueueStats) {
				finishBar()
				fmt.Fprintln(out, "Queue is idle")
				return nil
			}

			select {
			case <-cmd.Context().Done():
				return nil
			case <-time.After(followPollInterval):
			}
		}
	})
}

func describeActiveJob(job ipc.JobView) string {
	title := strings.TrimSpace(job.SceneTitle)
	if title == "" {
		title = fmt.Sprintf("job #%d", job.ID)
	}
	stage := strings.TrimSpace(job.Progress.Stage)
	if stage == "" {
		stage = job.Status
	}
	if job.CurrentFrame > 0 {
		return fmt.Sprintf("#%d %s [%s] frame %d", job.ID, title, stage, job.CurrentFrame)
	}
	return fmt.Sprintf("#%d %s [%s]", job.ID, title, stage)
}

func queueHasPendingWork(stats map[string]int) bool {
	for _, status := range []string{"queued", "probing", "rendering"} {
		if stats[status] > 0 {
			return true
		}
	}
	return false
}
