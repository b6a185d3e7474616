package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"kiln/internal/ipc"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(jobs []ipc.JobView) [][]string {
	if len(jobs) == 0 {
		return nil
	}
	sorted := make([]ipc.JobView, len(jobs))
	copy(sorted, jobs)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseQueueTime(sorted[i].CreatedAt)
		tj := parseQueueTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, job := range sorted {
		title := strings.TrimSpace(job.SceneTitle)
		if title == "" {
			source := strings.TrimSpace(job.ScenePath)
			if source != "" {
				title = filepath.Base(source)
			} else {
				title = "Unknown"
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", job.ID),
			title,
			formatStatusLabel(job.Status),
			formatFrameRange(job),
			formatQueueProgress(job),
			formatRelativeTime(job.CreatedAt),
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatFrameRange(job ipc.JobView) string {
	if job.StartFrame == 0 && job.EndFrame == 0 {
		return "-"
	}
	return fmt.Sprintf("%d-%d", job.StartFrame, job.EndFrame)
}

func formatQueueProgress(job ipc.JobView) string {
	switch strings.ToLower(strings.TrimSpace(job.Status)) {
	case "completed", "already_complete":
		return "100%"
	case "queued":
		return "-"
	}
	if job.Progress.Percent <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", job.Progress.Percent)
}

// formatRelativeTime renders wire timestamps as "5 minutes ago" style strings
// for table display. Unparseable values pass through untouched.
func formatRelativeTime(value string) string {
	t := parseQueueTime(value)
	if t.IsZero() {
		return strings.TrimSpace(value)
	}
	return humanize.Time(t)
}

func formatDisplayTime(value string) string {
	t := parseQueueTime(value)
	if t.IsZero() {
		return strings.TrimSpace(value)
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func parseQueueTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

func formatSessionStart(value string) string {
	t := parseQueueTime(value)
	if t.IsZero() {
		return strings.TrimSpace(value)
	}
	return fmt.Sprintf("%s (%s)", t.UTC().Format("2006-01-02 15:04"), humanize.Time(t))
}

func formatFrameCount(frames int) string {
	return humanize.Comma(int64(frames))
}

func formatRenderDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	d := time.Duration(seconds * float64(time.Second))
	if d >= time.Minute {
		d = d.Round(time.Second)
	} else {
		d = d.Round(100 * time.Millisecond)
	}
	return d.String()
}
