package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"kiln/internal/ipc"
	"kiln/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := strings.TrimSpace(fmt.Sprintf("[%s] %s", statusKindLabel(kind), message))
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if color := statusKindColor(kind); colorize && color != "" {
		return color + base + ansiReset
	}
	return base
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		return []string{ansiBlue + line + ansiReset, ansiBlue + rule + ansiReset}
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// systemStatusLines summarizes daemon, workflow, renderer, stage, and watch
// folder state for the status command's first section.
func systemStatusLines(resp *ipc.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, 6)
	if resp.Running {
		lines = append(lines, renderStatusLine("Kiln", statusOK, "Running", colorize))
		switch {
		case resp.ActiveJobID > 0:
			detail := fmt.Sprintf("Rendering job #%d", resp.ActiveJobID)
			if resp.LastJob != nil && strings.TrimSpace(resp.LastJob.SceneTitle) != "" {
				detail = fmt.Sprintf("Rendering job #%d (%s)", resp.ActiveJobID, resp.LastJob.SceneTitle)
			}
			lines = append(lines, renderStatusLine("Workflow", statusOK, detail, colorize))
		case resp.QueueActive:
			lines = append(lines, renderStatusLine("Workflow", statusOK, "Active", colorize))
		default:
			lines = append(lines, renderStatusLine("Workflow", statusInfo, "Idle", colorize))
		}
	} else {
		lines = append(lines, renderStatusLine("Kiln", statusWarn, "Not running (run `kiln start`)", colorize))
	}

	if resp.Renderer.Ready {
		detail := "Ready"
		if strings.TrimSpace(resp.Renderer.Path) != "" {
			detail = fmt.Sprintf("Ready (%s)", resp.Renderer.Path)
		}
		lines = append(lines, renderStatusLine("Blender", statusOK, detail, colorize))
	} else {
		detail := strings.TrimSpace(resp.Renderer.Detail)
		if detail == "" {
			detail = "not configured"
		}
		lines = append(lines, renderStatusLine("Blender", statusError, detail, colorize))
	}

	for _, health := range resp.StageHealth {
		kind := statusWarn
		if health.Ready {
			kind = statusOK
		}
		lines = append(lines, renderStatusLine(fmt.Sprintf("Stage %s", health.Name), kind, health.Detail, colorize))
	}

	if strings.TrimSpace(resp.WatchDir) != "" {
		lines = append(lines, renderStatusLine("Watch Folder", statusOK, resp.WatchDir, colorize))
	} else {
		lines = append(lines, renderStatusLine("Watch Folder", statusInfo, "Disabled", colorize))
	}

	if strings.TrimSpace(resp.LastError) != "" {
		lines = append(lines, renderStatusLine("Last Error", statusError, resp.LastError, colorize))
	}
	return lines
}

// pathStatusLines runs the same directory access checks the daemon performs
// at startup, so a failing path shows up before anything is queued.
func pathStatusLines(ctx *commandContext, resp *ipc.StatusResponse, colorize bool) []string {
	cfg := ctx.configValue()
	lines := make([]string, 0, 4)
	if cfg == nil {
		return lines
	}
	type pathCheck struct {
		label string
		path  string
	}
	checks := []pathCheck{
		{label: "Data", path: cfg.Paths.DataDir},
		{label: "Logs", path: cfg.Paths.LogDir},
		{label: "Render Logs", path: cfg.RenderLogDir()},
	}
	if strings.TrimSpace(cfg.Paths.WatchDir) != "" {
		checks = append(checks, pathCheck{label: "Watch", path: cfg.Paths.WatchDir})
	}
	for _, check := range checks {
		result := preflight.CheckDirectoryAccess(check.label, check.path)
		kind := statusError
		if result.Passed {
			kind = statusOK
		}
		lines = append(lines, renderStatusLine(check.label, kind, result.Detail, colorize))
	}
	lines = append(lines, renderStatusLine("Queue DB", statusInfo, resp.QueueDBPath, colorize))
	return lines
}

// sessionLines reports batch totals since the current queue run began. A
// stopped daemon or an idle queue has no session to report.
func sessionLines(resp *ipc.StatusResponse, colorize bool) []string {
	session := resp.Session
	if !resp.Running || strings.TrimSpace(session.StartedAt) == "" {
		return []string{renderStatusLine("Session", statusInfo, "No active session", colorize)}
	}
	return []string{
		renderStatusLine("Started", statusInfo, formatSessionStart(session.StartedAt), colorize),
		renderStatusLine("Scenes Done", statusInfo, fmt.Sprintf("%d", session.ScenesCompleted), colorize),
		renderStatusLine("Frames Done", statusInfo, formatFrameCount(session.FramesCompleted), colorize),
		renderStatusLine("Render Time", statusInfo, formatRenderDuration(session.TotalRenderSeconds), colorize),
	}
}
