package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"kiln/internal/ipc"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Kiln", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Kiln:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Kiln", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("Queue Status", false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "== Queue Status ==" {
		t.Fatalf("unexpected header line %q", lines[0])
	}
	if lines[1] != strings.Repeat("-", len(lines[0])) {
		t.Fatalf("unexpected rule line %q", lines[1])
	}
}

func TestSystemStatusLines(t *testing.T) {
	resp := &ipc.StatusResponse{
		Running:     true,
		ActiveJobID: 7,
		LastJob:     &ipc.JobView{ID: 7, SceneTitle: "Studio Shot"},
		Renderer:    ipc.RendererInfo{Path: "/usr/bin/blender", Ready: true},
		StageHealth: []ipc.StageHealth{
			{Name: "prober", Ready: true},
			{Name: "supervisor", Ready: false, Detail: "renderer not configured"},
		},
		WatchDir: "/srv/drop",
	}

	lines := systemStatusLines(resp, false)
	joined := strings.Join(lines, "\n")
	requireContains(t, joined, "Rendering job #7 (Studio Shot)")
	requireContains(t, joined, "[OK] Ready (/usr/bin/blender)")
	requireContains(t, joined, "Stage prober")
	requireContains(t, joined, "[WARN] renderer not configured")
	requireContains(t, joined, "/srv/drop")
}

func TestSystemStatusLinesNotRunning(t *testing.T) {
	resp := &ipc.StatusResponse{
		Renderer: ipc.RendererInfo{Ready: false, Detail: "blender path not set"},
	}

	lines := systemStatusLines(resp, false)
	joined := strings.Join(lines, "\n")
	requireContains(t, joined, "Not running (run `kiln start`)")
	requireContains(t, joined, "[ERROR] blender path not set")
	requireContains(t, joined, "[INFO] Disabled")
}

func TestSessionLinesNoSession(t *testing.T) {
	lines := sessionLines(&ipc.StatusResponse{Running: false}, false)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	requireContains(t, lines[0], "No active session")
}

func TestSessionLinesActive(t *testing.T) {
	resp := &ipc.StatusResponse{
		Running: true,
		Session: ipc.SessionStats{
			StartedAt:          "2026-08-24T10:00:00Z",
			ScenesCompleted:    3,
			FramesCompleted:    1200,
			TotalRenderSeconds: 95,
		},
	}
	lines := sessionLines(resp, false)
	joined := strings.Join(lines, "\n")
	requireContains(t, joined, "Scenes Done")
	requireContains(t, joined, "3")
	requireContains(t, joined, "1,200")
	requireContains(t, joined, "1m35s")
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
