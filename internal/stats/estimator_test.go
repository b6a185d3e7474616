package stats_test

import (
	"testing"
	"time"

	"kiln/internal/stats"
)

func TestComputeWithEmptyHistory(t *testing.T) {
	progress := stats.Compute(nil, 100, time.Now())
	if !progress.Calculating {
		t.Fatal("expected calculating with no frame history")
	}
	if progress.ETALabel() != "calculating" {
		t.Fatalf("unexpected ETA label: %q", progress.ETALabel())
	}
	if progress.AverageLabel() != "calculating" {
		t.Fatalf("unexpected average label: %q", progress.AverageLabel())
	}
}

func TestComputeAveragesAndRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	history := []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}

	progress := stats.Compute(history, 10, now)
	if progress.Calculating {
		t.Fatal("expected estimates with frame history")
	}
	if progress.AverageFrameTime != 4*time.Second {
		t.Fatalf("average: got %v want 4s", progress.AverageFrameTime)
	}
	if progress.Elapsed != 12*time.Second {
		t.Fatalf("elapsed: got %v want 12s", progress.Elapsed)
	}
	if progress.EstimatedRemaining != 28*time.Second {
		t.Fatalf("remaining: got %v want 28s", progress.EstimatedRemaining)
	}
	if want := now.Add(28 * time.Second); !progress.EstimatedCompletion.Equal(want) {
		t.Fatalf("completion: got %v want %v", progress.EstimatedCompletion, want)
	}
}

func TestComputeClampsOverrun(t *testing.T) {
	// More frames recorded than the total (resume plus crash recovery can
	// replay progress lines); remaining must not go negative.
	history := []time.Duration{time.Second, time.Second, time.Second}
	progress := stats.Compute(history, 2, time.Now())
	if progress.EstimatedRemaining != 0 {
		t.Fatalf("remaining: got %v want 0", progress.EstimatedRemaining)
	}
}

func TestSessionAccumulatesCompletions(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	session := stats.NewSession(start)

	session.RecordCompleted(250, 500)
	session.RecordCompleted(100, 100)

	snap := session.Snapshot()
	if snap.ScenesCompleted != 2 {
		t.Fatalf("scenes: got %d want 2", snap.ScenesCompleted)
	}
	if snap.FramesCompleted != 350 {
		t.Fatalf("frames: got %d want 350", snap.FramesCompleted)
	}
	if snap.TotalRenderSeconds != 600 {
		t.Fatalf("seconds: got %f want 600", snap.TotalRenderSeconds)
	}
	if avg := snap.AverageSecondsPerFrame(); avg < 1.71 || avg > 1.72 {
		t.Fatalf("average seconds per frame: got %f", avg)
	}
	if !snap.StartedAt.Equal(start) {
		t.Fatalf("start time: got %v want %v", snap.StartedAt, start)
	}
}

func TestSessionReset(t *testing.T) {
	session := stats.NewSession(time.Now())
	session.RecordCompleted(10, 20)

	restart := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	session.Reset(restart)

	snap := session.Snapshot()
	if snap.ScenesCompleted != 0 || snap.FramesCompleted != 0 || snap.TotalRenderSeconds != 0 {
		t.Fatalf("expected zeroed totals after reset: %+v", snap)
	}
	if !snap.StartedAt.Equal(restart) {
		t.Fatalf("start time: got %v want %v", snap.StartedAt, restart)
	}
	if snap.AverageSecondsPerFrame() != 0 {
		t.Fatal("expected zero average with no frames")
	}
}
