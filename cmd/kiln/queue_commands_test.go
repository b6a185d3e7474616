package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"kiln/internal/queue"
)

func seedScene(t *testing.T, env *cliTestEnv, name string) *queue.Job {
	t.Helper()
	job, created, err := env.store.NewScene(context.Background(), filepath.Join(env.baseDir, name))
	if err != nil {
		t.Fatalf("seed scene %s: %v", name, err)
	}
	if !created {
		t.Fatalf("scene %s already queued", name)
	}
	return job
}

func setJobStatus(t *testing.T, env *cliTestEnv, job *queue.Job, status queue.Status) {
	t.Helper()
	job.Status = status
	if err := env.store.Update(context.Background(), job); err != nil {
		t.Fatalf("update job %d: %v", job.ID, err)
	}
}

func TestQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	seedScene(t, env, "alpha.blend")
	beta := seedScene(t, env, "beta.blend")
	setJobStatus(t, env, beta, queue.StatusFailed)

	out, _, err := runCLI(t, []string{"queue", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Queued")
	requireContains(t, out, "Failed")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Alpha")
	requireContains(t, out, "Beta")
}

func TestQueueRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	alpha := seedScene(t, env, "alpha.blend")
	setJobStatus(t, env, alpha, queue.StatusFailed)

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Retried 1 failed jobs")

	updated, err := env.store.GetByID(ctx, alpha.ID)
	if err != nil {
		t.Fatalf("lookup alpha: %v", err)
	}
	if updated.Status != queue.StatusQueued {
		t.Fatalf("expected queued, got %s", updated.Status)
	}

	setJobStatus(t, env, updated, queue.StatusFailed)

	out, _, err = runCLI(t, []string{"queue", "clear", "--failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear failed: %v", err)
	}
	requireContains(t, out, "Cleared 1 failed jobs")

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared")
}

func TestQueueRetrySpecificID(t *testing.T) {
	env := setupCLITestEnv(t)

	alpha := seedScene(t, env, "alpha.blend")
	setJobStatus(t, env, alpha, queue.StatusFailed)

	out, _, err := runCLI(t, []string{"queue", "retry", fmt.Sprintf("%d", alpha.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue retry specific: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Job %d reset for retry", alpha.ID))
}

func TestQueueRetryInvalidID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"queue", "retry", "abc"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid job id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestQueueRemove(t *testing.T) {
	env := setupCLITestEnv(t)

	alpha := seedScene(t, env, "alpha.blend")
	rendering := seedScene(t, env, "beta.blend")
	setJobStatus(t, env, rendering, queue.StatusRendering)

	out, _, err := runCLI(t, []string{"queue", "remove", fmt.Sprintf("%d", alpha.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Job %d removed", alpha.ID))

	out, _, err = runCLI(t, []string{"queue", "remove", fmt.Sprintf("%d", rendering.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove rendering: %v", err)
	}
	requireContains(t, out, "being processed")

	out, _, err = runCLI(t, []string{"queue", "remove", "9999"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove missing: %v", err)
	}
	requireContains(t, out, "Job 9999 not found")
}

func TestQueueResetStuck(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	job := seedScene(t, env, "alpha.blend")
	setJobStatus(t, env, job, queue.StatusProbing)

	out, _, err := runCLI(t, []string{"queue", "reset-stuck"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue reset-stuck: %v", err)
	}
	requireContains(t, out, "Reset 1 jobs")

	updated, err := env.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	if updated.Status != queue.StatusQueued {
		t.Fatalf("expected queued after reset, got %s", updated.Status)
	}
}

func TestQueueShowDetail(t *testing.T) {
	env := setupCLITestEnv(t)

	job := seedScene(t, env, "studio_shot.blend")
	job.StartFrame = 1
	job.EndFrame = 250
	job.CurrentFrame = 42
	job.CrashCount = 2
	job.ProgressStage = "rendering"
	job.ProgressPercent = 16.8
	setJobStatus(t, env, job, queue.StatusRendering)

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", job.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Job #%d", job.ID))
	requireContains(t, out, "Studio Shot")
	requireContains(t, out, "Frames:         1-250")
	requireContains(t, out, "Current Frame:  42")
	requireContains(t, out, "Crashes:        2")
}

func TestQueueShowNotFound(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"queue", "show", "9999"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestQueueListJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	seedScene(t, env, "alpha.blend")
	seedScene(t, env, "beta.blend")

	out, _, err := runCLI(t, []string{"queue", "list", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}

	var payload struct {
		Jobs []map[string]any `json:"jobs"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if len(payload.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(payload.Jobs))
	}
	for _, job := range payload.Jobs {
		if _, ok := job["id"]; !ok {
			t.Fatal("missing 'id' key in JSON job")
		}
		if _, ok := job["status"]; !ok {
			t.Fatal("missing 'status' key in JSON job")
		}
	}
}

func TestQueueStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	seedScene(t, env, "alpha.blend")
	beta := seedScene(t, env, "beta.blend")
	setJobStatus(t, env, beta, queue.StatusFailed)

	out, _, err := runCLI(t, []string{"queue", "status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue status --json: %v", err)
	}

	var stats map[string]any
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if _, ok := stats["queued"]; !ok {
		t.Fatalf("expected 'queued' key in status JSON, got: %v", stats)
	}
	if _, ok := stats["failed"]; !ok {
		t.Fatalf("expected 'failed' key in status JSON, got: %v", stats)
	}
}

func TestQueueShowJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	job := seedScene(t, env, "alpha.blend")

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", job.ID), "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show --json: %v", err)
	}

	var detail map[string]any
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if detail["id"] != float64(job.ID) {
		t.Fatalf("expected id %d, got %v", job.ID, detail["id"])
	}
	if detail["scene_title"] != "Alpha" {
		t.Fatalf("expected scene_title Alpha, got %v", detail["scene_title"])
	}
}

func TestQueueHealthJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	seedScene(t, env, "alpha.blend")

	out, _, err := runCLI(t, []string{"queue", "health", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue health --json: %v", err)
	}

	var health map[string]any
	if err := json.Unmarshal([]byte(out), &health); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	for _, key := range []string{"total", "queued", "processing", "failed", "completed"} {
		if _, ok := health[key]; !ok {
			t.Fatalf("missing %q key in health JSON", key)
		}
	}
	if health["total"] != float64(1) {
		t.Fatalf("expected total=1, got %v", health["total"])
	}
}
