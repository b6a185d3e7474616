package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kiln/internal/config"
	"kiln/internal/daemon"
	"kiln/internal/logging"
	"kiln/internal/notifications"
	"kiln/internal/queue"
	"kiln/internal/services"
	"kiln/internal/stage"
	"kiln/internal/testsupport"
	"kiln/internal/workflow"
)

type passStage struct{ name string }

func (p passStage) Prepare(context.Context, *queue.Job) error { return nil }
func (p passStage) Execute(context.Context, *queue.Job) error { return nil }
func (p passStage) HealthCheck(context.Context) stage.Health  { return stage.Healthy(p.name) }

func newTestDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifications.NewService(cfg))
	mgr.ConfigureStages(workflow.StageSet{
		Prober:   passStage{name: "prober"},
		Renderer: passStage{name: "supervisor"},
	})
	d, err := daemon.New(cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, store
}

func TestDaemonValidatesScenesBeforeQueueing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newTestDaemon(t, cfg)
	ctx := context.Background()

	if _, _, err := d.AddScene(ctx, "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty path, got %v", err)
	}
	if _, _, err := d.AddScene(ctx, filepath.Join(testsupport.BaseDir(cfg), "missing.blend")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing file, got %v", err)
	}
	if _, _, err := d.AddScene(ctx, testsupport.BaseDir(cfg)); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for directory, got %v", err)
	}

	notScene := filepath.Join(testsupport.BaseDir(cfg), "notes.txt")
	testsupport.WriteFile(t, notScene, 64)
	if _, _, err := d.AddScene(ctx, notScene); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for non-blend file, got %v", err)
	}
}

func TestDaemonAddSceneRequiresConfiguredRenderer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newTestDaemon(t, cfg)
	ctx := context.Background()

	scene := testsupport.WriteSceneFile(t, testsupport.BaseDir(cfg), "city_flyover.blend")
	if _, _, err := d.AddScene(ctx, scene); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error with unset renderer path, got %v", err)
	}

	jobs, err := d.ListQueue(ctx, nil)
	if err != nil {
		t.Fatalf("ListQueue failed: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected empty queue after refused submission, got %d jobs", len(jobs))
	}
}

func TestDaemonAddSceneDeduplicatesLiveJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithConfiguredRenderer())
	d, _ := newTestDaemon(t, cfg)
	ctx := context.Background()

	scene := testsupport.WriteSceneFile(t, testsupport.BaseDir(cfg), "city_flyover.blend")
	job, created, err := d.AddScene(ctx, scene)
	if err != nil {
		t.Fatalf("AddScene failed: %v", err)
	}
	if !created {
		t.Fatal("expected first submission to create a job")
	}
	if job.Status != queue.StatusQueued {
		t.Fatalf("expected queued status, got %s", job.Status)
	}
	if job.SceneTitle != "City Flyover" {
		t.Fatalf("unexpected scene title %q", job.SceneTitle)
	}

	again, createdAgain, err := d.AddScene(ctx, scene)
	if err != nil {
		t.Fatalf("AddScene failed: %v", err)
	}
	if createdAgain {
		t.Fatal("expected duplicate submission to return the existing job")
	}
	if again.ID != job.ID {
		t.Fatalf("expected job %d, got %d", job.ID, again.ID)
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0

	first, _ := newTestDaemon(t, cfg)
	second, _ := newTestDaemon(t, cfg)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second daemon start to fail while lock is held")
	} else if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected error: %v", err)
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("expected second daemon to start after lock release: %v", err)
	}
	second.Stop()
}

func TestDaemonStatusReportsRenderer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newTestDaemon(t, cfg)

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("expected daemon to report not running")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), status.PID)
	}
	if status.QueueDBPath != cfg.DatabasePath() {
		t.Fatalf("unexpected queue db path %q", status.QueueDBPath)
	}
	if status.Renderer.Ready {
		t.Fatalf("expected renderer not ready without a configured path, got %+v", status.Renderer)
	}

	renderer := filepath.Join(testsupport.BaseDir(cfg), "blender")
	if err := os.WriteFile(renderer, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write renderer stub: %v", err)
	}
	if err := config.SaveBlender(cfg.Paths.BlenderConfig, config.BlenderSettings{BlenderPath: renderer}); err != nil {
		t.Fatalf("save blender settings: %v", err)
	}

	status = d.Status(context.Background())
	if !status.Renderer.Ready {
		t.Fatalf("expected renderer ready, got %+v", status.Renderer)
	}
	if status.Renderer.Path != renderer {
		t.Fatalf("unexpected renderer path %q", status.Renderer.Path)
	}
}

func TestDaemonTestNotificationWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newTestDaemon(t, cfg)

	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if sent {
		t.Fatal("expected no notification without a configured topic")
	}
	if message != "ntfy topic not configured" {
		t.Fatalf("unexpected message %q", message)
	}
}
