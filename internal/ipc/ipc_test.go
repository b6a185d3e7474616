package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kiln/internal/daemon"
	"kiln/internal/ipc"
	"kiln/internal/logging"
	"kiln/internal/queue"
	"kiln/internal/stage"
	"kiln/internal/testsupport"
	"kiln/internal/workflow"
)

type noopStage struct{ name string }

func (n noopStage) Prepare(context.Context, *queue.Job) error { return nil }
func (n noopStage) Execute(context.Context, *queue.Job) error { return nil }
func (n noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(n.name)
}

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithConfiguredRenderer())
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{
		Prober:   noopStage{name: "prober"},
		Renderer: noopStage{name: "supervisor"},
	})
	d, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if status.Renderer.Ready {
		t.Fatal("expected renderer to be unready without a configured Blender path")
	}
	if len(status.StageHealth) != 2 {
		t.Fatalf("expected two stage health entries, got %d", len(status.StageHealth))
	}

	logPath := d.LogPath()
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	logResp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("LogTail initial failed: %v", err)
	}
	if len(logResp.Lines) != 2 || logResp.Lines[0] != "second" || logResp.Lines[1] != "third" {
		t.Fatalf("unexpected log tail response: %#v", logResp.Lines)
	}

	followDone := make(chan struct{})
	go func(offset int64) {
		resp, err := client.LogTail(ipc.LogTailRequest{Offset: offset, Follow: true, WaitMillis: 500})
		if err != nil {
			t.Errorf("LogTail follow error: %v", err)
			return
		}
		if len(resp.Lines) != 1 || resp.Lines[0] != "fourth" {
			t.Errorf("unexpected follow lines: %#v", resp.Lines)
		}
		close(followDone)
	}(logResp.Offset)

	time.Sleep(100 * time.Millisecond)
	if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		_, _ = f.WriteString("fourth\n")
		_ = f.Close()
	} else {
		t.Fatalf("append log: %v", err)
	}

	select {
	case <-followDone:
	case <-time.After(10 * time.Second):
		t.Fatal("log tail follow timed out")
	}

	// Stop before seeding fixtures so the worker cannot race the queue
	// assertions below.
	stopDuring, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !stopDuring.Stopped {
		t.Fatalf("expected Stop to report stopped, got: %#v", stopDuring)
	}

	scenePath := testsupport.WriteSceneFile(t, testsupport.BaseDir(cfg), "Barn Interior.blend")
	addResp, err := client.QueueAdd(scenePath)
	if err != nil {
		t.Fatalf("QueueAdd failed: %v", err)
	}
	if !addResp.Created {
		t.Fatal("expected QueueAdd to create a job")
	}
	if addResp.Job.Status != string(queue.StatusQueued) {
		t.Fatalf("expected queued job, got %s", addResp.Job.Status)
	}
	if addResp.Job.SceneTitle == "" {
		t.Fatal("expected job to carry a scene title")
	}

	jobB := testsupport.NewScene(t, store, filepath.Join(testsupport.BaseDir(cfg), "b.blend"))
	jobB.Status = queue.StatusFailed
	if err := store.Update(ctx, jobB); err != nil {
		t.Fatalf("Update jobB: %v", err)
	}
	jobC := testsupport.NewScene(t, store, filepath.Join(testsupport.BaseDir(cfg), "c.blend"))
	jobC.Status = queue.StatusRendering
	if err := store.Update(ctx, jobC); err != nil {
		t.Fatalf("Update jobC: %v", err)
	}

	listResp, err := client.QueueList(nil)
	if err != nil {
		t.Fatalf("QueueList failed: %v", err)
	}
	if len(listResp.Jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(listResp.Jobs))
	}

	failedResp, err := client.QueueList([]string{string(queue.StatusFailed)})
	if err != nil {
		t.Fatalf("QueueList failed filter: %v", err)
	}
	if len(failedResp.Jobs) != 1 || failedResp.Jobs[0].ID != jobB.ID {
		t.Fatalf("expected failed job %d", jobB.ID)
	}

	describeResp, err := client.QueueDescribe(jobC.ID)
	if err != nil {
		t.Fatalf("QueueDescribe failed: %v", err)
	}
	if describeResp.Job.ID != jobC.ID || describeResp.Job.Status != string(queue.StatusRendering) {
		t.Fatalf("unexpected describe response: %#v", describeResp.Job)
	}

	cancelResp, err := client.Cancel(addResp.Job.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if !cancelResp.Cancelled {
		t.Fatalf("expected cancel to succeed, got %#v", cancelResp)
	}
	cancelled, err := store.GetByID(ctx, addResp.Job.ID)
	if err != nil {
		t.Fatalf("GetByID cancelled job: %v", err)
	}
	if cancelled.Status != queue.StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if _, err := client.Cancel(addResp.Job.ID); err == nil {
		t.Fatal("expected second cancel of a finished job to fail")
	}

	resetResp, err := client.QueueReset()
	if err != nil {
		t.Fatalf("QueueReset failed: %v", err)
	}
	if resetResp.Updated != 1 {
		t.Fatalf("expected 1 job reset, got %d", resetResp.Updated)
	}
	updatedC, err := store.GetByID(ctx, jobC.ID)
	if err != nil {
		t.Fatalf("GetByID jobC: %v", err)
	}
	if updatedC.Status != queue.StatusQueued {
		t.Fatalf("expected jobC requeued after reset, got %s", updatedC.Status)
	}

	removeResp, err := client.QueueRemove([]int64{addResp.Job.ID})
	if err != nil {
		t.Fatalf("QueueRemove failed: %v", err)
	}
	if removeResp.Removed != 1 {
		t.Fatalf("expected 1 job removed, got %d", removeResp.Removed)
	}

	clearFailedResp, err := client.QueueClearFailed()
	if err != nil {
		t.Fatalf("QueueClearFailed failed: %v", err)
	}
	if clearFailedResp.Removed != 1 {
		t.Fatalf("expected 1 failed job removed, got %d", clearFailedResp.Removed)
	}

	retryResp, err := client.QueueRetry(nil)
	if err != nil {
		t.Fatalf("QueueRetry failed: %v", err)
	}
	if retryResp.Updated != 0 {
		t.Fatalf("expected 0 retried jobs, got %d", retryResp.Updated)
	}

	healthResp, err := client.QueueHealth()
	if err != nil {
		t.Fatalf("QueueHealth failed: %v", err)
	}
	if healthResp.Total != 1 || healthResp.Failed != 0 || healthResp.Queued != 1 {
		t.Fatalf("unexpected health response: %#v", healthResp)
	}

	dbHealth, err := client.DatabaseHealth()
	if err != nil {
		t.Fatalf("DatabaseHealth failed: %v", err)
	}
	if !strings.HasSuffix(dbHealth.DBPath, "queue.db") {
		t.Fatalf("unexpected db path: %s", dbHealth.DBPath)
	}
	if !dbHealth.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp == nil || notifyResp.Message == "" {
		t.Fatalf("expected notification message, got %#v", notifyResp)
	}
	if notifyResp.Sent {
		t.Fatal("expected notification to be skipped without a topic")
	}

	clearResp, err := client.QueueClear()
	if err != nil {
		t.Fatalf("QueueClear failed: %v", err)
	}
	if clearResp.Removed != 1 {
		t.Fatalf("expected 1 job cleared, got %d", clearResp.Removed)
	}

	status2, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status2.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestIPCQueueDescribeRejectsBadIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{
		Prober:   noopStage{name: "prober"},
		Renderer: noopStage{name: "supervisor"},
	})
	d, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	if _, err := client.QueueDescribe(0); err == nil {
		t.Fatal("expected describe of id 0 to fail")
	}
	if _, err := client.QueueDescribe(9999); err == nil {
		t.Fatal("expected describe of missing job to fail")
	}
	if _, err := client.QueueRemove(nil); err == nil {
		t.Fatal("expected remove without ids to fail")
	}
}
