package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"kiln/internal/logging"
	"kiln/internal/queue"
	"kiln/internal/testsupport"
	"kiln/internal/workflow"
)

func TestHeartbeatMonitorStampsActiveJob(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewScene(t, store, "/library/beating.blend")

	monitor := workflow.NewHeartbeatMonitor(store, logging.NewNop(), 10*time.Millisecond, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go monitor.StartLoop(ctx, &wg, job.ID)

	waitFor(t, "heartbeat stamp", func() bool {
		updated, err := store.GetByID(context.Background(), job.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		return updated.LastHeartbeat != nil
	})

	cancel()
	wg.Wait()
}

func TestHeartbeatMonitorReclaimsOnlyStaleJobs(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stale := testsupport.NewScene(t, store, "/library/stale.blend")
	fresh := testsupport.NewScene(t, store, "/library/fresh.blend")
	waiting := testsupport.NewScene(t, store, "/library/waiting.blend")

	old := time.Now().UTC().Add(-10 * time.Minute)
	now := time.Now().UTC()

	stale.Status = queue.StatusRendering
	stale.LastHeartbeat = &old
	fresh.Status = queue.StatusRendering
	fresh.LastHeartbeat = &now
	// A job between stages has no heartbeat and must never be reclaimed.
	waiting.Status = queue.StatusRendering
	waiting.LastHeartbeat = nil

	for _, job := range []*queue.Job{stale, fresh, waiting} {
		if err := store.Update(ctx, job); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	monitor := workflow.NewHeartbeatMonitor(store, logging.NewNop(), time.Second, 2*time.Minute)
	if err := monitor.ReclaimStale(ctx); err != nil {
		t.Fatalf("ReclaimStale failed: %v", err)
	}

	assertStatus := func(id int64, want queue.Status) {
		t.Helper()
		job, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if job.Status != want {
			t.Fatalf("job %d: expected status %s, got %s", id, want, job.Status)
		}
	}
	assertStatus(stale.ID, queue.StatusQueued)
	assertStatus(fresh.ID, queue.StatusRendering)
	assertStatus(waiting.ID, queue.StatusRendering)

	reclaimed, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if reclaimed.LastHeartbeat != nil {
		t.Fatalf("expected reclaimed job heartbeat cleared, got %v", reclaimed.LastHeartbeat)
	}
}
