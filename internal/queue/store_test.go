package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"kiln/internal/queue"
	"kiln/internal/testsupport"
)

func TestNewSceneAndGetByID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job, created, err := store.NewScene(ctx, "/scenes/barn_exterior.blend")
	if err != nil {
		t.Fatalf("NewScene returned error: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for fresh scene")
	}
	if job.ID == 0 {
		t.Fatal("expected job id to be assigned")
	}
	if job.Status != queue.StatusQueued {
		t.Fatalf("status: got %s want queued", job.Status)
	}
	if job.SceneTitle != "Barn Exterior" {
		t.Fatalf("scene title: got %q", job.SceneTitle)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if fetched == nil || fetched.ScenePath != job.ScenePath {
		t.Fatalf("unexpected fetch result: %+v", fetched)
	}

	missing, err := store.GetByID(ctx, job.ID+100)
	if err != nil {
		t.Fatalf("GetByID for absent id returned error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent id, got %+v", missing)
	}
}

func TestNewSceneDeduplicatesLiveJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, created, err := store.NewScene(ctx, "/scenes/a.blend")
	if err != nil || !created {
		t.Fatalf("first NewScene: created=%v err=%v", created, err)
	}

	second, created, err := store.NewScene(ctx, "/scenes/a.blend")
	if err != nil {
		t.Fatalf("second NewScene returned error: %v", err)
	}
	if created {
		t.Fatal("expected duplicate submission to coalesce")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same job, got %d and %d", first.ID, second.ID)
	}

	// Dedup also applies while the job is processing.
	first.Status = queue.StatusRendering
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("update to rendering: %v", err)
	}
	_, created, err = store.NewScene(ctx, "/scenes/a.blend")
	if err != nil {
		t.Fatalf("NewScene during processing: %v", err)
	}
	if created {
		t.Fatal("expected dedup while processing")
	}

	// Terminal jobs free the path for a fresh submission.
	first.Status = queue.StatusCompleted
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("update to completed: %v", err)
	}
	third, created, err := store.NewScene(ctx, "/scenes/a.blend")
	if err != nil {
		t.Fatalf("NewScene after completion: %v", err)
	}
	if !created {
		t.Fatal("expected fresh job after terminal state")
	}
	if third.ID == first.ID {
		t.Fatal("expected a new row for re-queued scene")
	}
}

func TestUpdatePersistsRenderFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.NewScene(t, store, "/scenes/b.blend")
	heartbeat := time.Now().UTC().Truncate(time.Millisecond)

	job.Status = queue.StatusRendering
	job.StartFrame = 1
	job.EndFrame = 250
	job.ResumeFrame = 42
	job.MissingFrames = "42,77,101"
	job.OutputDir = "/renders/b_output"
	job.ImageFormat = "png"
	job.FilenamePrefix = "frame_"
	job.CurrentFrame = 41
	job.CrashCount = 2
	job.FramesRendered = 40
	job.RenderSeconds = 1234.5
	job.RenderLogPath = "/logs/render/b.log"
	job.SetProgress("Rendering", "frame 41", 16.4)
	job.LastHeartbeat = &heartbeat

	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if fetched.Status != queue.StatusRendering {
		t.Fatalf("status: got %s", fetched.Status)
	}
	if fetched.StartFrame != 1 || fetched.EndFrame != 250 || fetched.ResumeFrame != 42 {
		t.Fatalf("frame fields: %+v", fetched)
	}
	if fetched.MissingFrames != "42,77,101" {
		t.Fatalf("missing frames: got %q", fetched.MissingFrames)
	}
	if fetched.OutputDir != "/renders/b_output" || fetched.ImageFormat != "png" || fetched.FilenamePrefix != "frame_" {
		t.Fatalf("output fields: %+v", fetched)
	}
	if fetched.CurrentFrame != 41 || fetched.CrashCount != 2 || fetched.FramesRendered != 40 {
		t.Fatalf("supervision fields: %+v", fetched)
	}
	if fetched.RenderSeconds != 1234.5 {
		t.Fatalf("render seconds: got %f", fetched.RenderSeconds)
	}
	if fetched.ProgressStage != "Rendering" || fetched.ProgressPercent != 16.4 {
		t.Fatalf("progress fields: %+v", fetched)
	}
	if fetched.LastHeartbeat == nil || !fetched.LastHeartbeat.Equal(heartbeat) {
		t.Fatalf("heartbeat: got %v want %v", fetched.LastHeartbeat, heartbeat)
	}
}

func TestNextForStatusesReturnsOldest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewScene(t, store, "/scenes/one.blend")
	testsupport.NewScene(t, store, "/scenes/two.blend")
	third := testsupport.NewScene(t, store, "/scenes/three.blend")

	next, err := store.NextForStatuses(ctx, queue.StatusQueued)
	if err != nil {
		t.Fatalf("NextForStatuses returned error: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest job %d, got %+v", first.ID, next)
	}

	first.Status = queue.StatusCompleted
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("update first: %v", err)
	}
	third.Status = queue.StatusFailed
	if err := store.Update(ctx, third); err != nil {
		t.Fatalf("update third: %v", err)
	}

	next, err = store.NextForStatuses(ctx, queue.StatusQueued)
	if err != nil {
		t.Fatalf("NextForStatuses returned error: %v", err)
	}
	if next == nil || next.ScenePath != "/scenes/two.blend" {
		t.Fatalf("expected remaining queued scene, got %+v", next)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusProbing)
	if err != nil {
		t.Fatalf("NextForStatuses returned error: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for empty status, got %+v", none)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	queued := testsupport.NewScene(t, store, "/scenes/q.blend")
	failed := testsupport.NewScene(t, store, "/scenes/f.blend")
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("update failed job: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}

	onlyQueued, err := store.List(ctx, queue.StatusQueued)
	if err != nil {
		t.Fatalf("List(queued) returned error: %v", err)
	}
	if len(onlyQueued) != 1 || onlyQueued[0].ID != queued.ID {
		t.Fatalf("unexpected queued list: %+v", onlyQueued)
	}
}

func TestRemoveGuardsProcessingJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.NewScene(t, store, "/scenes/busy.blend")
	job.Status = queue.StatusRendering
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("update to rendering: %v", err)
	}

	if _, err := store.Remove(ctx, job.ID); !errors.Is(err, queue.ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}

	job.Status = queue.StatusCancelled
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("update to cancelled: %v", err)
	}
	removed, err := store.Remove(ctx, job.ID)
	if err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if !removed {
		t.Fatal("expected job to be removed")
	}

	removed, err = store.Remove(ctx, job.ID)
	if err != nil {
		t.Fatalf("Remove of absent job returned error: %v", err)
	}
	if removed {
		t.Fatal("expected removed=false for absent job")
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	probing := testsupport.NewScene(t, store, "/scenes/p.blend")
	probing.Status = queue.StatusProbing
	if err := store.Update(ctx, probing); err != nil {
		t.Fatalf("update probing: %v", err)
	}
	rendering := testsupport.NewScene(t, store, "/scenes/r.blend")
	rendering.Status = queue.StatusRendering
	if err := store.Update(ctx, rendering); err != nil {
		t.Fatalf("update rendering: %v", err)
	}
	done := testsupport.NewScene(t, store, "/scenes/d.blend")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("update done: %v", err)
	}

	affected, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing returned error: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 jobs reset, got %d", affected)
	}

	for _, id := range []int64{probing.ID, rendering.ID} {
		job, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if job.Status != queue.StatusQueued {
			t.Fatalf("job %d status: got %s want queued", id, job.Status)
		}
	}
	unchanged, err := store.GetByID(ctx, done.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if unchanged.Status != queue.StatusCompleted {
		t.Fatalf("completed job should be untouched, got %s", unchanged.Status)
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stale := testsupport.NewScene(t, store, "/scenes/stale.blend")
	stale.Status = queue.StatusRendering
	old := time.Now().UTC().Add(-time.Hour)
	stale.LastHeartbeat = &old
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("update stale: %v", err)
	}

	fresh := testsupport.NewScene(t, store, "/scenes/fresh.blend")
	fresh.Status = queue.StatusRendering
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("update fresh: %v", err)
	}
	if err := store.UpdateHeartbeat(ctx, fresh.ID); err != nil {
		t.Fatalf("UpdateHeartbeat returned error: %v", err)
	}

	reclaimed, err := store.ReclaimStaleProcessing(ctx, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing returned error: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed job, got %d", reclaimed)
	}

	staleAfter, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if staleAfter.Status != queue.StatusQueued {
		t.Fatalf("stale job status: got %s want queued", staleAfter.Status)
	}
	freshAfter, err := store.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if freshAfter.Status != queue.StatusRendering {
		t.Fatalf("fresh job status: got %s want rendering", freshAfter.Status)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewScene(t, store, "/scenes/f1.blend")
	first.SetFailed("launch failed")
	first.CrashCount = 3
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("update first: %v", err)
	}
	second := testsupport.NewScene(t, store, "/scenes/f2.blend")
	second.SetFailed("probe failed")
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("update second: %v", err)
	}

	retried, err := store.RetryFailed(ctx, first.ID)
	if err != nil {
		t.Fatalf("RetryFailed returned error: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected 1 retried, got %d", retried)
	}
	firstAfter, err := store.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if firstAfter.Status != queue.StatusQueued {
		t.Fatalf("first status: got %s want queued", firstAfter.Status)
	}
	if firstAfter.ErrorMessage != "" || firstAfter.CrashCount != 0 {
		t.Fatalf("expected error and crash count cleared: %+v", firstAfter)
	}

	retried, err = store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed all returned error: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected remaining failed job retried, got %d", retried)
	}
}

func TestStatsHealthAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	queued := testsupport.NewScene(t, store, "/scenes/s1.blend")
	_ = queued

	done := testsupport.NewScene(t, store, "/scenes/s2.blend")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("update done: %v", err)
	}
	skipped := testsupport.NewScene(t, store, "/scenes/s3.blend")
	skipped.Status = queue.StatusAlreadyComplete
	if err := store.Update(ctx, skipped); err != nil {
		t.Fatalf("update skipped: %v", err)
	}
	failed := testsupport.NewScene(t, store, "/scenes/s4.blend")
	failed.SetFailed("no renderer")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats[queue.StatusQueued] != 1 || stats[queue.StatusCompleted] != 1 || stats[queue.StatusAlreadyComplete] != 1 || stats[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	if health.Total != 4 || health.Queued != 1 || health.Completed != 2 || health.Failed != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}

	cleared, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted returned error: %v", err)
	}
	if cleared != 2 {
		t.Fatalf("expected 2 completed jobs cleared, got %d", cleared)
	}

	cleared, err = store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed returned error: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 failed job cleared, got %d", cleared)
	}

	cleared, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 remaining job cleared, got %d", cleared)
	}
}

func TestCheckHealthReportsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth returned error: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health: %+v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("expected no missing columns, got %v", health.MissingColumns)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
}
