package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kiln/internal/config"
	"kiln/internal/logging"
	"kiln/internal/notifications"
	"kiln/internal/queue"
	"kiln/internal/services"
)

// AddScene validates and enqueues a scene file. Submitting a scene that
// already has a live job returns the existing job with created=false.
func (d *Daemon) AddScene(ctx context.Context, scenePath string) (*queue.Job, bool, error) {
	if d.store == nil {
		return nil, false, errors.New("queue store unavailable")
	}
	trimmed := strings.TrimSpace(scenePath)
	if trimmed == "" {
		return nil, false, services.Wrap(services.ErrValidation, "daemon", "add scene",
			"Scene path is required", nil)
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, false, fmt.Errorf("resolve scene path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, false, services.Wrap(services.ErrValidation, "daemon", "add scene",
			fmt.Sprintf("Scene file not found: %s", absPath), err)
	}
	if info.IsDir() {
		return nil, false, services.Wrap(services.ErrValidation, "daemon", "add scene",
			fmt.Sprintf("Scene path is a directory: %s", absPath), nil)
	}
	if ext := strings.ToLower(filepath.Ext(info.Name())); ext != ".blend" {
		return nil, false, services.Wrap(services.ErrValidation, "daemon", "add scene",
			fmt.Sprintf("Unsupported file extension %q; only .blend scenes can be queued", ext), nil)
	}
	if err := d.checkRenderer(); err != nil {
		return nil, false, err
	}

	job, created, err := d.store.NewScene(ctx, absPath)
	if err != nil {
		return nil, false, fmt.Errorf("enqueue scene: %w", err)
	}
	if created {
		d.logger.Info("scene queued",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String("scene", job.SceneTitle),
			logging.String("path", absPath),
		)
	} else {
		d.logger.Debug("scene already queued",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String("path", absPath),
		)
	}
	return job, created, nil
}

// checkRenderer refuses submissions while the renderer path is unset or
// invalid, so nothing enters the queue that probing is guaranteed to fail.
func (d *Daemon) checkRenderer() error {
	if d.cfg == nil {
		return errors.New("configuration unavailable")
	}
	settings, err := config.LoadBlender(d.cfg.Paths.BlenderConfig)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "add scene",
			"Renderer settings file is unreadable; fix or remove it", err)
	}
	if err := settings.Validate(); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "add scene",
			"Renderer path is unset or invalid; run 'kiln blender set-path <path>'", err)
	}
	return nil
}

func (d *Daemon) enqueueWatched(ctx context.Context, path string) {
	if _, _, err := d.AddScene(ctx, path); err != nil {
		d.logger.Warn("failed to enqueue watched scene",
			logging.String("path", path),
			logging.Error(err),
		)
	}
}

// ListQueue returns jobs filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Job, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// GetJob fetches a single job by identifier.
func (d *Daemon) GetJob(ctx context.Context, id int64) (*queue.Job, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	return d.store.GetByID(ctx, id)
}

// CancelJob stops the job with the given ID, killing its renderer when it is
// the one being processed.
func (d *Daemon) CancelJob(ctx context.Context, id int64) error {
	if d.workflow == nil {
		return errors.New("workflow unavailable")
	}
	return d.workflow.Cancel(ctx, id)
}

// RemoveJob deletes a job from the queue. The active job must be cancelled
// first.
func (d *Daemon) RemoveJob(ctx context.Context, id int64) (bool, error) {
	if d.store == nil {
		return false, errors.New("queue store unavailable")
	}
	return d.store.Remove(ctx, id)
}

// ClearQueue removes all jobs.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.Clear(ctx)
}

// ClearCompleted removes completed and already-complete jobs.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes failed jobs.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearFailed(ctx)
}

// ResetStuck transitions in-flight jobs back to queued.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ResetStuckProcessing(ctx)
}

// RetryFailed resets failed jobs (optionally a subset) back to queued.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.RetryFailed(ctx, ids...)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	if d.store == nil {
		return queue.HealthSummary{}, errors.New("queue store unavailable")
	}
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	if d.store == nil {
		return queue.DatabaseHealth{}, errors.New("queue store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestNotification sends a test push through the configured ntfy topic.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.Test(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
