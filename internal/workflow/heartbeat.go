package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"kiln/internal/logging"
	"kiln/internal/queue"
)

// HeartbeatMonitor stamps the active job at a fixed interval and requeues
// jobs whose heartbeat went stale, which happens when a previous daemon
// died while supervising a render.
type HeartbeatMonitor struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HeartbeatMonitor{
		store:    store,
		logger:   logger.With(logging.String(logging.FieldComponent, "heartbeat")),
		interval: interval,
		timeout:  timeout,
	}
}

// ReclaimStale requeues processing jobs whose heartbeat is older than the
// timeout. Runs between jobs on the worker goroutine, so it never races the
// job it would reclaim.
func (h *HeartbeatMonitor) ReclaimStale(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-h.timeout)
	reclaimed, err := h.store.ReclaimStaleProcessing(ctx, cutoff)
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		h.logger.Info("requeued jobs with stale heartbeats",
			logging.Int64("count", reclaimed),
			logging.Duration("timeout", h.timeout),
		)
	}
	return nil
}

// StartLoop stamps the job's heartbeat until ctx is cancelled. Runs on its
// own goroutine; the caller waits on wg before moving the job out of its
// processing status.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, jobID int64) {
	defer wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.store.UpdateHeartbeat(ctx, jobID); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				h.logger.Warn("failed to update job heartbeat",
					logging.Int64(logging.FieldJobID, jobID),
					logging.Error(err),
				)
			}
		}
	}
}
