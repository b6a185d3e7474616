package workflow

import (
	"context"
	"time"

	"kiln/internal/logging"
	"kiln/internal/notifications"
	"kiln/internal/queue"
)

// onJobStarted flips the queue-active flag when the first job of a batch
// begins. Session totals restart here so the completion summary covers only
// this batch.
func (m *Manager) onJobStarted(ctx context.Context, job *queue.Job) {
	now := time.Now()
	m.mu.Lock()
	if m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = true
	m.queueStart = now
	m.queueFailed = 0
	m.mu.Unlock()

	m.session.Reset(now)

	count := 1
	if stats, err := m.store.Stats(ctx); err == nil {
		if live := liveCount(stats); live > 0 {
			count = live
		}
	} else {
		m.logger.Warn("failed to read queue stats for batch start", logging.Error(err))
	}

	m.logger.Info("queue batch started",
		logging.Int("count", count),
		logging.String("scene", job.SceneTitle),
	)
	m.publish(ctx, notifications.EventQueueStarted, notifications.Payload{"count": count})
}

// checkQueueCompletion emits the batch summary once no live jobs remain.
// Runs after every terminal transition; only the one that drains the queue
// flips the flag and publishes.
func (m *Manager) checkQueueCompletion(ctx context.Context) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats for completion check", logging.Error(err))
		return
	}
	if liveCount(stats) > 0 {
		return
	}

	m.mu.Lock()
	if !m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = false
	start := m.queueStart
	failed := m.queueFailed
	m.mu.Unlock()

	snap := m.session.Snapshot()
	duration := time.Since(start)

	m.logger.Info("queue batch completed",
		logging.Int("scenes", snap.ScenesCompleted),
		logging.Int("frames", snap.FramesCompleted),
		logging.Int("failed", failed),
		logging.Duration("duration", duration),
	)
	m.publish(ctx, notifications.EventQueueCompleted, notifications.Payload{
		"scenes":   snap.ScenesCompleted,
		"frames":   snap.FramesCompleted,
		"failed":   failed,
		"duration": duration,
	})
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		m.logger.Warn("failed to publish notification",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

func liveCount(stats map[queue.Status]int) int {
	return stats[queue.StatusQueued] + stats[queue.StatusProbing] + stats[queue.StatusRendering]
}
