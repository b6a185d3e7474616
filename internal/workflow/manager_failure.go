package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kiln/internal/logging"
	"kiln/internal/notifications"
	"kiln/internal/queue"
	"kiln/internal/services"
)

// handleStageFailure marks the job failed with a short operator-facing
// message, records the failure for the session summary, and moves on. The
// worker picks the next queued job; a failed scene never blocks the queue.
func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, stg pipelineStage, job *queue.Job, stageErr error) {
	message := services.UserMessage(stageErr)
	if message == "" {
		message = "Stage failed for an unknown reason"
	}
	job.SetFailed(message)

	logger.Error("stage failed",
		logging.String("scene", job.SceneTitle),
		logging.String("error_kind", services.Kind(stageErr)),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon stopping; stage failure not persisted")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.mu.Lock()
	m.queueFailed++
	m.mu.Unlock()

	m.setLastError(stageErr)
	m.setLastJob(job)
	m.notifyStageError(ctx, stg, job, stageErr)
	m.checkQueueCompletion(ctx)
}

func (m *Manager) notifyStageError(ctx context.Context, stg pipelineStage, job *queue.Job, stageErr error) {
	if m.notifier == nil {
		return
	}
	payload := notifications.Payload{
		"context": fmt.Sprintf("%s (scene %q)", stg.name, job.SceneTitle),
		"error":   services.UserMessage(stageErr),
	}
	if err := m.notifier.Publish(ctx, notifications.EventError, payload); err != nil {
		m.logger.Warn("failed to publish error notification", logging.Error(err))
	}
}
