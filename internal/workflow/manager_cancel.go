package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"kiln/internal/logging"
	"kiln/internal/queue"
	"kiln/internal/services"
)

// Cancel stops the job with the given ID. The active job's renderer is
// killed through its context and the worker marks it cancelled; a job that
// has not started yet is cancelled in place.
func (m *Manager) Cancel(ctx context.Context, id int64) error {
	m.mu.Lock()
	if m.activeJobID == id && m.cancelActive != nil {
		m.cancelRequested = true
		cancel := m.cancelActive
		m.mu.Unlock()
		cancel()
		m.logger.Info("cancel requested for active job", logging.Int64(logging.FieldJobID, id))
		return nil
	}
	m.mu.Unlock()

	job, err := m.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return services.Wrap(services.ErrNotFound, "workflow", "cancel job",
			fmt.Sprintf("No job with ID %d", id), nil)
	}
	if queue.IsTerminalStatus(job.Status) {
		return services.Wrap(services.ErrValidation, "workflow", "cancel job",
			fmt.Sprintf("Job %d already finished (%s)", id, job.Status), nil)
	}

	job.Status = queue.StatusCancelled
	job.SetProgress("Cancelled", "Cancelled before start", 0)
	job.ErrorMessage = ""
	job.LastHeartbeat = nil
	if err := m.store.Update(ctx, job); err != nil {
		return err
	}
	m.logger.Info("cancelled queued job",
		logging.Int64(logging.FieldJobID, id),
		logging.String("scene", job.SceneTitle),
	)
	m.checkQueueCompletion(ctx)
	return nil
}

// finishCancelledJob runs on the worker after a targeted cancel killed the
// renderer mid-flight.
func (m *Manager) finishCancelledJob(ctx context.Context, logger *slog.Logger, job *queue.Job) {
	job.Status = queue.StatusCancelled
	job.SetProgress("Cancelled", "Cancelled by user", 0)
	job.ErrorMessage = ""
	job.LastHeartbeat = nil
	if err := m.store.Update(ctx, job); err != nil {
		logger.Error("failed to persist cancelled job", logging.Error(err))
	}
	logger.Info("job cancelled", logging.String("scene", job.SceneTitle))
	m.setLastJob(job)
	m.checkQueueCompletion(ctx)
}

func (m *Manager) registerActive(id int64, cancel context.CancelFunc) {
	m.mu.Lock()
	m.activeJobID = id
	m.cancelActive = cancel
	m.cancelRequested = false
	m.mu.Unlock()
}

func (m *Manager) clearActive(id int64) {
	m.mu.Lock()
	if m.activeJobID == id {
		m.activeJobID = 0
		m.cancelActive = nil
		m.cancelRequested = false
	}
	m.mu.Unlock()
}

// consumeCancelRequest reports whether a targeted cancel was issued for this
// job and clears the flag, so shutdown cancellation is never misread as a
// user cancel.
func (m *Manager) consumeCancelRequest(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeJobID != id || !m.cancelRequested {
		return false
	}
	m.cancelRequested = false
	return true
}
