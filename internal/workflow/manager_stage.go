package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kiln/internal/logging"
	"kiln/internal/queue"
	"kiln/internal/services"
)

func (m *Manager) processJob(ctx context.Context, job *queue.Job) error {
	m.mu.RLock()
	stg, ok := m.stageByStart[job.Status]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("no stage registered for job status",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String("status", string(job.Status)),
		)
		m.waitForJobOrShutdown(ctx)
		return nil
	}

	jobCtx, cancelJob := context.WithCancel(ctx)
	defer cancelJob()
	m.registerActive(job.ID, cancelJob)
	defer m.clearActive(job.ID)

	stageCtx := services.WithJobID(jobCtx, job.ID)
	stageCtx = services.WithStage(stageCtx, stg.name)
	stageCtx = services.WithRequestID(stageCtx, uuid.NewString())
	logger := logging.WithContext(stageCtx, m.logger)

	if err := m.transitionToProcessing(stageCtx, logger, stg, job); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		m.setLastError(err)
		logger.Error("failed to mark job processing", logging.Error(err))
		m.waitForJobOrShutdown(ctx)
		return nil
	}

	return m.executeStage(ctx, stageCtx, logger, stg, job)
}

// transitionToProcessing moves the job into the stage's processing status and
// stamps the first heartbeat so a dead daemon's successor can reclaim it.
func (m *Manager) transitionToProcessing(ctx context.Context, logger *slog.Logger, stg pipelineStage, job *queue.Job) error {
	now := time.Now().UTC()
	job.Status = stg.processingStatus
	if strings.TrimSpace(job.ProgressStage) == "" {
		job.ProgressStage = deriveStageLabel(stg.processingStatus)
	}
	if strings.TrimSpace(job.ProgressMessage) == "" {
		job.ProgressMessage = job.ProgressStage + " started"
	}
	job.ErrorMessage = ""
	job.LastHeartbeat = &now

	if err := m.store.Update(ctx, job); err != nil {
		return err
	}
	logger.Info("stage started", logging.String("scene", job.SceneTitle))
	m.onJobStarted(ctx, job)
	return nil
}

// executeStage runs Prepare then Execute under the heartbeat loop and
// persists the outcome. parentCtx distinguishes daemon shutdown from a
// targeted cancel: both surface as context.Canceled from the handler.
func (m *Manager) executeStage(parentCtx, stageCtx context.Context, logger *slog.Logger, stg pipelineStage, job *queue.Job) error {
	if err := stg.handler.Prepare(stageCtx, job); err != nil {
		m.handleStageFailure(stageCtx, logger, stg, job, err)
		return nil
	}
	if err := m.store.Update(stageCtx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		m.handleStageFailure(stageCtx, logger, stg, job, err)
		return nil
	}

	execErr := m.executeWithHeartbeat(stageCtx, stg, job)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			if parentCtx.Err() == nil && m.consumeCancelRequest(job.ID) {
				m.finishCancelledJob(parentCtx, logger, job)
				return nil
			}
			logger.Debug("stage interrupted by shutdown; job will be requeued on next start")
			return execErr
		}
		m.handleStageFailure(stageCtx, logger, stg, job, execErr)
		return nil
	}

	// Handlers may park the job in a terminal status themselves, as the
	// prober does for scenes whose frames are already on disk.
	if job.Status == stg.processingStatus || job.Status == "" {
		job.Status = stg.doneStatus
	}
	job.LastHeartbeat = nil
	if job.Status == queue.StatusCompleted && job.ProgressPercent < 100 {
		job.ProgressPercent = 100
	}

	if err := m.store.Update(stageCtx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		m.setLastError(err)
		logger.Error("failed to persist stage result", logging.Error(err))
		m.waitForJobOrShutdown(parentCtx)
		return nil
	}

	logger.Info("stage completed",
		logging.String("scene", job.SceneTitle),
		logging.String("status", string(job.Status)),
	)
	m.setLastJob(job)

	if queue.IsTerminalStatus(job.Status) {
		m.recordJobOutcome(job)
		m.checkQueueCompletion(stageCtx)
	}
	return nil
}

// executeWithHeartbeat runs the handler while a companion goroutine stamps
// the job's heartbeat. The loop is stopped and drained before the job leaves
// its processing status, so no stamp can land after the transition.
func (m *Manager) executeWithHeartbeat(ctx context.Context, stg pipelineStage, job *queue.Job) error {
	hbCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &wg, job.ID)

	err := stg.handler.Execute(ctx, job)
	cancel()
	wg.Wait()
	return err
}

// recordJobOutcome folds a finished job into the session totals. Only scenes
// that actually rendered count; already-complete, cancelled, and failed jobs
// leave the totals alone.
func (m *Manager) recordJobOutcome(job *queue.Job) {
	if job.Status == queue.StatusCompleted {
		m.session.RecordCompleted(job.FramesRendered, job.RenderSeconds)
	}
}

func deriveStageLabel(status queue.Status) string {
	switch status {
	case queue.StatusProbing:
		return "Probing"
	case queue.StatusRendering:
		return "Rendering"
	default:
		return "Processing"
	}
}
