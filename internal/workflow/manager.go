package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"kiln/internal/config"
	"kiln/internal/logging"
	"kiln/internal/notifications"
	"kiln/internal/queue"
	"kiln/internal/stage"
	"kiln/internal/stats"
)

// Manager coordinates queue processing using the registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	notifier     notifications.Service

	heartbeat *HeartbeatMonitor
	session   *stats.Session

	stages       []pipelineStage
	statusOrder  []queue.Status
	stageByStart map[queue.Status]pipelineStage

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job

	activeJobID     int64
	cancelActive    context.CancelFunc
	cancelRequested bool

	queueActive bool
	queueStart  time.Time
	queueFailed int
}

// StageSet bundles the concrete stage handlers the manager orchestrates.
type StageSet struct {
	Prober   stage.Handler
	Renderer stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// NewManager constructs a workflow manager with default dependencies.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier
// (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		session: stats.NewSession(time.Now()),
	}
}

// ConfigureStages registers the concrete stage handlers the workflow will
// run. The prober hands its job straight to the renderer: its done status is
// the renderer's start status.
func (m *Manager) ConfigureStages(set StageSet) {
	stages := make([]pipelineStage, 0, 2)
	if set.Prober != nil {
		stages = append(stages, pipelineStage{
			name:             "prober",
			handler:          set.Prober,
			startStatus:      queue.StatusQueued,
			processingStatus: queue.StatusProbing,
			doneStatus:       queue.StatusRendering,
		})
	}
	if set.Renderer != nil {
		stages = append(stages, pipelineStage{
			name:             "supervisor",
			handler:          set.Renderer,
			startStatus:      queue.StatusRendering,
			processingStatus: queue.StatusRendering,
			doneStatus:       queue.StatusCompleted,
		})
	}

	stageByStart := make(map[queue.Status]pipelineStage, len(stages))
	statusOrder := make([]queue.Status, 0, len(stages))
	for _, stg := range stages {
		stageByStart[stg.startStatus] = stg
		statusOrder = append(statusOrder, stg.startStatus)
	}

	m.mu.Lock()
	m.stages = stages
	m.statusOrder = statusOrder
	m.stageByStart = stageByStart
	m.mu.Unlock()
}

// Start begins background processing. Jobs stuck in a processing status from
// a previous daemon run are reset to queued first so they re-enter the
// pipeline from the probe.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.statusOrder) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckProcessing(runCtx); err != nil {
		m.logger.Warn("failed to reset interrupted jobs", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("reset interrupted jobs to queued", logging.Int64("count", reset))
	}

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for the worker to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}
