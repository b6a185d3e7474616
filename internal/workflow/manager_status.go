package workflow

import (
	"context"

	"kiln/internal/queue"
	"kiln/internal/stage"
	"kiln/internal/stats"
)

// StatusSummary is a point-in-time view of the workflow for status requests.
type StatusSummary struct {
	Running     bool
	QueueActive bool
	ActiveJobID int64
	LastError   string
	LastJob     *queue.Job
	QueueStats  map[queue.Status]int
	StageHealth map[string]stage.Health
	Session     stats.SessionSnapshot
}

// Status reports worker state, queue counts, stage health, and session
// totals. Queue counts come straight from the store so the summary is
// accurate even while a job is mid-flight.
func (m *Manager) Status(ctx context.Context) (StatusSummary, error) {
	m.mu.RLock()
	summary := StatusSummary{
		Running:     m.running,
		QueueActive: m.queueActive,
		ActiveJobID: m.activeJobID,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastJob != nil {
		last := *m.lastJob
		summary.LastJob = &last
	}
	stages := m.stages
	m.mu.RUnlock()

	summary.Session = m.session.Snapshot()
	summary.StageHealth = make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		health := stg.handler.HealthCheck(ctx)
		if health.Name == "" {
			health.Name = stg.name
		}
		summary.StageHealth[stg.name] = health
	}

	counts, err := m.store.Stats(ctx)
	if err != nil {
		return summary, err
	}
	summary.QueueStats = counts
	return summary, nil
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	snapshot := *job
	m.mu.Lock()
	m.lastJob = &snapshot
	m.mu.Unlock()
}
