package workflow

import (
	"context"
	"errors"
	"time"

	"kiln/internal/logging"
)

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	logger := m.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStale(ctx); err != nil {
			logger.Warn(
				"reclaim stale processing failed; stuck jobs may remain",
				logging.Error(err),
			)
		}

		m.mu.RLock()
		statusOrder := m.statusOrder
		m.mu.RUnlock()

		job, err := m.store.NextForStatuses(ctx, statusOrder...)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			logger.Error("failed to fetch next queue job", logging.Error(err))
			m.waitForJobOrShutdown(ctx)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}

		if err := m.processJob(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}
