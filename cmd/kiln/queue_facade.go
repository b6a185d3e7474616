package main

import (
	"context"
	"strings"

	"kiln/internal/ipc"
	"kiln/internal/queue"
)

// queueAPI abstracts queue operations so each subcommand works identically
// whether the daemon is reachable (IPC) or not (direct store access).
type queueAPI interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]ipc.JobView, error)
	Describe(ctx context.Context, id int64) (*ipc.JobView, error)
	ClearAll(ctx context.Context) (int64, error)
	ClearCompleted(ctx context.Context) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
	Remove(ctx context.Context, ids []int64) (int64, error)
	ResetStuck(ctx context.Context) (int64, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
	Health(ctx context.Context) (queue.HealthSummary, error)
}

func newQueueAPI(client *ipc.Client, store *queue.Store) queueAPI {
	if client != nil {
		return &queueIPCAdapter{client: client}
	}
	return &queueStoreAdapter{store: store}
}

// --- IPC adapter ---

type queueIPCAdapter struct {
	client *ipc.Client
}

func (a *queueIPCAdapter) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.QueueStats, nil
}

func (a *queueIPCAdapter) List(_ context.Context, statuses []string) ([]ipc.JobView, error) {
	resp, err := a.client.QueueList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (a *queueIPCAdapter) Describe(_ context.Context, id int64) (*ipc.JobView, error) {
	resp, err := a.client.QueueDescribe(id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, nil
		}
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	job := resp.Job
	return &job, nil
}

func (a *queueIPCAdapter) ClearAll(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClear()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *queueIPCAdapter) ClearCompleted(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearCompleted()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *queueIPCAdapter) ClearFailed(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearFailed()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *queueIPCAdapter) Remove(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.QueueRemove(ids)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *queueIPCAdapter) ResetStuck(_ context.Context) (int64, error) {
	resp, err := a.client.QueueReset()
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *queueIPCAdapter) Retry(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.QueueRetry(ids)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *queueIPCAdapter) Health(_ context.Context) (queue.HealthSummary, error) {
	resp, err := a.client.QueueHealth()
	if err != nil {
		return queue.HealthSummary{}, err
	}
	return queue.HealthSummary{
		Total:      resp.Total,
		Queued:     resp.Queued,
		Processing: resp.Processing,
		Failed:     resp.Failed,
		Completed:  resp.Completed,
	}, nil
}

// --- Store adapter ---

type queueStoreAdapter struct {
	store *queue.Store
}

func (a *queueStoreAdapter) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := a.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out, nil
}

func (a *queueStoreAdapter) List(ctx context.Context, statuses []string) ([]ipc.JobView, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(s); ok {
			filters = append(filters, parsed)
		}
	}
	jobs, err := a.store.List(ctx, filters...)
	if err != nil {
		return nil, err
	}
	return ipc.FromJobs(jobs), nil
}

func (a *queueStoreAdapter) Describe(ctx context.Context, id int64) (*ipc.JobView, error) {
	job, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}
	view := ipc.FromJob(job)
	return &view, nil
}

func (a *queueStoreAdapter) ClearAll(ctx context.Context) (int64, error) {
	return a.store.Clear(ctx)
}

func (a *queueStoreAdapter) ClearCompleted(ctx context.Context) (int64, error) {
	return a.store.ClearCompleted(ctx)
}

func (a *queueStoreAdapter) ClearFailed(ctx context.Context) (int64, error) {
	return a.store.ClearFailed(ctx)
}

func (a *queueStoreAdapter) Remove(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	for _, id := range ids {
		removed, err := a.store.Remove(ctx, id)
		if err != nil {
			return count, err
		}
		if removed {
			count++
		}
	}
	return count, nil
}

func (a *queueStoreAdapter) ResetStuck(ctx context.Context) (int64, error) {
	return a.store.ResetStuckProcessing(ctx)
}

func (a *queueStoreAdapter) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.store.RetryFailed(ctx, ids...)
}

func (a *queueStoreAdapter) Health(ctx context.Context) (queue.HealthSummary, error) {
	return a.store.Health(ctx)
}
