package testsupport

import (
	"context"
	"testing"

	"kiln/internal/config"
	"kiln/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewScene enqueues a scene for tests using the provided store.
func NewScene(t testing.TB, store *queue.Store, scenePath string) *queue.Job {
	t.Helper()

	job, _, err := store.NewScene(context.Background(), scenePath)
	if err != nil {
		t.Fatalf("store.NewScene: %v", err)
	}
	return job
}
