package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"

	"kiln/internal/logging"
)

// settleDelay is how long a dropped file must stop growing before it is
// enqueued. Scene files are often copied into the watch folder over the
// network, so the first Create event fires long before the file is whole.
var settleDelay = 2 * time.Second

var settleSweepInterval = 500 * time.Millisecond

type pendingScene struct {
	size      int64
	lastEvent time.Time
}

// watchFolder enqueues .blend files dropped into a directory. Files already
// present when the watcher starts are picked up by the initial scan.
type watchFolder struct {
	dir     string
	logger  *slog.Logger
	enqueue func(ctx context.Context, path string)

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newWatchFolder(dir string, logger *slog.Logger, enqueue func(ctx context.Context, path string)) *watchFolder {
	return &watchFolder{
		dir:     dir,
		logger:  logger.With(logging.String(logging.FieldComponent, "watch-folder")),
		enqueue: enqueue,
	}
}

func (w *watchFolder) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(loopCtx)

	w.logger.Info("watching for scene files", logging.String("dir", w.dir))
	return nil
}

func (w *watchFolder) Stop() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.watcher != nil {
		_ = w.watcher.Close()
	}
	w.wg.Wait()
	w.watcher = nil
}

// loop owns the pending map: fsnotify events and the settle sweep both run
// here, so no locking is needed.
func (w *watchFolder) loop(ctx context.Context) {
	defer w.wg.Done()

	pending := make(map[string]*pendingScene)
	for _, path := range w.initialScan() {
		pending[path] = &pendingScene{size: -1, lastEvent: time.Now()}
	}

	ticker := time.NewTicker(settleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isSceneEvent(event) {
				continue
			}
			entry, exists := pending[event.Name]
			if !exists {
				entry = &pendingScene{size: -1}
				pending[event.Name] = entry
			}
			entry.lastEvent = time.Now()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch folder error", logging.Error(err))
		case now := <-ticker.C:
			w.sweep(ctx, pending, now)
		}
	}
}

// sweep enqueues pending files whose size has stopped changing.
func (w *watchFolder) sweep(ctx context.Context, pending map[string]*pendingScene, now time.Time) {
	for path, entry := range pending {
		info, err := os.Stat(path)
		if err != nil {
			delete(pending, path)
			continue
		}
		if info.IsDir() {
			delete(pending, path)
			continue
		}
		if info.Size() != entry.size {
			entry.size = info.Size()
			entry.lastEvent = now
			continue
		}
		if now.Sub(entry.lastEvent) < settleDelay {
			continue
		}
		delete(pending, path)
		w.enqueue(ctx, path)
	}
}

func (w *watchFolder) initialScan() []string {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to scan watch folder", logging.Error(err))
		return nil
	}
	var scenes []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isSceneFile(entry.Name()) {
			continue
		}
		scenes = append(scenes, filepath.Join(w.dir, entry.Name()))
	}
	return scenes
}

func (w *watchFolder) isSceneEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	return isSceneFile(filepath.Base(event.Name))
}

func isSceneFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".blend")
}
