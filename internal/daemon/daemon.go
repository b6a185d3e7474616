package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"kiln/internal/config"
	"kiln/internal/logging"
	"kiln/internal/queue"
	"kiln/internal/services/blender"
	"kiln/internal/workflow"
)

// Daemon coordinates background render processing and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	watcher  *watchFolder

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// RendererStatus describes the configured Blender executable.
type RendererStatus struct {
	Path   string
	Ready  bool
	Detail string
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	SocketPath   string
	LockFilePath string
	WatchDir     string
	Renderer     RendererStatus
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	if strings.TrimSpace(cfg.Paths.WatchDir) != "" {
		d.watcher = newWatchFolder(cfg.Paths.WatchDir, logger, d.enqueueWatched)
	}
	return d, nil
}

// Start acquires the instance lock and launches queue processing. The render
// driver script is refreshed up front so a stale copy from an older build
// never reaches Blender.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another kiln daemon instance is already running")
	}

	if err := blender.MaterializeDriverScript(d.cfg.DriverScriptPath()); err != nil {
		d.logger.Warn("failed to materialize driver script; render launches will retry",
			logging.String("path", d.cfg.DriverScriptPath()),
			logging.Error(err),
		)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	if d.watcher != nil {
		if err := d.watcher.Start(d.ctx); err != nil {
			d.logger.Warn("watch folder unavailable; scenes must be added via CLI",
				logging.String("dir", d.cfg.Paths.WatchDir),
				logging.Error(err),
			)
		}
	}

	d.running.Store(true)
	d.logger.Info("kiln daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("kiln daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// LogPath returns the daemon's structured log file.
func (d *Daemon) LogPath() string {
	return d.cfg.DaemonLogPath()
}

// Status reports daemon runtime state. Workflow status errors are folded
// into the summary so a degraded store still yields a usable report.
func (d *Daemon) Status(ctx context.Context) Status {
	summary, err := d.workflow.Status(ctx)
	if err != nil && summary.LastError == "" {
		summary.LastError = err.Error()
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     summary,
		QueueDBPath:  d.cfg.DatabasePath(),
		SocketPath:   d.cfg.SocketPath(),
		LockFilePath: d.lockPath,
		WatchDir:     d.cfg.Paths.WatchDir,
		Renderer:     d.rendererStatus(),
	}
}

func (d *Daemon) rendererStatus() RendererStatus {
	settings, err := config.LoadBlender(d.cfg.Paths.BlenderConfig)
	if err != nil {
		return RendererStatus{Detail: err.Error()}
	}
	status := RendererStatus{Path: settings.BlenderPath}
	if err := settings.Validate(); err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Ready = true
	return status
}
