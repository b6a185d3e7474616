package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"kiln/internal/config"
	"kiln/internal/daemon"
	"kiln/internal/ipc"
	"kiln/internal/logging"
	"kiln/internal/notifications"
	"kiln/internal/preflight"
	"kiln/internal/probing"
	"kiln/internal/queue"
	"kiln/internal/rendering"
	"kiln/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured level when non-empty.
	LogLevel string
}

// Run starts the kiln daemon runtime loop: logger, queue store, workflow
// stages, IPC server, and the daemon itself. It blocks until the context is
// cancelled or the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("kilnd-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	// kilnd.log always points at the current run so `kiln logs` and the
	// LogTail RPC never have to guess which per-run file is live.
	if err := ensureCurrentLogPointer(cfg.DaemonLogPath(), logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update kilnd.log link: %v\n", err)
	}

	logPreflight(logger, cfg)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	manager.ConfigureStages(workflow.StageSet{
		Prober:   probing.NewProber(cfg, store, logger),
		Renderer: rendering.NewSupervisor(cfg, store, logger),
	})

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed", logging.Error(err))
	}

	<-signalCtx.Done()
	logger.Info("kiln daemon shutting down")
	return nil
}

// ensureCurrentLogPointer links the stable daemon log path to the per-run
// file. Symlinks are preferred; hard links cover filesystems without them.
func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logPreflight(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	for _, result := range preflight.RunAll(cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}
}
