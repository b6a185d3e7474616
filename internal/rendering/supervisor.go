package rendering

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"log/slog"

	"kiln/internal/config"
	"kiln/internal/frames"
	"kiln/internal/logging"
	"kiln/internal/notifications"
	"kiln/internal/queue"
	"kiln/internal/scenelog"
	"kiln/internal/services"
	"kiln/internal/services/blender"
	"kiln/internal/stage"
	"kiln/internal/stats"
)

// RenderClient is the slice of the renderer client the supervisor needs.
type RenderClient interface {
	Render(ctx context.Context, req blender.RenderRequest, onLine func(string), onFrame func(int)) (blender.RenderOutcome, error)
}

// ClientFactory builds a render client for the configured renderer binary.
// Settings are re-read on every job so a path set through the CLI takes
// effect without restarting the daemon.
type ClientFactory func(binary string) (RenderClient, error)

func defaultClientFactory(binary string) (RenderClient, error) {
	return blender.New(binary, 0)
}

const progressPersistInterval = 2 * time.Second

// Supervisor drives the renderer process for one job at a time. Each launch
// starts from a fresh inspection of the output directory, so crash recovery
// and resume-after-restart share the same path: whatever frames are on disk
// are skipped, and only the remainder is requested from the renderer.
type Supervisor struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	notifier  notifications.Service
	newClient ClientFactory
}

// NewSupervisor constructs the rendering handler using default dependencies.
func NewSupervisor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Supervisor {
	return NewSupervisorWithDependencies(cfg, store, logger, notifications.NewService(cfg), nil)
}

// NewSupervisorWithDependencies allows injecting collaborators (used in tests).
func NewSupervisorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, factory ClientFactory) *Supervisor {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "supervisor"))
	}
	if factory == nil {
		factory = defaultClientFactory
	}
	return &Supervisor{store: store, cfg: cfg, logger: stageLogger, notifier: notifier, newClient: factory}
}

func (s *Supervisor) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)
	if job.TotalFrames() == 0 {
		return services.Wrap(
			services.ErrValidation,
			"rendering",
			"check frame range",
			"Job has no probed frame range; requeue the scene",
			nil,
		)
	}
	if strings.TrimSpace(job.OutputDir) == "" {
		return services.Wrap(
			services.ErrValidation,
			"rendering",
			"check output directory",
			"Job has no resolved output directory; requeue the scene",
			nil,
		)
	}
	missing, err := stage.ParseMissingFrames(job)
	if err != nil {
		return err
	}
	job.SetProgress("Rendering", "Preparing renderer launch", 0)
	job.ErrorMessage = ""
	logger.Info(
		"starting render supervision",
		logging.String(logging.FieldScene, job.ScenePath),
		logging.Int("start_frame", job.StartFrame),
		logging.Int("end_frame", job.EndFrame),
		logging.Int("resume_frame", job.ResumeFrame),
		logging.Int("gap_frames", len(missing)),
	)
	return nil
}

func (s *Supervisor) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)

	settings, err := config.LoadBlender(s.cfg.Paths.BlenderConfig)
	if err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"rendering",
			"load renderer settings",
			"Renderer settings file is unreadable; fix or remove it",
			err,
		)
	}
	if err := settings.Validate(); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"rendering",
			"validate renderer path",
			"Renderer path is unset or invalid; run 'kiln blender set-path <path>'",
			err,
		)
	}
	client, err := s.newClient(settings.BlenderPath)
	if err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"rendering",
			"build renderer client",
			"Renderer client could not be constructed from the configured path",
			err,
		)
	}

	driverPath := s.cfg.DriverScriptPath()
	if _, err := os.Stat(driverPath); err != nil {
		if err := blender.MaterializeDriverScript(driverPath); err != nil {
			return services.Wrap(
				services.ErrConfiguration,
				"rendering",
				"write render driver script",
				"Render driver script could not be written; check data directory permissions",
				err,
			)
		}
	}

	sink, err := openRenderLog(s.cfg, job)
	if err != nil {
		logger.Warn("render log unavailable", logging.Error(err))
	} else {
		defer sink.Close()
		s.persist(ctx, logger, job)
	}

	prefix := s.cfg.Render.FilenamePrefix
	inspector := frames.NewInspector(prefix, job.ImageFormat)
	sampler := logging.NewProgressSampler(5)

	// FramesRendered counts frames this job put on disk, surviving crashes
	// and daemon restarts: each inspection reports the current on-disk count
	// and the delta against the first inspection is credited on top of work
	// recorded by earlier sessions.
	total := job.TotalFrames()
	baseRendered := job.FramesRendered
	baseOnDisk := -1

	var frameTimes []time.Duration
	var lastPersisted time.Time
	launches := 0

	for {
		if err := ctx.Err(); err != nil {
			sink.Bannerf("render interrupted")
			return fmt.Errorf("render supervision interrupted: %w", err)
		}

		plan, err := inspector.Plan(job.OutputDir, job.StartFrame, job.EndFrame)
		if err != nil {
			s.writeSceneDiagnostic(ctx, job, fmt.Sprintf("cannot inspect output directory %s", job.OutputDir), err)
			return services.Wrap(
				services.ErrOutputDir,
				"rendering",
				"inspect output directory",
				"Cannot read the output directory; check permissions",
				err,
			)
		}
		job.ResumeFrame = plan.StartFrame
		job.MissingFrames = frames.FormatList(plan.Missing)

		targets := launchTargets(plan, job.EndFrame)
		onDisk := total - len(targets)
		if baseOnDisk < 0 {
			baseOnDisk = onDisk
		}
		job.FramesRendered = baseRendered + (onDisk - baseOnDisk)
		if plan.Complete {
			break
		}

		launchRenderedBase := job.FramesRendered
		launchStart := time.Now()
		lastFrameAt := time.Time{}
		framesDone := 0

		onFrame := func(frame int) {
			now := time.Now()
			if !lastFrameAt.IsZero() {
				frameTimes = append(frameTimes, now.Sub(lastFrameAt))
			}
			lastFrameAt = now
			if idx := sort.SearchInts(targets, frame); idx > framesDone {
				framesDone = idx
			}

			percent := float64(framesDone) / float64(len(targets)) * 100
			estimate := stats.Compute(frameTimes, len(frameTimes)+len(targets)-framesDone, now)
			updated := *job
			updated.CurrentFrame = frame
			updated.FramesRendered = launchRenderedBase + framesDone
			updated.SetProgress("Rendering", fmt.Sprintf("Frame %d/%d, ETA %s", frame, job.EndFrame, estimate.ETALabel()), percent)

			if sampler.ShouldLog(percent, "Rendering") {
				logger.Info(
					"render progress",
					logging.Int(logging.FieldFrame, frame),
					logging.Float64("progress_percent", percent),
					logging.String("eta", estimate.ETALabel()),
					logging.String("avg_frame_time", estimate.AverageLabel()),
				)
			}
			if !lastPersisted.IsZero() && now.Sub(lastPersisted) < progressPersistInterval {
				*job = updated
				return
			}
			lastPersisted = now
			if err := s.store.Update(ctx, &updated); err != nil {
				logger.Warn("failed to persist render progress", logging.Error(err))
			}
			*job = updated
		}

		launches++
		if launches == 1 {
			s.publish(ctx, logger, notifications.EventRenderStarted, notifications.Payload{"scene": job.SceneTitle})
		}
		if job.MissingFrames != "" {
			sink.Bannerf("launch %d: frames %s of %s", launches, job.MissingFrames, job.ScenePath)
		} else {
			sink.Bannerf("launch %d: frames %d-%d of %s", launches, plan.StartFrame, job.EndFrame, job.ScenePath)
		}
		logger.Info(
			"launching renderer",
			logging.Int("launch", launches),
			logging.Int("resume_frame", plan.StartFrame),
			logging.Int("remaining_frames", len(targets)),
			logging.Int(logging.FieldCrashCount, job.CrashCount),
		)

		outcome, runErr := client.Render(ctx, blender.RenderRequest{
			ScenePath:     job.ScenePath,
			DriverScript:  driverPath,
			OutputDir:     job.OutputDir,
			Prefix:        prefix,
			MissingFrames: plan.Missing,
		}, sink.Line, onFrame)

		job.RenderSeconds += time.Since(launchStart).Seconds()

		var startErr *blender.StartError
		if runErr != nil && errors.As(runErr, &startErr) {
			sink.Bannerf("launch failed: %v", runErr)
			s.writeSceneDiagnostic(ctx, job, "renderer process failed to start", runErr)
			return services.Wrap(
				services.ErrLaunch,
				"rendering",
				"launch renderer",
				"Renderer process could not be started; check the configured path",
				runErr,
			)
		}
		if err := ctx.Err(); err != nil {
			job.FramesRendered = launchRenderedBase + framesDone
			sink.Bannerf("render interrupted")
			s.persist(ctx, logger, job)
			return fmt.Errorf("render supervision interrupted: %w", err)
		}

		if outcome.Done || (outcome.FrameSeen && outcome.LastFrame >= job.EndFrame) {
			if runErr != nil {
				logger.Warn("renderer exit error after completion marker", logging.Error(runErr))
			}
			job.FramesRendered = launchRenderedBase + len(targets)
			job.ResumeFrame = job.EndFrame + 1
			job.MissingFrames = ""
			sink.Bannerf("render finished (%d frames this launch)", len(targets))
			break
		}

		job.CrashCount++
		job.FramesRendered = launchRenderedBase + framesDone
		detail := strings.TrimSpace(outcome.ErrorLine)
		if detail == "" && runErr != nil {
			detail = runErr.Error()
		}
		if detail == "" {
			detail = "renderer exited before the end frame"
		}
		logger.Warn(
			"renderer crashed, resuming from frames on disk",
			logging.Int(logging.FieldCrashCount, job.CrashCount),
			logging.Int("last_frame", outcome.LastFrame),
			logging.String("detail", detail),
		)
		sink.Bannerf("crash #%d: %s", job.CrashCount, detail)
		job.SetProgress("Rendering", fmt.Sprintf("Recovering from crash #%d", job.CrashCount), job.ProgressPercent)
		s.persist(ctx, logger, job)
		s.publish(ctx, logger, notifications.EventRenderCrashed, notifications.Payload{
			"scene":       job.SceneTitle,
			"crash_count": job.CrashCount,
		})
	}

	job.CurrentFrame = job.EndFrame
	message := fmt.Sprintf("Rendered frames %d-%d", job.StartFrame, job.EndFrame)
	if launches == 0 {
		message = "All frames already on disk"
	} else if job.CrashCount > 0 {
		message = fmt.Sprintf("%s after %d crash recoveries", message, job.CrashCount)
	}
	job.SetProgressComplete("Completed", message)
	logger.Info(
		"render complete",
		logging.Int("frames_rendered", job.FramesRendered),
		logging.Float64("render_seconds", job.RenderSeconds),
		logging.Int(logging.FieldCrashCount, job.CrashCount),
		logging.Int("launches", launches),
	)
	s.publish(ctx, logger, notifications.EventRenderCompleted, notifications.Payload{
		"scene":  job.SceneTitle,
		"frames": job.FramesRendered,
	})
	return nil
}

// HealthCheck verifies the renderer is configured. The driver script is not
// checked here because Execute rewrites it when missing.
func (s *Supervisor) HealthCheck(ctx context.Context) stage.Health {
	const name = "supervisor"
	if s.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	settings, err := config.LoadBlender(s.cfg.Paths.BlenderConfig)
	if err != nil {
		return stage.Unhealthy(name, "renderer settings unreadable")
	}
	if err := settings.Validate(); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("renderer not ready: %v", err))
	}
	return stage.Healthy(name)
}

// launchTargets lists the frames the next launch must produce, in ascending
// order. A range resume materializes into the contiguous run so progress and
// crash accounting can treat both modes uniformly.
func launchTargets(plan frames.Plan, endFrame int) []int {
	if plan.Complete {
		return nil
	}
	if len(plan.Missing) > 0 {
		return plan.Missing
	}
	targets := make([]int, 0, endFrame-plan.StartFrame+1)
	for frame := plan.StartFrame; frame <= endFrame; frame++ {
		targets = append(targets, frame)
	}
	return targets
}

func (s *Supervisor) persist(ctx context.Context, logger *slog.Logger, job *queue.Job) {
	if err := s.store.Update(ctx, job); err != nil {
		logger.Warn("failed to persist render state", logging.Error(err))
	}
}

func (s *Supervisor) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, event, payload); err != nil {
		logger.Warn("notification publish failed", logging.String("event", string(event)), logging.Error(err))
	}
}

func (s *Supervisor) writeSceneDiagnostic(ctx context.Context, job *queue.Job, message string, cause error) {
	logger := logging.WithContext(ctx, s.logger)
	path, err := scenelog.Write(job.ScenePath, message, cause)
	if err != nil {
		logger.Warn("scene diagnostic log write failed", logging.Error(err))
		return
	}
	logger.Info("scene diagnostic written", logging.String("path", path))
}
