package probing

import (
	"context"
	"fmt"
	"os"
	"strings"

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
)

// ProbeClient is the slice of the renderer client the prober needs.
type ProbeClient interface {
	Probe(ctx context.Context, scenePath string) (*blender.ProbeResult, error)
}

// ClientFactory builds a probe client for the configured renderer binary.
// The prober re-reads the renderer settings file on every job so a path set
// through the CLI takes effect without restarting the daemon.
type ClientFactory func(binary string, probeTimeoutSeconds int) (ProbeClient, error)

func defaultClientFactory(binary string, probeTimeoutSeconds int) (ProbeClient, error) {
	return blender.New(binary, probeTimeoutSeconds)
}

// Prober resolves scene metadata ahead of rendering.
type Prober struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	notifier  notifications.Service
	newClient ClientFactory
}

// NewProber constructs the probing handler using default dependencies.
func NewProber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Prober {
	return NewProberWithDependencies(cfg, store, logger, notifications.NewService(cfg), nil)
}

// NewProberWithDependencies allows injecting collaborators (used in tests).
func NewProberWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, factory ClientFactory) *Prober {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "prober"))
	}
	if factory == nil {
		factory = defaultClientFactory
	}
	return &Prober{store: store, cfg: cfg, logger: stageLogger, notifier: notifier, newClient: factory}
}

func (p *Prober) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, p.logger)
	if job.ProgressStage == "" {
		job.ProgressStage = "Probing"
	}
	job.ProgressMessage = "Reading scene metadata"
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	logger.Info(
		"starting scene probe",
		logging.String(logging.FieldScene, strings.TrimSpace(job.ScenePath)),
	)
	return nil
}

func (p *Prober) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, p.logger)

	settings, err := config.LoadBlender(p.cfg.Paths.BlenderConfig)
	if err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"probing",
			"load renderer settings",
			"Renderer settings file is unreadable; fix or remove it",
			err,
		)
	}
	if err := settings.Validate(); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"probing",
			"validate renderer path",
			"Renderer path is unset or invalid; run 'kiln blender set-path <path>'",
			err,
		)
	}

	client, err := p.newClient(settings.BlenderPath, p.cfg.Render.ProbeTimeout)
	if err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"probing",
			"build renderer client",
			"Renderer client could not be constructed from the configured path",
			err,
		)
	}

	logger.Info(
		"probing scene",
		logging.String(logging.FieldScene, job.ScenePath),
		logging.String("renderer", settings.BlenderPath),
	)

	result, err := client.Probe(ctx, job.ScenePath)
	if err != nil {
		return services.Wrap(
			services.ErrProbe,
			"probing",
			"probe scene",
			"Scene probe failed; check the renderer installation and the scene file",
			err,
		)
	}
	for _, warning := range result.Warnings {
		logger.Warn("probe output anomaly", logging.String("detail", warning))
	}

	if err := os.MkdirAll(result.OutputDir, 0o755); err != nil {
		p.writeSceneDiagnostic(ctx, job, fmt.Sprintf("cannot create output directory %s", result.OutputDir), err)
		return services.Wrap(
			services.ErrOutputDir,
			"probing",
			"create output directory",
			"Cannot create the resolved output directory; check permissions",
			err,
		)
	}

	job.StartFrame = result.StartFrame
	job.EndFrame = result.EndFrame
	job.OutputDir = result.OutputDir
	job.ImageFormat = result.ImageFormat

	inspector := frames.NewInspector(p.cfg.Render.FilenamePrefix, result.ImageFormat)
	plan, err := inspector.Plan(result.OutputDir, result.StartFrame, result.EndFrame)
	if err != nil {
		p.writeSceneDiagnostic(ctx, job, fmt.Sprintf("cannot inspect output directory %s", result.OutputDir), err)
		return services.Wrap(
			services.ErrOutputDir,
			"probing",
			"inspect output directory",
			"Cannot read the resolved output directory; check permissions",
			err,
		)
	}

	job.ResumeFrame = plan.StartFrame
	job.MissingFrames = frames.FormatList(plan.Missing)

	if plan.Complete {
		job.Status = queue.StatusAlreadyComplete
		job.ProgressStage = "Already complete"
		job.ProgressPercent = 100
		job.ProgressMessage = "All frames already rendered"
		logger.Info(
			"scene already complete",
			logging.Int("start_frame", result.StartFrame),
			logging.Int("end_frame", result.EndFrame),
			logging.String("output_dir", result.OutputDir),
		)
		if p.notifier != nil {
			if err := p.notifier.Publish(ctx, notifications.EventSceneAlreadyComplete, notifications.Payload{"scene": job.SceneTitle}); err != nil {
				logger.Warn("already-complete notification failed", logging.Error(err))
			}
		}
		return nil
	}

	job.ProgressStage = "Probed"
	job.ProgressPercent = 100
	job.ProgressMessage = fmt.Sprintf("Frames %d-%d, resuming at %d", result.StartFrame, result.EndFrame, plan.StartFrame)
	logger.Info(
		"scene probed",
		logging.Int("start_frame", result.StartFrame),
		logging.Int("end_frame", result.EndFrame),
		logging.Int("resume_frame", plan.StartFrame),
		logging.Int("missing_count", len(plan.Missing)),
		logging.String("output_dir", result.OutputDir),
		logging.String("image_format", result.ImageFormat),
	)
	return nil
}

// HealthCheck verifies the renderer is configured and reachable.
func (p *Prober) HealthCheck(ctx context.Context) stage.Health {
	const name = "prober"
	if p.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	settings, err := config.LoadBlender(p.cfg.Paths.BlenderConfig)
	if err != nil {
		return stage.Unhealthy(name, "renderer settings unreadable")
	}
	if err := settings.Validate(); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("renderer not ready: %v", err))
	}
	return stage.Healthy(name)
}

func (p *Prober) writeSceneDiagnostic(ctx context.Context, job *queue.Job, message string, cause error) {
	logger := logging.WithContext(ctx, p.logger)
	path, err := scenelog.Write(job.ScenePath, message, cause)
	if err != nil {
		logger.Warn("scene diagnostic log write failed", logging.Error(err))
		return
	}
	logger.Info("scene diagnostic written", logging.String("path", path))
}
