package queue

import (
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status represents the lifecycle of a render job.
type Status string

const (
	StatusQueued          Status = "queued"
	StatusProbing         Status = "probing"
	StatusRendering       Status = "rendering"
	StatusAlreadyComplete Status = "already_complete"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
	StatusFailed          Status = "failed"
)

// DaemonStopReason is the error message set when jobs are failed due to
// daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusQueued,
	StatusProbing,
	StatusRendering,
	StatusAlreadyComplete,
	StatusCompleted,
	StatusCancelled,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusProbing:   {},
	StatusRendering: {},
}

// liveStatuses are the states in which a scene path occupies the queue.
// Submitting the same path again while a live job exists is a no-op.
var liveStatuses = []Status{StatusQueued, StatusProbing, StatusRendering}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Queued     int
	Processing int
	Failed     int
	Completed  int
}

// Job represents a render job persisted in SQLite.
//
// Frame fields fill in as the job advances: StartFrame and EndFrame come from
// the scene probe, ResumeFrame and MissingFrames from the output inspection
// that precedes each launch, and CurrentFrame tracks the renderer's progress
// lines. FramesRendered and RenderSeconds accumulate across crash recoveries
// so session statistics reflect actual work done.
type Job struct {
	ID              int64
	ScenePath       string
	SceneTitle      string
	Status          Status
	StartFrame      int
	EndFrame        int
	ResumeFrame     int
	MissingFrames   string
	OutputDir       string
	ImageFormat     string
	FilenamePrefix  string
	CurrentFrame    int
	CrashCount      int
	FramesRendered  int
	RenderSeconds   float64
	ErrorMessage    string
	RenderLogPath   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (j Job) IsProcessing() bool {
	_, ok := processingStatuses[j.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminalStatus reports whether a status ends a job's lifecycle.
func IsTerminalStatus(status Status) bool {
	switch status {
	case StatusAlreadyComplete, StatusCompleted, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// TotalFrames returns the probed frame count, or zero before the probe runs.
func (j Job) TotalFrames() int {
	if j.EndFrame < j.StartFrame {
		return 0
	}
	return j.EndFrame - j.StartFrame + 1
}

// InitProgress resets progress fields for a new stage. If ProgressStage is
// currently empty it is set to the provided stage value; otherwise the
// existing stage is preserved to support resume scenarios. ErrorMessage is
// cleared.
func (j *Job) InitProgress(stage, message string) {
	if j.ProgressStage == "" {
		j.ProgressStage = stage
	}
	j.ProgressMessage = message
	j.ProgressPercent = 0
	j.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically. Use this instead
// of setting ProgressStage, ProgressPercent, and ProgressMessage individually.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (j *Job) SetProgressComplete(stage, message string) {
	j.SetProgress(stage, message, 100)
}

// SetFailed marks the job as failed with the given error message. Clears the
// heartbeat and sets progress fields appropriately.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressPercent = 0
	j.ProgressMessage = message
	j.LastHeartbeat = nil
	j.ProgressStage = "Failed"
}

var titleCaser = cases.Title(language.Und)

// SceneTitleFromPath derives a display title from a scene file path:
// "shots/barn_exterior_v2.blend" becomes "Barn Exterior V2".
func SceneTitleFromPath(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Untitled Scene"
	}
	return titleCaser.String(base)
}
