package ipc

import (
	"kiln/internal/queue"
)

// dateTimeFormat is used for RFC3339 timestamps in wire payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// FromJob converts a queue record to its wire representation.
func FromJob(job *queue.Job) JobView {
	if job == nil {
		return JobView{}
	}

	view := JobView{
		ID:             job.ID,
		SceneTitle:     job.SceneTitle,
		ScenePath:      job.ScenePath,
		Status:         string(job.Status),
		StartFrame:     job.StartFrame,
		EndFrame:       job.EndFrame,
		ResumeFrame:    job.ResumeFrame,
		MissingFrames:  job.MissingFrames,
		OutputDir:      job.OutputDir,
		ImageFormat:    job.ImageFormat,
		FilenamePrefix: job.FilenamePrefix,
		CurrentFrame:   job.CurrentFrame,
		CrashCount:     job.CrashCount,
		FramesRendered: job.FramesRendered,
		RenderSeconds:  job.RenderSeconds,
		ErrorMessage:   job.ErrorMessage,
		RenderLogPath:  job.RenderLogPath,
		Progress: JobProgress{
			Stage:   job.ProgressStage,
			Percent: job.ProgressPercent,
			Message: job.ProgressMessage,
		},
	}
	if !job.CreatedAt.IsZero() {
		view.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		view.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if job.LastHeartbeat != nil && !job.LastHeartbeat.IsZero() {
		view.LastHeartbeat = job.LastHeartbeat.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromJobs converts a slice of queue records into wire DTOs.
func FromJobs(jobs []*queue.Job) []JobView {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		out = append(out, FromJob(job))
	}
	return out
}
