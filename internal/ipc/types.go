package ipc

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// JobView is the wire representation of a queued render job.
type JobView struct {
	ID             int64       `json:"id"`
	SceneTitle     string      `json:"scene_title"`
	ScenePath      string      `json:"scene_path"`
	Status         string      `json:"status"`
	StartFrame     int         `json:"start_frame"`
	EndFrame       int         `json:"end_frame"`
	ResumeFrame    int         `json:"resume_frame"`
	MissingFrames  string      `json:"missing_frames,omitempty"`
	OutputDir      string      `json:"output_dir,omitempty"`
	ImageFormat    string      `json:"image_format,omitempty"`
	FilenamePrefix string      `json:"filename_prefix,omitempty"`
	CurrentFrame   int         `json:"current_frame"`
	CrashCount     int         `json:"crash_count"`
	FramesRendered int         `json:"frames_rendered"`
	RenderSeconds  float64     `json:"render_seconds"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	RenderLogPath  string      `json:"render_log_path,omitempty"`
	Progress       JobProgress `json:"progress"`
	CreatedAt      string      `json:"created_at,omitempty"`
	UpdatedAt      string      `json:"updated_at,omitempty"`
	LastHeartbeat  string      `json:"last_heartbeat,omitempty"`
}

// JobProgress captures stage progress information for a job.
type JobProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// StageHealth describes readiness of a workflow stage.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// RendererInfo describes the configured Blender executable.
type RendererInfo struct {
	Path   string `json:"path"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// SessionStats reports totals accumulated since the workflow started.
type SessionStats struct {
	StartedAt          string  `json:"started_at,omitempty"`
	ScenesCompleted    int     `json:"scenes_completed"`
	FramesCompleted    int     `json:"frames_completed"`
	TotalRenderSeconds float64 `json:"total_render_seconds"`
}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	QueueActive bool           `json:"queue_active"`
	ActiveJobID int64          `json:"active_job_id"`
	QueueStats  map[string]int `json:"queue_stats"`
	LastError   string         `json:"last_error"`
	LastJob     *JobView       `json:"last_job"`
	LockPath    string         `json:"lock_path"`
	QueueDBPath string         `json:"queue_db_path"`
	SocketPath  string         `json:"socket_path"`
	WatchDir    string         `json:"watch_dir"`
	StageHealth []StageHealth  `json:"stage_health"`
	Renderer    RendererInfo   `json:"renderer"`
	Session     SessionStats   `json:"session"`
	PID         int            `json:"pid"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// QueueDescribeRequest fetches a single job by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single job.
type QueueDescribeResponse struct {
	Job JobView `json:"job"`
}

// QueueAddRequest enqueues a scene file.
type QueueAddRequest struct {
	ScenePath string `json:"scene_path"`
}

// QueueAddResponse contains the enqueued (or pre-existing) job.
type QueueAddResponse struct {
	Job     JobView `json:"job"`
	Created bool    `json:"created"`
}

// QueueRemoveRequest removes specific jobs by ID.
type QueueRemoveRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRemoveResponse reports number of removed entries.
type QueueRemoveResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearRequest removes all jobs.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearCompletedRequest removes completed jobs.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed jobs.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueResetRequest requeues jobs stuck in processing states.
type QueueResetRequest struct{}

// QueueResetResponse reports number of jobs reset.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRetryRequest retries failed jobs. Empty list means all failed jobs.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports number of retried jobs.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// CancelRequest cancels a job by ID.
type CancelRequest struct {
	ID int64 `json:"id"`
}

// CancelResponse reports cancel outcome.
type CancelResponse struct {
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// QueueHealthRequest fetches aggregate diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse reports queue health information.
type QueueHealthResponse struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Completed  int `json:"completed"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    string   `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalJobs        int      `json:"total_jobs"`
	Error            string   `json:"error"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
