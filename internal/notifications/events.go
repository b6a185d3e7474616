package notifications

// Event identifies a notifiable workflow milestone.
type Event string

const (
	// EventQueueStarted fires when the first job of an idle queue begins.
	EventQueueStarted Event = "queue_started"
	// EventQueueCompleted fires when the last live job reaches a terminal state.
	EventQueueCompleted Event = "queue_completed"
	// EventRenderStarted fires when a scene moves into rendering.
	EventRenderStarted Event = "render_started"
	// EventRenderCompleted fires when a scene finishes all frames.
	EventRenderCompleted Event = "render_completed"
	// EventRenderCrashed fires on each abnormal renderer exit before resume.
	EventRenderCrashed Event = "render_crashed"
	// EventSceneAlreadyComplete fires when probing finds nothing left to render.
	EventSceneAlreadyComplete Event = "scene_already_complete"
	// EventError fires when a job fails terminally.
	EventError Event = "error"
)

// Payload carries loosely typed event context. Formatting decisions stay
// inside this package so callers only supply raw values.
type Payload map[string]any
