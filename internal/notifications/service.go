package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kiln/internal/config"
)

const userAgent = "Kiln/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
	Test(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		gates:    cfg.Notifications,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	gates    config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	data, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func (n *ntfyService) Test(ctx context.Context) error {
	return n.send(ctx, message{
		title:    "Kiln - Test",
		body:     "Notification system test",
		tags:     []string{"kiln", "test"},
		priority: "low",
	})
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventQueueStarted, EventQueueCompleted:
		return n.gates.Queue
	case EventRenderStarted, EventRenderCompleted, EventSceneAlreadyComplete:
		return n.gates.Renders
	case EventRenderCrashed:
		return n.gates.Crashes
	case EventError:
		return n.gates.Errors
	default:
		return true
	}
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventQueueStarted:
		return message{
			title: "Kiln - Queue Started",
			body:  fmt.Sprintf("Started rendering queue with %d scenes", intValue(payload, "count")),
			tags:  []string{"kiln", "queue", "started"},
		}, true
	case EventQueueCompleted:
		scenes := intValue(payload, "scenes")
		frames := intValue(payload, "frames")
		failed := intValue(payload, "failed")
		durationText := formatDuration(durationValue(payload, "duration"))
		if failed == 0 {
			return message{
				title: "Kiln - Queue Complete",
				body:  fmt.Sprintf("Queue complete: %d scenes (%d frames) in %s", scenes, frames, durationText),
				tags:  []string{"kiln", "queue", "completed"},
			}, true
		}
		return message{
			title: "Kiln - Queue Complete (with errors)",
			body:  fmt.Sprintf("Queue complete: %d scenes succeeded (%d frames), %d failed in %s", scenes, frames, failed, durationText),
			tags:  []string{"kiln", "queue", "completed"},
		}, true
	case EventRenderStarted:
		return message{
			title: "Kiln - Render Started",
			body:  fmt.Sprintf("Render started: %s", stringValue(payload, "scene")),
			tags:  []string{"kiln", "render", "started"},
		}, true
	case EventRenderCompleted:
		body := fmt.Sprintf("Render complete: %s", stringValue(payload, "scene"))
		if frames := intValue(payload, "frames"); frames > 0 {
			body = fmt.Sprintf("%s (%d frames)", body, frames)
		}
		return message{
			title:    "Kiln - Render Complete",
			body:     body,
			tags:     []string{"kiln", "render", "completed"},
			priority: "high",
		}, true
	case EventSceneAlreadyComplete:
		return message{
			title: "Kiln - Nothing To Render",
			body:  fmt.Sprintf("All frames already on disk: %s", stringValue(payload, "scene")),
			tags:  []string{"kiln", "render", "skipped"},
		}, true
	case EventRenderCrashed:
		return message{
			title: "Kiln - Render Crashed",
			body: fmt.Sprintf("Render crashed: %s (crash #%d), resuming from frames on disk",
				stringValue(payload, "scene"), intValue(payload, "crash_count")),
			tags: []string{"kiln", "render", "crash"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if contextLabel := stringValue(payload, "context"); contextLabel != "" {
			builder.WriteString(" with ")
			builder.WriteString(contextLabel)
		}
		builder.WriteString(": ")
		if detail := stringValue(payload, "error"); detail != "" {
			builder.WriteString(detail)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Kiln - Error",
			body:     builder.String(),
			tags:     []string{"kiln", "error", "alert"},
			priority: "high",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func stringValue(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	switch v := payload[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		if v != nil {
			return strings.TrimSpace(v.Error())
		}
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	}
	return ""
}

func intValue(payload Payload, key string) int {
	if payload == nil {
		return 0
	}
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func durationValue(payload Payload, key string) time.Duration {
	if payload == nil {
		return 0
	}
	if v, ok := payload[key].(time.Duration); ok {
		return v
	}
	return 0
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

func (noopService) Test(context.Context) error {
	return fmt.Errorf("ntfy topic not configured")
}
