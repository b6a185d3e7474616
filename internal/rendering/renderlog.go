package rendering

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"kiln/internal/config"
	"kiln/internal/queue"
)

// logSink captures the renderer's raw output for one job. The file lives
// under the render log directory and is appended to across crash recoveries
// and daemon restarts so the full history of a job stays in one place.
type logSink struct {
	f *os.File
}

// openRenderLog opens (or creates) the render log for a job, assigning
// job.RenderLogPath on first use. Callers persist the job afterwards so
// status readers can tail the file.
func openRenderLog(cfg *config.Config, job *queue.Job) (*logSink, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration unavailable")
	}
	dir := strings.TrimSpace(cfg.RenderLogDir())
	if dir == "" {
		return nil, fmt.Errorf("render log directory not configured")
	}
	if strings.TrimSpace(job.RenderLogPath) == "" {
		job.RenderLogPath = filepath.Join(dir, renderLogName(job))
	}
	if err := os.MkdirAll(filepath.Dir(job.RenderLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure render log directory: %w", err)
	}
	f, err := os.OpenFile(job.RenderLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open render log: %w", err)
	}
	return &logSink{f: f}, nil
}

func renderLogName(job *queue.Job) string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	title := sanitizeSlug(job.SceneTitle)
	if title == "" {
		title = "scene"
	}
	return fmt.Sprintf("%s-job%d-%s.log", timestamp, job.ID, title)
}

// Line appends one raw renderer output line. Safe on a nil sink so the
// supervisor can keep rendering when the log file could not be opened.
func (s *logSink) Line(text string) {
	if s == nil || s.f == nil {
		return
	}
	fmt.Fprintln(s.f, text)
}

// Bannerf appends a timestamped supervisor annotation, marking launches,
// crashes, and terminal states between blocks of raw renderer output.
func (s *logSink) Bannerf(format string, args ...any) {
	if s == nil || s.f == nil {
		return
	}
	fmt.Fprintf(s.f, "--- [%s] %s ---\n", time.Now().Format(time.RFC3339), fmt.Sprintf(format, args...))
}

func (s *logSink) Close() {
	if s == nil || s.f == nil {
		return
	}
	s.f.Close()
}

func sanitizeSlug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var builder strings.Builder
	builder.Grow(len(value))
	lastDash := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastDash = false
		case r >= 'A' && r <= 'Z':
			builder.WriteRune(unicode.ToLower(r))
			lastDash = false
		default:
			if !lastDash {
				builder.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(builder.String(), "-")
}
