package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kiln/internal/logging"
	"kiln/internal/services"
)

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerPromotesComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "component.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	component := logging.NewComponentLogger(logger, "prober")
	component.Info("scene probed", logging.String("scene", "/tmp/a.blend"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(content))
	if !strings.Contains(line, "prober: scene probed") {
		t.Fatalf("expected component prefix in %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component attribute should be folded into the prefix, got %q", line)
	}
	if !strings.Contains(line, "scene=/tmp/a.blend") {
		t.Fatalf("expected scene attribute in %q", line)
	}
}

func TestConsoleLoggerQuotesValuesWithSpaces(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "quoting.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("probe complete", logging.String("output_dir", "/renders/My Scene"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `output_dir="/renders/My Scene"`) {
		t.Fatalf("expected quoted attribute value, got %q", content)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("hello", logging.Int("frame", 12))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	for _, key := range []string{`"ts":`, `"level":"info"`, `"msg":"hello"`, `"frame":12`} {
		if !strings.Contains(text, key) {
			t.Fatalf("expected %s in JSON output, got %q", key, text)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsJobFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "context.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJobID(context.Background(), 42)
	ctx = services.WithStage(ctx, "render")
	logging.WithContext(ctx, logger).Info("progress")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "job_id=42") {
		t.Fatalf("expected job_id attribute, got %q", text)
	}
	if !strings.Contains(text, "stage=render") {
		t.Fatalf("expected stage attribute, got %q", text)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("never seen", logging.Error(os.ErrNotExist))
}
