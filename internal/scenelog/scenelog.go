// Package scenelog writes per-scene diagnostic files for failures that occur
// before a render log exists, such as output-directory or launch errors. The
// file lands beside the scene so artists find it next to the work it concerns.
package scenelog

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"
)

// Write appends a failure record to "<scene basename>.log" next to the scene
// file and returns the log path. Each record carries a timestamp, the failure
// message, the causing error, and a stack trace.
func Write(scenePath, message string, cause error) (string, error) {
	scenePath = strings.TrimSpace(scenePath)
	if scenePath == "" {
		return "", fmt.Errorf("scene path required")
	}
	path := filepath.Join(filepath.Dir(scenePath), filepath.Base(scenePath)+".log")

	var body strings.Builder
	fmt.Fprintf(&body, "[%s] %s\n", time.Now().Format(time.RFC3339), strings.TrimSpace(message))
	if cause != nil {
		fmt.Fprintf(&body, "error: %v\n", cause)
	}
	body.WriteString("stack:\n")
	body.Write(debug.Stack())
	body.WriteString("\n")

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open scene diagnostic log: %w", err)
	}
	if _, err := file.WriteString(body.String()); err != nil {
		file.Close()
		return "", fmt.Errorf("write scene diagnostic log: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close scene diagnostic log: %w", err)
	}
	return path, nil
}
