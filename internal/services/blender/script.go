package blender

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed scripts/probe.py
var probeScript string

//go:embed scripts/render_driver.py
var driverScript string

// writeProbeScript materializes the bundled probe script as a temp file in
// dir (or the system temp dir when empty). Callers remove it when the probe
// finishes.
func writeProbeScript(dir string) (string, error) {
	file, err := os.CreateTemp(dir, "kiln-probe-*.py")
	if err != nil {
		return "", fmt.Errorf("create probe script: %w", err)
	}
	if _, err := file.WriteString(probeScript); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("write probe script: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("close probe script: %w", err)
	}
	return file.Name(), nil
}

// MaterializeDriverScript writes the bundled render driver to path so render
// processes can load it with -P. Parent directories are created as needed.
func MaterializeDriverScript(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create script dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(driverScript), 0o644); err != nil {
		return fmt.Errorf("write render driver: %w", err)
	}
	return nil
}
