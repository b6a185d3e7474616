package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// BlenderSettings is the JSON settings object that locates the Blender
// executable. It lives in its own file (config.json) rather than the TOML
// config because desktop tooling reads and writes the same object.
type BlenderSettings struct {
	BlenderPath string `json:"blender_path"`
}

// LoadBlender reads the Blender settings file at path. A missing file is
// created with an empty path and returned as empty settings; a malformed or
// unreadable file is an error.
func LoadBlender(path string) (BlenderSettings, error) {
	var settings BlenderSettings

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if writeErr := SaveBlender(path, settings); writeErr != nil {
				return settings, writeErr
			}
			return settings, nil
		}
		return settings, fmt.Errorf("read blender settings: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse blender settings %s: %w", path, err)
	}
	settings.BlenderPath = strings.TrimSpace(settings.BlenderPath)
	return settings, nil
}

// SaveBlender writes the settings object to path, creating parent
// directories as needed.
func SaveBlender(path string, settings BlenderSettings) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create blender settings directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return fmt.Errorf("encode blender settings: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write blender settings: %w", err)
	}
	return nil
}

// Validate reports whether the settings point at an existing executable.
func (s BlenderSettings) Validate() error {
	if s.BlenderPath == "" {
		return errors.New("blender path is not set")
	}
	info, err := os.Stat(s.BlenderPath)
	if err != nil {
		return fmt.Errorf("blender path %s: %w", s.BlenderPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("blender path %s is a directory", s.BlenderPath)
	}
	return nil
}
