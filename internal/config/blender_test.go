package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kiln/internal/config"
)

func TestLoadBlenderCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings", "config.json")

	settings, err := config.LoadBlender(path)
	if err != nil {
		t.Fatalf("LoadBlender returned error: %v", err)
	}
	if settings.BlenderPath != "" {
		t.Fatalf("expected empty blender path, got %q", settings.BlenderPath)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected settings file to be created: %v", err)
	}
	if !strings.Contains(string(contents), `"blender_path": ""`) {
		t.Fatalf("unexpected settings file contents: %s", contents)
	}
}

func TestLoadBlenderReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"blender_path": "/opt/blender/blender"}`), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	settings, err := config.LoadBlender(path)
	if err != nil {
		t.Fatalf("LoadBlender returned error: %v", err)
	}
	if settings.BlenderPath != "/opt/blender/blender" {
		t.Fatalf("unexpected blender path: %q", settings.BlenderPath)
	}
}

func TestLoadBlenderRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	if _, err := config.LoadBlender(path); err == nil {
		t.Fatal("expected error for malformed settings file")
	}
}

func TestSaveBlenderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	if err := config.SaveBlender(path, config.BlenderSettings{BlenderPath: "/usr/bin/blender"}); err != nil {
		t.Fatalf("SaveBlender returned error: %v", err)
	}

	settings, err := config.LoadBlender(path)
	if err != nil {
		t.Fatalf("LoadBlender returned error: %v", err)
	}
	if settings.BlenderPath != "/usr/bin/blender" {
		t.Fatalf("unexpected blender path after round trip: %q", settings.BlenderPath)
	}
}

func TestBlenderSettingsValidate(t *testing.T) {
	if err := (config.BlenderSettings{}).Validate(); err == nil {
		t.Fatal("expected error for unset blender path")
	}

	missing := config.BlenderSettings{BlenderPath: filepath.Join(t.TempDir(), "nope")}
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error for nonexistent blender path")
	}

	dir := config.BlenderSettings{BlenderPath: t.TempDir()}
	if err := dir.Validate(); err == nil {
		t.Fatal("expected error for directory blender path")
	}

	binary := filepath.Join(t.TempDir(), "blender")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	valid := config.BlenderSettings{BlenderPath: binary}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid settings, got error: %v", err)
	}
}
