package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kiln/internal/config"
)

func TestProbeMissingScene(t *testing.T) {
	env := setupCLITestEnv(t)

	missing := filepath.Join(env.baseDir, "ghost.blend")
	_, _, err := runCLI(t, []string{"probe", missing}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "scene file does not exist") {
		t.Fatalf("expected missing scene error, got %v", err)
	}
}

func TestProbeRequiresRenderer(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := config.SaveBlender(env.cfg.Paths.BlenderConfig, config.BlenderSettings{}); err != nil {
		t.Fatalf("clear blender settings: %v", err)
	}

	scenePath := filepath.Join(env.baseDir, "probe_me.blend")
	if err := os.WriteFile(scenePath, []byte("BLENDER"), 0o644); err != nil {
		t.Fatalf("write scene: %v", err)
	}

	_, _, err := runCLI(t, []string{"probe", scenePath}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "renderer not configured") {
		t.Fatalf("expected renderer error, got %v", err)
	}
}
