package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"kiln/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.BlenderConfig = filepath.Join(base, "config.json")
	cfgVal.Paths.WatchDir = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWatchDir enables the watch folder at the given path, creating it.
func WithWatchDir(path string) ConfigOption {
	return func(b *configBuilder) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			b.t.Fatalf("mkdir watch dir: %v", err)
		}
		b.cfg.Paths.WatchDir = path
	}
}

// WithFilenamePrefix overrides the rendered frame filename prefix.
func WithFilenamePrefix(prefix string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.FilenamePrefix = prefix
	}
}

// WithBlenderPath writes a Blender settings file pointing at the given
// executable path.
func WithBlenderPath(path string) ConfigOption {
	return func(b *configBuilder) {
		if err := config.SaveBlender(b.cfg.Paths.BlenderConfig, config.BlenderSettings{BlenderPath: path}); err != nil {
			b.t.Fatalf("write blender settings: %v", err)
		}
	}
}

// WithConfiguredRenderer writes a stub renderer executable under the test's
// bin directory and points the Blender settings file at it, so scene
// submissions pass the renderer configuration gate.
func WithConfiguredRenderer() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "blender")
		if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			b.t.Fatalf("write stub blender: %v", err)
		}
		if err := config.SaveBlender(b.cfg.Paths.BlenderConfig, config.BlenderSettings{BlenderPath: target}); err != nil {
			b.t.Fatalf("write blender settings: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, a blender stub is written.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"blender"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
