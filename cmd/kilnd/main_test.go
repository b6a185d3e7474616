package main

import "testing"

func TestParseFlagsDefaults(t *testing.T) {
	opts, configPath := parseFlags(nil)
	if opts.LogLevel != "" {
		t.Fatalf("expected empty log level, got %q", opts.LogLevel)
	}
	if configPath != "" {
		t.Fatalf("expected empty config path, got %q", configPath)
	}
}

func TestParseFlagsOverrides(t *testing.T) {
	opts, configPath := parseFlags([]string{"--config", "/tmp/kiln.toml", "--log-level", "debug"})
	if opts.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %q", opts.LogLevel)
	}
	if configPath != "/tmp/kiln.toml" {
		t.Fatalf("expected config path /tmp/kiln.toml, got %q", configPath)
	}
}
