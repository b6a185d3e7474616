package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRender() error {
	prefix := c.Render.FilenamePrefix
	if strings.ContainsAny(prefix, "/\\") {
		return fmt.Errorf("render.filename_prefix %q must not contain path separators", prefix)
	}
	if strings.ContainsFunc(prefix, unicode.IsSpace) {
		return fmt.Errorf("render.filename_prefix %q must not contain whitespace", prefix)
	}
	if c.Render.ProbeTimeout <= 0 {
		return errors.New("render.probe_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WatchDir != "" && c.Paths.WatchDir == c.Paths.DataDir {
		return errors.New("paths.watch_dir must not be the data directory")
	}
	return nil
}
