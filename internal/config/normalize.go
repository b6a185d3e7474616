package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.WatchDir = strings.TrimSpace(c.Paths.WatchDir)
	if c.Paths.WatchDir != "" {
		if c.Paths.WatchDir, err = expandPath(c.Paths.WatchDir); err != nil {
			return fmt.Errorf("paths.watch_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.BlenderConfig) == "" {
		c.Paths.BlenderConfig = defaultBlenderConfig
	}
	if c.Paths.BlenderConfig, err = expandPath(c.Paths.BlenderConfig); err != nil {
		return fmt.Errorf("paths.blender_config: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.FilenamePrefix = strings.TrimSpace(c.Render.FilenamePrefix)
	if c.Render.FilenamePrefix == "" {
		c.Render.FilenamePrefix = defaultFilenamePrefix
	}
	if c.Render.ProbeTimeout <= 0 {
		c.Render.ProbeTimeout = defaultProbeTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = defaultHeartbeatTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
