package blender

import (
	"errors"
	"strings"
	"time"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithProbeTimeout overrides the probe deadline.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.probeTimeout = timeout
	}
}

// WithScriptDir overrides where temporary probe scripts are written.
func WithScriptDir(dir string) Option {
	return func(c *Client) {
		if dir != "" {
			c.scriptDir = dir
		}
	}
}

// Client wraps Blender CLI interactions. Renders run with no deadline; only
// probes are bounded.
type Client struct {
	binary       string
	probeTimeout time.Duration
	scriptDir    string
	exec         Executor
}

// New constructs a Blender client for the given executable path.
func New(binary string, probeTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("blender binary required")
	}
	client := &Client{
		binary:       binary,
		probeTimeout: time.Duration(probeTimeoutSeconds) * time.Second,
		exec:         commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}
