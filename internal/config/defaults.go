package config

const (
	defaultDataDir           = "~/.local/share/kiln"
	defaultLogDir            = "~/.local/share/kiln/logs"
	defaultBlenderConfig     = "~/.config/kiln/config.json"
	defaultFilenamePrefix    = "frame_"
	defaultProbeTimeout      = 120
	defaultQueuePollInterval = 2
	defaultHeartbeatInterval = 15
	defaultHeartbeatTimeout  = 120
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			BlenderConfig: defaultBlenderConfig,
		},
		Render: Render{
			FilenamePrefix: defaultFilenamePrefix,
			ProbeTimeout:   defaultProbeTimeout,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
			HeartbeatInterval: defaultHeartbeatInterval,
			HeartbeatTimeout:  defaultHeartbeatTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Queue:          true,
			Renders:        true,
			Crashes:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
