package config

const (
	defaultStagingDir           = "~/.local/share/fingersatz/staging"
	defaultOutputDir            = "~/fingersatz/output"
	defaultLogDir               = "~/.local/share/fingersatz/logs"
	defaultDatabaseDir          = "~/.local/share/fingersatz"
	defaultAPIBind              = "127.0.0.1:7528"
	defaultEngineBinary         = "pianoplayer"
	defaultEngineTimeout        = 300
	defaultHandSize             = "M"
	defaultRightPart            = 0
	defaultLeftPart             = 1
	defaultOutputFormat         = "musicxml"
	defaultDeliveryMode         = "local"
	defaultPresignExpirySeconds = 3600
	defaultObjectStoreRegion    = "us-east-1"
	defaultEventsTopic          = "fingersatz-uploads"
	defaultEventsGroupID        = "fingersatz"
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:  defaultStagingDir,
			OutputDir:   defaultOutputDir,
			LogDir:      defaultLogDir,
			DatabaseDir: defaultDatabaseDir,
			APIBind:     defaultAPIBind,
		},
		Engine: Engine{
			Binary:         defaultEngineBinary,
			TimeoutSeconds: defaultEngineTimeout,
		},
		Processing: Processing{
			HandSize:     defaultHandSize,
			RightPart:    defaultRightPart,
			LeftPart:     defaultLeftPart,
			OutputFormat: defaultOutputFormat,
		},
		Delivery: Delivery{
			Mode:                 defaultDeliveryMode,
			PresignExpirySeconds: defaultPresignExpirySeconds,
		},
		ObjectStore: ObjectStore{
			Region: defaultObjectStoreRegion,
		},
		Events: Events{
			Topic:   defaultEventsTopic,
			GroupID: defaultEventsGroupID,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
