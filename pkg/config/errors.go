package config

import "errors"

// Configuration-related error definitions using sentinel errors pattern
var (
	// Generic errors
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrInvalidFormat  = errors.New("invalid configuration file format")

	// Configuration validation errors
	ErrMissingRequired = errors.New("missing required configuration item")
	ErrInvalidValue    = errors.New("invalid configuration value")

	// Section errors
	ErrParserConfig    = errors.New("parser configuration error")
	ErrReportConfig    = errors.New("report configuration error")
	ErrStorageConfig   = errors.New("storage configuration error")
	ErrServerConfig    = errors.New("server configuration error")
	ErrSchedulerConfig = errors.New("scheduler configuration error")
	ErrNotifierConfig  = errors.New("notification configuration error")
	ErrInvalidCron     = errors.New("invalid Cron expression")
)
