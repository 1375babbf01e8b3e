package config

import (
	"fmt"
	"path/filepath"
)

// DefaultReportsDir is the inbox subdirectory that receives pick sheets when a job
// has no output directory of its own.
const DefaultReportsDir = "reports"

// SchedulerConfig represents the scheduler configuration
type SchedulerConfig struct {
	Enabled bool           `json:"enabled" yaml:"enabled"`
	Jobs    []ScheduledJob `json:"jobs" yaml:"jobs"`
}

// ScheduledJob watches one inbox directory on a cron schedule.
type ScheduledJob struct {
	Name      string `json:"name" yaml:"name"`
	Cron      string `json:"cron" yaml:"cron"`
	InboxDir  string `json:"inbox_dir" yaml:"inbox_dir"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	Preview   bool   `json:"preview" yaml:"preview"`
}

// RuntimeConfig represents runtime configuration settings
type RuntimeConfig struct {
	MaxConcurrentTasks      int `json:"max_concurrent_tasks" yaml:"max_concurrent_tasks"`
	TaskTimeout             int `json:"task_timeout" yaml:"task_timeout"`                           // seconds
	GracefulShutdownTimeout int `json:"graceful_shutdown_timeout" yaml:"graceful_shutdown_timeout"` // seconds
}

// ServerConfig represents server configuration settings
type ServerConfig struct {
	Port           int      `json:"port" yaml:"port"`
	Address        string   `json:"address" yaml:"address"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
	RateLimit      float64  `json:"rate_limit" yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst      int      `json:"rate_burst" yaml:"rate_burst"`
	MaxUploadMB    int      `json:"max_upload_mb" yaml:"max_upload_mb"`
}

// AppConfig represents application configuration settings
type AppConfig struct {
	LogLevel    string `json:"log_level" yaml:"log_level"`
	LogFile     string `json:"log_file" yaml:"log_file"`
	Environment string `json:"environment" yaml:"environment"`
}

// NewSchedulerConfig creates a scheduler configuration with default values populated from environment variables
func NewSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Enabled: getEnvBool("SCHEDULER_ENABLED", false),
		Jobs:    []ScheduledJob{},
	}
}

// NewRuntimeConfig creates a runtime configuration with default values populated from environment variables
func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		MaxConcurrentTasks:      getEnvInt("RUNTIME_MAX_CONCURRENT_TASKS", 3),
		TaskTimeout:             getEnvInt("RUNTIME_TASK_TIMEOUT", 120),
		GracefulShutdownTimeout: getEnvInt("RUNTIME_GRACEFUL_SHUTDOWN_TIMEOUT", 30),
	}
}

// NewServerConfig creates a server configuration with default values populated from environment variables
func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvInt("SERVER_PORT", 8080),
		Address:        getEnv("SERVER_ADDRESS", "0.0.0.0"),
		AllowedOrigins: parseStringList(getEnv("SERVER_ALLOWED_ORIGINS", "*")),
		RateLimit:      getEnvFloat("SERVER_RATE_LIMIT", 10),
		RateBurst:      getEnvInt("SERVER_RATE_BURST", 20),
		MaxUploadMB:    getEnvInt("SERVER_MAX_UPLOAD_MB", 32),
	}
}

// NewAppConfig creates an application configuration with default values populated from environment variables
func NewAppConfig() *AppConfig {
	return &AppConfig{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		Environment: getEnv("APP_ENV", "production"),
	}
}

// Validate validates the scheduler configuration
func (sc *SchedulerConfig) Validate() error {
	if !sc.Enabled {
		return nil // skip validation if not enabled
	}

	names := make(map[string]struct{}, len(sc.Jobs))
	for i := range sc.Jobs {
		job := &sc.Jobs[i]
		if err := job.Validate(); err != nil {
			return fmt.Errorf("job[%d]: %w", i, err)
		}
		if _, dup := names[job.Name]; dup {
			return fmt.Errorf("job[%d]: %w: duplicate name %q", i, ErrInvalidValue, job.Name)
		}
		names[job.Name] = struct{}{}
	}

	return nil
}

// Validate validates a single scheduled job
func (sj *ScheduledJob) Validate() error {
	if sj.Name == "" {
		return fmt.Errorf("%w: name", ErrMissingRequired)
	}

	if sj.Cron == "" {
		return fmt.Errorf("%w: cron", ErrMissingRequired)
	}

	if !isValidCronExpression(sj.Cron) {
		return fmt.Errorf("%w: %s", ErrInvalidCron, sj.Cron)
	}

	if sj.InboxDir == "" {
		return fmt.Errorf("%w: inbox_dir", ErrMissingRequired)
	}

	if sj.OutputDir == "" {
		sj.OutputDir = filepath.Join(sj.InboxDir, DefaultReportsDir)
	}

	return nil
}

// Validate validates runtime configuration
func (rc *RuntimeConfig) Validate() error {
	if rc.MaxConcurrentTasks <= 0 {
		rc.MaxConcurrentTasks = 3
	}

	if rc.TaskTimeout <= 0 {
		rc.TaskTimeout = 120
	}

	if rc.GracefulShutdownTimeout <= 0 {
		rc.GracefulShutdownTimeout = 30
	}

	return nil
}

// Validate validates server configuration
func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return fmt.Errorf("%w: port must be within 1-65535", ErrInvalidValue)
	}

	if sc.Address == "" {
		sc.Address = "0.0.0.0"
	}

	if sc.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit", ErrInvalidValue)
	}

	if sc.RateLimit > 0 && sc.RateBurst <= 0 {
		sc.RateBurst = int(sc.RateLimit) + 1
	}

	if sc.MaxUploadMB <= 0 {
		sc.MaxUploadMB = 32
	}

	return nil
}

// Validate validates application configuration
func (ac *AppConfig) Validate() error {
	if ac.LogLevel != "" {
		validLevels := []string{"debug", "info", "warn", "error", "fatal"}
		if !isValidValue(ac.LogLevel, validLevels) {
			return fmt.Errorf("%w: log_level must be one of %v", ErrInvalidValue, validLevels)
		}
	}

	return nil
}

// IsDevelopment reports whether console-only development logging is wanted.
func (ac *AppConfig) IsDevelopment() bool {
	return ac.Environment == "development" || ac.Environment == "dev"
}
