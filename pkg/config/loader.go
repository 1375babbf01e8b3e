package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadConfig 从指定路径加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	// 如果配置文件不存在，返回默认配置
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
	}

	// 解析到默认配置之上，文件中缺省的字段保留默认值
	config := Default()
	ext := filepath.Ext(configPath)

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: JSON parsing failed: %v", ErrInvalidFormat, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: YAML parsing failed: %v", ErrInvalidFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config file format: %s", ErrInvalidFormat, ext)
	}

	config.fillDefaults()
	mergeEnvVars(config)
	return config, nil
}

// SaveConfig 保存配置到指定路径
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	// 确保目录存在
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	ext := filepath.Ext(configPath)
	var data []byte
	var err error

	switch ext {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		return fmt.Errorf("%w: unsupported config file format: %s", ErrInvalidFormat, ext)
	}

	if err != nil {
		return fmt.Errorf("config serialization failed: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getDefaultConfigPath 获取默认配置文件路径
func getDefaultConfigPath() string {
	// 优先级：当前目录 > 用户配置目录 > 系统配置目录
	paths := []string{
		"./config.yaml",
		"./config.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".picksheet", "config.yaml"),
			filepath.Join(homeDir, ".picksheet", "config.json"),
		)
	}

	paths = append(paths,
		"/etc/picksheet/config.yaml",
		"/etc/picksheet/config.json",
	)

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "./config.yaml"
}

// mergeEnvVars 将环境变量合并到配置中
func mergeEnvVars(config *Config) {
	mergeParserEnvVars(config)
	mergeReportEnvVars(config)
	mergeServerEnvVars(config)
	mergeSchedulerEnvVars(config)
	mergeRuntimeEnvVars(config)
	mergeStorageEnvVars(config)
	mergeMetricsEnvVars(config)
	mergeNotifierEnvVars(config)
	mergeAppEnvVars(config)
}

func mergeParserEnvVars(config *Config) {
	pc := config.Parser

	if marker := os.Getenv("PARSER_BOUNDARY_MARKER"); marker != "" {
		pc.BoundaryMarker = marker
	}
	if n := getEnvInt("PARSER_MIN_SEGMENT_LENGTH", -1); n >= 0 {
		pc.MinSegmentLength = n
	}
	if ms := getEnvInt("PARSER_MATCH_TIMEOUT_MS", 0); ms > 0 {
		pc.MatchTimeoutMS = ms
	}
	if shipper := os.Getenv("PARSER_SHIPPER"); shipper != "" {
		pc.Shipper = shipper
	}
}

func mergeReportEnvVars(config *Config) {
	if fontPath := os.Getenv("REPORT_FONT_PATH"); fontPath != "" {
		config.Report.FontPath = fontPath
	}
	if size := getEnvFloat("REPORT_FONT_SIZE", 0); size > 0 {
		config.Report.FontSize = size
	}
	if width := getEnvInt("REPORT_PREVIEW_WIDTH", 0); width > 0 {
		config.Report.PreviewWidth = width
	}
}

// mergeServerEnvVars 合并Server环境变量
func mergeServerEnvVars(config *Config) {
	if port := getEnvInt("SERVER_PORT", 0); port != 0 {
		config.Server.Port = port
	}
	if address := os.Getenv("SERVER_ADDRESS"); address != "" {
		config.Server.Address = address
	}
	if origins := os.Getenv("SERVER_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = parseStringList(origins)
	}
	if rps := getEnvFloat("SERVER_RATE_LIMIT", 0); rps > 0 {
		config.Server.RateLimit = rps
	}
}

// mergeSchedulerEnvVars 合并Scheduler环境变量
func mergeSchedulerEnvVars(config *Config) {
	if enabled := os.Getenv("SCHEDULER_ENABLED"); enabled != "" {
		config.Scheduler.Enabled = enabled == "true" || enabled == "1"
	}
}

// mergeRuntimeEnvVars 合并Runtime环境变量
func mergeRuntimeEnvVars(config *Config) {
	if maxTasks := getEnvInt("RUNTIME_MAX_CONCURRENT_TASKS", 0); maxTasks != 0 {
		config.Runtime.MaxConcurrentTasks = maxTasks
	}
	if timeout := getEnvInt("RUNTIME_TASK_TIMEOUT", 0); timeout != 0 {
		config.Runtime.TaskTimeout = timeout
	}
	if shutdownTimeout := getEnvInt("RUNTIME_GRACEFUL_SHUTDOWN_TIMEOUT", 0); shutdownTimeout != 0 {
		config.Runtime.GracefulShutdownTimeout = shutdownTimeout
	}
}

func mergeStorageEnvVars(config *Config) {
	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		config.Storage.Driver = driver
	}
	if dsn := os.Getenv("STORAGE_DSN"); dsn != "" {
		config.Storage.DSN = dsn
	}
}

func mergeMetricsEnvVars(config *Config) {
	if enabled := os.Getenv("METRICS_ENABLED"); enabled != "" {
		config.Metrics.Enabled = enabled == "true" || enabled == "1"
	}
	if path := os.Getenv("METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}
}

// mergeNotifierEnvVars 合并通知环境变量
func mergeNotifierEnvVars(config *Config) {
	wc := config.WeChat
	if url := os.Getenv("WECHAT_WEBHOOK_URL"); url != "" {
		wc.WebhookURL = url
	}
	if users := os.Getenv("WECHAT_MENTION_USERS"); users != "" {
		wc.MentionUsers = parseStringList(users)
	}
	if enabled := os.Getenv("WECHAT_ENABLED"); enabled != "" {
		wc.Enabled = enabled == "true" || enabled == "1"
	}

	tc := config.Telegram
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		tc.BotToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		tc.ChatID = chatID
	}
	if enabled := os.Getenv("TELEGRAM_ENABLED"); enabled != "" {
		tc.Enabled = enabled == "true" || enabled == "1"
	}
}

// mergeAppEnvVars 合并App环境变量
func mergeAppEnvVars(config *Config) {
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.App.LogLevel = logLevel
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		config.App.LogFile = logFile
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Environment = env
	}
}
