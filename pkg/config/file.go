package config

// Config 主配置结构体
type Config struct {
	App       *AppConfig       `json:"app" yaml:"app"`
	Parser    *ParserConfig    `json:"parser" yaml:"parser"`
	Report    *ReportConfig    `json:"report" yaml:"report"`
	Server    *ServerConfig    `json:"server" yaml:"server"`
	Scheduler *SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Runtime   *RuntimeConfig   `json:"runtime" yaml:"runtime"`
	Storage   *StorageConfig   `json:"storage" yaml:"storage"`
	Metrics   *MetricsConfig   `json:"metrics" yaml:"metrics"`
	WeChat    *WeChatConfig    `json:"wechat" yaml:"wechat"`
	Telegram  *TelegramConfig  `json:"telegram" yaml:"telegram"`
}

// Default 获取默认配置，所有配置项都使用各自的默认值
func Default() *Config {
	return &Config{
		App:       NewAppConfig(),
		Parser:    NewParserConfig(),
		Report:    NewReportConfig(),
		Server:    NewServerConfig(),
		Scheduler: NewSchedulerConfig(),
		Runtime:   NewRuntimeConfig(),
		Storage:   NewStorageConfig(),
		Metrics:   NewMetricsConfig(),
		WeChat:    NewWeChatConfig(),
		Telegram:  NewTelegramConfig(),
	}
}

// fillDefaults replaces sections missing from a config file with their defaults.
func (c *Config) fillDefaults() {
	if c.App == nil {
		c.App = NewAppConfig()
	}
	if c.Parser == nil {
		c.Parser = NewParserConfig()
	}
	if c.Report == nil {
		c.Report = NewReportConfig()
	}
	if c.Server == nil {
		c.Server = NewServerConfig()
	}
	if c.Scheduler == nil {
		c.Scheduler = NewSchedulerConfig()
	}
	if c.Runtime == nil {
		c.Runtime = NewRuntimeConfig()
	}
	if c.Storage == nil {
		c.Storage = NewStorageConfig()
	}
	if c.Metrics == nil {
		c.Metrics = NewMetricsConfig()
	}
	if c.WeChat == nil {
		c.WeChat = NewWeChatConfig()
	}
	if c.Telegram == nil {
		c.Telegram = NewTelegramConfig()
	}
}
