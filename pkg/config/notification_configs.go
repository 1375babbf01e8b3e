package config

import "fmt"

// WeChatConfig 企业微信机器人通知配置
type WeChatConfig struct {
	WebhookURL   string   `json:"webhook_url" yaml:"webhook_url"`
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	MentionUsers []string `json:"mention_users" yaml:"mention_users"`
	MaxRetries   int      `json:"max_retries" yaml:"max_retries"`
	RetryDelay   int      `json:"retry_delay" yaml:"retry_delay"` // seconds
}

// TelegramConfig Telegram bot 通知配置
type TelegramConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	BotToken string `json:"bot_token" yaml:"bot_token"`
	ChatID   string `json:"chat_id" yaml:"chat_id"`
	Timeout  int    `json:"timeout" yaml:"timeout"` // seconds
}

// NewWeChatConfig 创建微信配置，使用环境变量填充默认值
func NewWeChatConfig() *WeChatConfig {
	return &WeChatConfig{
		WebhookURL:   getEnv("WECHAT_WEBHOOK_URL", ""),
		Enabled:      getEnvBool("WECHAT_ENABLED", false),
		MentionUsers: parseStringList(getEnv("WECHAT_MENTION_USERS", "")),
		MaxRetries:   getEnvInt("WECHAT_MAX_RETRIES", 3),
		RetryDelay:   getEnvInt("WECHAT_RETRY_DELAY", 2),
	}
}

// NewTelegramConfig creates a Telegram configuration from environment defaults
func NewTelegramConfig() *TelegramConfig {
	return &TelegramConfig{
		Enabled:  getEnvBool("TELEGRAM_ENABLED", false),
		BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		Timeout:  getEnvInt("TELEGRAM_TIMEOUT", 10),
	}
}

// Validate 验证微信配置
func (wc *WeChatConfig) Validate() error {
	if !wc.Enabled {
		return nil
	}

	if wc.WebhookURL == "" {
		return fmt.Errorf("%w: webhook_url", ErrMissingRequired)
	}

	if wc.MaxRetries < 0 {
		wc.MaxRetries = 3
	}

	if wc.RetryDelay <= 0 {
		wc.RetryDelay = 2
	}

	return nil
}

// Validate checks the Telegram section when it is enabled
func (tc *TelegramConfig) Validate() error {
	if !tc.Enabled {
		return nil
	}

	if tc.BotToken == "" {
		return fmt.Errorf("%w: bot_token", ErrMissingRequired)
	}
	if tc.ChatID == "" {
		return fmt.Errorf("%w: chat_id", ErrMissingRequired)
	}
	if tc.Timeout <= 0 {
		tc.Timeout = 10
	}

	return nil
}
