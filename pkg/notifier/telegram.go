package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"picksheet/pkg/config"
	"picksheet/pkg/logger"

	"go.uber.org/zap"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier sends scan summaries through the Telegram bot API
type TelegramNotifier struct {
	botToken   string
	chatID     string
	apiBase    string
	httpClient *http.Client
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(cfg *config.TelegramConfig) *TelegramNotifier {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramNotifier{
		botToken:   cfg.BotToken,
		chatID:     cfg.ChatID,
		apiBase:    telegramAPIBase,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// NotifyScan sends the summary as a Markdown message
func (t *TelegramNotifier) NotifyScan(ctx context.Context, summary *ScanSummary) error {
	if t.botToken == "" || t.chatID == "" {
		return fmt.Errorf("%w: telegram bot token or chat id", ErrNotConfigured)
	}

	return t.send(ctx, &telegramMessage{
		ChatID:    t.chatID,
		Text:      formatMarkdown(summary),
		ParseMode: "Markdown",
	})
}

func (t *TelegramNotifier) send(ctx context.Context, message *telegramMessage) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var telegramResp telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&telegramResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !telegramResp.OK {
		return fmt.Errorf("%w: %s (code: %d)", ErrAPIError, telegramResp.Description, telegramResp.ErrorCode)
	}

	logger.Debug("Telegram message sent", zap.String("chat_id", message.ChatID))
	return nil
}
