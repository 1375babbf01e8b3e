package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"picksheet/pkg/config"
	"picksheet/pkg/logger"

	"go.uber.org/zap"
)

const (
	wechatMsgText       = "text"
	wechatMsgMarkdownV2 = "markdown_v2"
)

type wechatMessage struct {
	MsgType    string          `json:"msgtype"`
	Text       *wechatText     `json:"text,omitempty"`
	MarkdownV2 *wechatMarkdown `json:"markdown_v2,omitempty"`
}

type wechatText struct {
	Content       string   `json:"content"`
	MentionedList []string `json:"mentioned_list,omitempty"`
}

type wechatMarkdown struct {
	Content string `json:"content"`
}

type wechatResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// WeChatNotifier posts scan summaries to a WeChat Work group robot webhook
type WeChatNotifier struct {
	webhookURL   string
	httpClient   *http.Client
	maxRetries   int
	retryDelay   time.Duration
	mentionUsers []string
}

// NewWeChatNotifier creates a webhook notifier from configuration
func NewWeChatNotifier(cfg *config.WeChatConfig) *WeChatNotifier {
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	delay := time.Duration(cfg.RetryDelay) * time.Second
	if delay <= 0 {
		delay = 2 * time.Second
	}

	return &WeChatNotifier{
		webhookURL:   cfg.WebhookURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		maxRetries:   retries,
		retryDelay:   delay,
		mentionUsers: cfg.MentionUsers,
	}
}

func (w *WeChatNotifier) Name() string { return "wechat" }

// NotifyScan sends the summary as markdown_v2, followed by a text message carrying
// the mentions when users are configured.
func (w *WeChatNotifier) NotifyScan(ctx context.Context, summary *ScanSummary) error {
	msg := &wechatMessage{
		MsgType:    wechatMsgMarkdownV2,
		MarkdownV2: &wechatMarkdown{Content: formatMarkdown(summary)},
	}
	if err := w.send(ctx, msg); err != nil {
		return err
	}

	if len(w.mentionUsers) == 0 || len(summary.Failed) == 0 {
		return nil
	}
	return w.send(ctx, &wechatMessage{
		MsgType: wechatMsgText,
		Text: &wechatText{
			Content:       fmt.Sprintf("%d document(s) failed in inbox %s", len(summary.Failed), summary.Job),
			MentionedList: w.mentionUsers,
		},
	})
}

// send posts msg, retrying with a fixed delay
func (w *WeChatNotifier) send(ctx context.Context, msg *wechatMessage) error {
	var lastErr error

	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.retryDelay):
			}
		}

		err := w.doSend(ctx, msg)
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt < w.maxRetries {
			logger.Warn("WeChat notification failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", w.maxRetries),
				zap.Duration("delay", w.retryDelay),
				zap.Error(err))
		}
	}

	return &RetryError{Attempts: w.maxRetries + 1, LastErr: lastErr}
}

func (w *WeChatNotifier) doSend(ctx context.Context, msg *wechatMessage) error {
	if w.webhookURL == "" {
		return fmt.Errorf("%w: wechat webhook URL", ErrNotConfigured)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	var webhookResp wechatResponse
	if err := json.Unmarshal(body, &webhookResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if webhookResp.ErrCode != 0 {
		return fmt.Errorf("%w: %d %s", ErrAPIError, webhookResp.ErrCode, webhookResp.ErrMsg)
	}

	return nil
}
