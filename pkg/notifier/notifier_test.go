package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"picksheet/pkg/config"
	"picksheet/pkg/labels"
)

func testSummary() *ScanSummary {
	return &ScanSummary{
		Job:       "warehouse",
		Processed: []string{"monday.pdf"},
		Failed:    []string{"broken.pdf"},
		Counts: []labels.ProductCount{
			{Product: labels.ShoeIdentity{Name: "Dunk Low 'UCLA'", Size: "9 US M", SKU: "DD1391 402", Condition: "New"}, Count: 2},
		},
		At: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}
}

func TestFormatMarkdown(t *testing.T) {
	out := formatMarkdown(testSummary())
	for _, want := range []string{"Inbox warehouse", "parcels: 2", "| 2 | Dunk Low 'UCLA' | 9 US M | DD1391 402 |", "- broken.pdf"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestWeChatNotifier(t *testing.T) {
	var got []wechatMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg wechatMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decode: %v", err)
		}
		got = append(got, msg)
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	n := NewWeChatNotifier(&config.WeChatConfig{WebhookURL: srv.URL, MentionUsers: []string{"@all"}})
	if err := n.NotifyScan(context.Background(), testSummary()); err != nil {
		t.Fatalf("NotifyScan: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected markdown and mention messages, got %d", len(got))
	}
	if got[0].MsgType != wechatMsgMarkdownV2 || got[0].MarkdownV2 == nil {
		t.Errorf("first message should be markdown_v2, got %+v", got[0])
	}
	if got[1].MsgType != wechatMsgText || got[1].Text.MentionedList[0] != "@all" {
		t.Errorf("second message should mention users, got %+v", got[1])
	}
}

func TestWeChatNotifierRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	n := NewWeChatNotifier(&config.WeChatConfig{WebhookURL: srv.URL, MaxRetries: 2})
	n.retryDelay = time.Millisecond

	if err := n.NotifyScan(context.Background(), testSummary()); err != nil {
		t.Fatalf("NotifyScan: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
}

func TestWeChatNotifierAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errcode":93000,"errmsg":"invalid webhook url"}`))
	}))
	defer srv.Close()

	n := NewWeChatNotifier(&config.WeChatConfig{WebhookURL: srv.URL, MaxRetries: 1})
	n.retryDelay = time.Millisecond

	err := n.NotifyScan(context.Background(), testSummary())
	var retryErr *RetryError
	if !errors.As(err, &retryErr) {
		t.Fatalf("expected RetryError, got %v", err)
	}
	if retryErr.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", retryErr.Attempts)
	}
	if !errors.Is(err, ErrAPIError) {
		t.Errorf("expected ErrAPIError in chain, got %v", err)
	}
}

func TestTelegramNotifier(t *testing.T) {
	var path string
	var msg telegramMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&msg)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(&config.TelegramConfig{BotToken: "123:abc", ChatID: "42"})
	n.apiBase = srv.URL

	if err := n.NotifyScan(context.Background(), testSummary()); err != nil {
		t.Fatalf("NotifyScan: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Errorf("unexpected path %q", path)
	}
	if msg.ChatID != "42" || msg.ParseMode != "Markdown" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestTelegramNotifierNotConfigured(t *testing.T) {
	n := NewTelegramNotifier(&config.TelegramConfig{})
	if err := n.NotifyScan(context.Background(), testSummary()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

type stubNotifier struct {
	name string
	err  error
	hits int
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) NotifyScan(context.Context, *ScanSummary) error {
	s.hits++
	return s.err
}

func TestMultiTriesEveryNotifier(t *testing.T) {
	boom := errors.New("boom")
	a := &stubNotifier{name: "a", err: boom}
	b := &stubNotifier{name: "b"}

	err := Multi{a, b}.NotifyScan(context.Background(), testSummary())
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if a.hits != 1 || b.hits != 1 {
		t.Errorf("every notifier should be called once: a=%d b=%d", a.hits, b.hits)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.WeChat.Enabled = false
	cfg.Telegram.Enabled = false
	if n := FromConfig(cfg); n != nil {
		t.Fatalf("expected nil notifier, got %v", n.Name())
	}

	cfg.WeChat.Enabled = true
	cfg.WeChat.WebhookURL = "http://example.invalid"
	n := FromConfig(cfg)
	if n == nil || n.Name() != "wechat" {
		t.Fatalf("expected wechat notifier, got %v", n)
	}
}
