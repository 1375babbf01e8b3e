package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"picksheet/pkg/config"
	"picksheet/pkg/labels"
)

// Notifier delivers a scan summary to an operator channel.
type Notifier interface {
	Name() string
	NotifyScan(ctx context.Context, summary *ScanSummary) error
}

// ScanSummary describes one pass over an inbox directory. It carries file names and
// product counts only, never tracking or order numbers.
type ScanSummary struct {
	Job       string
	Processed []string
	Failed    []string
	Counts    []labels.ProductCount
	At        time.Time
}

// Parcels returns the total parcel count of the scan.
func (s *ScanSummary) Parcels() int {
	return labels.TotalCount(s.Counts)
}

// Empty reports whether the scan touched no documents.
func (s *ScanSummary) Empty() bool {
	return len(s.Processed) == 0 && len(s.Failed) == 0
}

// FromConfig builds the notifiers enabled in cfg. It returns nil when none is enabled.
func FromConfig(cfg *config.Config) Notifier {
	var list Multi
	if cfg.WeChat != nil && cfg.WeChat.Enabled {
		list = append(list, NewWeChatNotifier(cfg.WeChat))
	}
	if cfg.Telegram != nil && cfg.Telegram.Enabled {
		list = append(list, NewTelegramNotifier(cfg.Telegram))
	}
	if len(list) == 0 {
		return nil
	}
	return list
}

// Multi fans a summary out to several notifiers. Every notifier is tried; failures
// are joined.
type Multi []Notifier

func (m Multi) Name() string {
	names := make([]string, len(m))
	for i, n := range m {
		names[i] = n.Name()
	}
	return strings.Join(names, ",")
}

func (m Multi) NotifyScan(ctx context.Context, summary *ScanSummary) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyScan(ctx, summary); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// formatMarkdown renders the summary as a markdown table of product counts.
func formatMarkdown(s *ScanSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Inbox %s**\n\n", s.Job)
	fmt.Fprintf(&b, "Processed: %d, failed: %d, parcels: %d\n", len(s.Processed), len(s.Failed), s.Parcels())

	if len(s.Counts) > 0 {
		b.WriteString("\n| Qty | Product | Size | SKU |\n|---:|---|---|---|\n")
		for _, c := range s.Counts {
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", c.Count, c.Product.Name, c.Product.Size, c.Product.SKU)
		}
	}

	if len(s.Failed) > 0 {
		b.WriteString("\nFailed documents:\n")
		for _, name := range s.Failed {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}

	fmt.Fprintf(&b, "\n%s", s.At.Format("2006-01-02 15:04:05"))
	return b.String()
}
