package config

import (
	"fmt"

	"picksheet/pkg/labels"

	"github.com/robfig/cron/v3"
)

// ValidateConfig 验证完整的配置
func (c *Config) ValidateConfig() error {
	c.fillDefaults()

	if err := c.App.Validate(); err != nil {
		return err
	}

	if err := c.Parser.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrParserConfig, err)
	}

	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrReportConfig, err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrServerConfig, err)
	}

	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrSchedulerConfig, err)
	}

	if err := c.Runtime.Validate(); err != nil {
		return err
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageConfig, err)
	}

	if err := c.WeChat.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotifierConfig, err)
	}

	if err := c.Telegram.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotifierConfig, err)
	}

	return nil
}

// Validate checks the parser section and fills zero values with defaults. Pattern
// overrides are compiled so a broken expression is rejected at startup.
func (pc *ParserConfig) Validate() error {
	if pc.BoundaryMarker == "" {
		pc.BoundaryMarker = labels.DefaultBoundaryMarker
	}

	if pc.MinSegmentLength < 0 {
		return fmt.Errorf("%w: min_segment_length must not be negative", ErrInvalidValue)
	}

	if pc.MatchTimeoutMS < 0 {
		return fmt.Errorf("%w: match_timeout_ms must not be negative", ErrInvalidValue)
	}
	if pc.MatchTimeoutMS == 0 {
		pc.MatchTimeoutMS = int(labels.DefaultMatchTimeout.Milliseconds())
	}

	if pc.Shipper == "" {
		pc.Shipper = labels.ShipperDPD.String()
	}
	if _, err := labels.ParseShipper(pc.Shipper); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	if _, err := labels.CompilePatterns(pc.Patterns, pc.MatchTimeout()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	return nil
}

// Validate checks the report section.
func (rc *ReportConfig) Validate() error {
	if rc.FontSize < 0 || rc.PreviewWidth < 0 {
		return ErrInvalidValue
	}
	rc.Labels = rc.Labels.WithDefaults()
	return nil
}

// Validate checks the storage section. Only sqlite is wired.
func (sc *StorageConfig) Validate() error {
	if sc.Driver == "" {
		sc.Driver = "sqlite"
	}
	if sc.Driver != "sqlite" {
		return fmt.Errorf("%w: driver must be 'sqlite'", ErrInvalidValue)
	}
	if sc.DSN == "" {
		return fmt.Errorf("%w: dsn", ErrMissingRequired)
	}
	return nil
}

// 工具函数：检查值是否在有效列表中
func isValidValue(value string, validValues []string) bool {
	for _, valid := range validValues {
		if value == valid {
			return true
		}
	}
	return false
}

// isValidCronExpression accepts the standard five-field format and descriptors such as @daily.
func isValidCronExpression(expr string) bool {
	_, err := cron.ParseStandard(expr)
	return err == nil
}
