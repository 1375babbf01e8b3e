package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"picksheet/pkg/labels"
	"picksheet/pkg/report"
)

// ParserConfig controls how a document is cut into segments and how labels are matched.
type ParserConfig struct {
	BoundaryMarker   string               `json:"boundary_marker" yaml:"boundary_marker"`
	MinSegmentLength int                  `json:"min_segment_length" yaml:"min_segment_length"`
	MatchTimeoutMS   int                  `json:"match_timeout_ms" yaml:"match_timeout_ms"`
	Shipper          string               `json:"shipper" yaml:"shipper"`
	Patterns         labels.PatternSource `json:"patterns" yaml:"patterns"`
}

// NewParserConfig creates a parser configuration with the DPD defaults.
func NewParserConfig() *ParserConfig {
	return &ParserConfig{
		BoundaryMarker:   getEnv("PARSER_BOUNDARY_MARKER", labels.DefaultBoundaryMarker),
		MinSegmentLength: getEnvInt("PARSER_MIN_SEGMENT_LENGTH", labels.DefaultMinSegmentLength),
		MatchTimeoutMS:   getEnvInt("PARSER_MATCH_TIMEOUT_MS", int(labels.DefaultMatchTimeout/time.Millisecond)),
		Shipper:          getEnv("PARSER_SHIPPER", labels.ShipperDPD.String()),
	}
}

// MatchTimeout returns the per-search timeout.
func (pc *ParserConfig) MatchTimeout() time.Duration {
	return time.Duration(pc.MatchTimeoutMS) * time.Millisecond
}

// BuildEngine compiles the configured patterns into a ready engine.
func (pc *ParserConfig) BuildEngine() (*labels.Engine, error) {
	shipper, err := labels.ParseShipper(pc.Shipper)
	if err != nil {
		return nil, err
	}
	patterns, err := labels.CompilePatterns(pc.Patterns, pc.MatchTimeout())
	if err != nil {
		return nil, err
	}
	parser := labels.NewParser(patterns,
		labels.WithMinSegmentLength(pc.MinSegmentLength),
		labels.WithShipper(shipper))
	return labels.NewEngine(labels.NewSplitter(pc.BoundaryMarker), parser), nil
}

// ReportConfig controls rendering of the manifest and pick sheet.
type ReportConfig struct {
	FontPath     string        `json:"font_path" yaml:"font_path"`
	FontSize     float64       `json:"font_size" yaml:"font_size"`
	PreviewWidth int           `json:"preview_width" yaml:"preview_width"`
	Labels       report.Labels `json:"labels" yaml:"labels"`
}

// NewReportConfig creates a report configuration with default values populated from environment variables
func NewReportConfig() *ReportConfig {
	return &ReportConfig{
		FontPath:     getEnv("REPORT_FONT_PATH", ""),
		FontSize:     getEnvFloat("REPORT_FONT_SIZE", report.DefaultFontSize),
		PreviewWidth: getEnvInt("REPORT_PREVIEW_WIDTH", report.DefaultPreviewWidth),
		Labels:       report.DefaultLabels(),
	}
}

// StorageConfig points at the run-history database.
type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

// NewStorageConfig creates a storage configuration with default values populated from environment variables
func NewStorageConfig() *StorageConfig {
	return &StorageConfig{
		Driver: getEnv("STORAGE_DRIVER", "sqlite"),
		DSN:    getEnv("STORAGE_DSN", "picksheet.db"),
	}
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// NewMetricsConfig creates a metrics configuration with default values populated from environment variables
func NewMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled: getEnvBool("METRICS_ENABLED", true),
		Path:    getEnv("METRICS_PATH", "/metrics"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
