package tasks

import (
	"context"
	"time"

	"picksheet/pkg/labels"
)

// RunStatus represents the status of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Triggers recorded with each run.
const (
	TriggerCLI       = "cli"
	TriggerHTTP      = "http"
	TriggerScheduler = "scheduler"
)

// Request describes one document to process.
type Request struct {
	ID      string `json:"id"`
	Trigger string `json:"trigger"`
	Source  string `json:"source"`

	// Exactly one of Text and InputPath is used; Text wins when both are set.
	Text      string `json:"-"`
	InputPath string `json:"input_path,omitempty"`

	// Reports are written only for the paths that are set.
	OutputPath  string `json:"output_path,omitempty"`
	PreviewPath string `json:"preview_path,omitempty"`
}

// Run represents a running or completed pipeline invocation
type Run struct {
	ID         string         `json:"id"`
	Trigger    string         `json:"trigger"`
	Source     string         `json:"source"`
	Status     RunStatus      `json:"status"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Duration   time.Duration  `json:"duration"`
	OutputPath string         `json:"output_path,omitempty"`
	Result     *labels.Result `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// snapshot copies the run so callers can read it without holding the manager lock.
// Result is shared; it is never modified once set.
func (r *Run) snapshot() *Run {
	cp := *r
	return &cp
}

// Summary is a copy of the run without the parsed records.
func (r *Run) Summary() RunSummary {
	s := RunSummary{
		ID:         r.ID,
		Trigger:    r.Trigger,
		Source:     r.Source,
		Status:     r.Status,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		DurationMS: r.Duration.Milliseconds(),
		OutputPath: r.OutputPath,
		Error:      r.Error,
	}
	if r.Result != nil {
		s.Segments = r.Result.Segments
		s.Records = len(r.Result.Records)
		s.Products = len(r.Result.Counts)
		s.Skipped = len(r.Result.Skipped)
	}
	return s
}

// RunSummary is the externally visible state of a run.
type RunSummary struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	Source     string    `json:"source"`
	Status     RunStatus `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	DurationMS int64     `json:"duration_ms"`
	Segments   int       `json:"segments"`
	Records    int       `json:"records"`
	Products   int       `json:"products"`
	Skipped    int       `json:"skipped"`
	OutputPath string    `json:"output_path,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type triggerKey struct{}

// WithTrigger records who started the runs made with ctx.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

func triggerFrom(ctx context.Context) string {
	if t, ok := ctx.Value(triggerKey{}).(string); ok && t != "" {
		return t
	}
	return TriggerCLI
}
