package tasks

import (
	"context"
	"io"

	"picksheet/internal/models"
	"picksheet/pkg/labels"
)

// Recorder persists the outcome of each run. history.Store implements it.
type Recorder interface {
	Start(ctx context.Context, runID, source, trigger string) (*models.ReportRun, error)
	Complete(ctx context.Context, runID string, res *labels.Result, outputPath string) error
	Fail(ctx context.Context, runID string, cause error) error
}

// RunManager is what the HTTP layer and the scheduler need from the manager.
type RunManager interface {
	// Execute runs the whole pipeline for one request
	Execute(ctx context.Context, req *Request) (*Run, error)

	// RenderPDF writes the manifest and pick sheet as PDF
	RenderPDF(w io.Writer, res *labels.Result) error

	// RenderPreview writes the pick sheet as PNG
	RenderPreview(w io.Writer, res *labels.Result) error

	// GetRun returns an active or recent run
	GetRun(runID string) (*Run, error)

	// GetRuns returns all active runs
	GetRuns() []*Run

	// GetRunHistory returns recently finished runs
	GetRunHistory() []*Run

	// GetRunningCount returns the number of runs in progress
	GetRunningCount() int
}
