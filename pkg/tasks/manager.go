package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"picksheet/pkg/config"
	"picksheet/pkg/extract"
	"picksheet/pkg/labels"
	"picksheet/pkg/logger"
	"picksheet/pkg/metrics"
	"picksheet/pkg/report"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxRunHistory = 100

// Manager runs the extract, parse, aggregate and render pipeline for documents.
type Manager struct {
	engine   *labels.Engine
	pdf      report.Renderer
	preview  report.Renderer
	recorder Recorder
	metrics  *metrics.PipelineMetrics

	timeout time.Duration
	slots   chan struct{}

	runs       map[string]*Run
	runHistory []*Run
	runsMutex  sync.RWMutex
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRecorder persists every run through r.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithMetrics reports every run to pm.
func WithMetrics(pm *metrics.PipelineMetrics) Option {
	return func(m *Manager) { m.metrics = pm }
}

// WithTimeout overrides the configured task timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithEngine replaces the engine built from the parser configuration.
func WithEngine(e *labels.Engine) Option {
	return func(m *Manager) { m.engine = e }
}

// WithRenderers replaces the PDF and preview renderers.
func WithRenderers(pdf, preview report.Renderer) Option {
	return func(m *Manager) {
		m.pdf = pdf
		m.preview = preview
	}
}

// NewManager builds a manager from configuration.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger.Info("Initializing run manager",
		zap.Int("max_concurrent", cfg.Runtime.MaxConcurrentTasks),
		zap.Int("timeout_seconds", cfg.Runtime.TaskTimeout))

	m := &Manager{
		timeout: time.Duration(cfg.Runtime.TaskTimeout) * time.Second,
		runs:    make(map[string]*Run),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.engine == nil {
		engine, err := cfg.Parser.BuildEngine()
		if err != nil {
			return nil, fmt.Errorf("failed to build parser engine: %w", err)
		}
		m.engine = engine
	}

	if m.pdf == nil || m.preview == nil {
		fonts := report.NewFontManager(cfg.Report.FontPath)
		if m.pdf == nil {
			m.pdf = report.NewPDFRenderer(fonts, cfg.Report.Labels, cfg.Report.FontSize)
		}
		if m.preview == nil {
			m.preview = report.NewPreviewRenderer(fonts, cfg.Report.Labels, cfg.Report.PreviewWidth, cfg.Report.FontSize)
		}
	}

	if m.timeout <= 0 {
		m.timeout = 120 * time.Second
	}
	slots := cfg.Runtime.MaxConcurrentTasks
	if slots <= 0 {
		slots = 1
	}
	m.slots = make(chan struct{}, slots)

	return m, nil
}

// ProcessText runs the pipeline over already extracted document text.
func (m *Manager) ProcessText(ctx context.Context, source, text string) (*Run, error) {
	return m.Execute(ctx, &Request{Source: source, Text: text})
}

// ProcessFile extracts and parses the document at path.
func (m *Manager) ProcessFile(ctx context.Context, path string) (*Run, error) {
	return m.Execute(ctx, &Request{Source: filepath.Base(path), InputPath: path})
}

// Execute runs the whole pipeline for req and writes the requested reports. The
// returned run is non-nil whenever a run was started, including failed ones.
func (m *Manager) Execute(ctx context.Context, req *Request) (*Run, error) {
	if req.Text == "" && req.InputPath == "" {
		return nil, ErrEmptyInput
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Trigger == "" {
		req.Trigger = triggerFrom(ctx)
	}
	if req.Source == "" {
		req.Source = "text"
		if req.InputPath != "" {
			req.Source = filepath.Base(req.InputPath)
		}
	}

	if err := m.acquire(ctx); err != nil {
		return nil, err
	}
	held := true
	defer func() {
		if held {
			m.release()
		}
	}()

	ctx = logger.WithSource(logger.WithRunID(ctx, req.ID), req.Source)
	log := logger.FromContext(ctx)

	run := &Run{
		ID:        req.ID,
		Trigger:   req.Trigger,
		Source:    req.Source,
		Status:    RunStatusRunning,
		StartTime: time.Now(),
	}
	m.addRun(run)
	m.recordStart(ctx, run)

	log.Info("Starting run", zap.String("trigger", run.Trigger))

	runCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, handedOff, err := m.runPipeline(runCtx, req)
	held = !handedOff
	if err == nil {
		err = m.writeReports(req, res)
	}

	m.finishRun(ctx, run, req, res, err)
	return run, err
}

// RenderPDF writes the manifest and pick sheet for res as PDF.
func (m *Manager) RenderPDF(w io.Writer, res *labels.Result) error {
	return m.pdf.Render(w, res)
}

// RenderPreview writes the pick sheet for res as PNG.
func (m *Manager) RenderPreview(w io.Writer, res *labels.Result) error {
	return m.preview.Render(w, res)
}

// GetRun returns a snapshot of an active or recent run
func (m *Manager) GetRun(runID string) (*Run, error) {
	m.runsMutex.RLock()
	defer m.runsMutex.RUnlock()

	if run, exists := m.runs[runID]; exists {
		return run.snapshot(), nil
	}

	for _, run := range m.runHistory {
		if run.ID == runID {
			return run.snapshot(), nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
}

// GetRuns returns snapshots of all active runs
func (m *Manager) GetRuns() []*Run {
	m.runsMutex.RLock()
	defer m.runsMutex.RUnlock()

	runs := make([]*Run, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, run.snapshot())
	}
	return runs
}

// GetRunHistory returns snapshots of finished runs, oldest first
func (m *Manager) GetRunHistory() []*Run {
	m.runsMutex.RLock()
	defer m.runsMutex.RUnlock()

	history := make([]*Run, 0, len(m.runHistory))
	for _, run := range m.runHistory {
		history = append(history, run.snapshot())
	}
	return history
}

// GetRunningCount returns the number of runs in progress
func (m *Manager) GetRunningCount() int {
	m.runsMutex.RLock()
	defer m.runsMutex.RUnlock()
	return len(m.runs)
}

func (m *Manager) acquire(ctx context.Context) error {
	select {
	case m.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %d slots busy: %v", ErrTooManyTasks, cap(m.slots), ctx.Err())
	}
}

func (m *Manager) release() {
	<-m.slots
}

type pipelineOutput struct {
	res *labels.Result
	err error
}

// runPipeline bounds the synchronous extraction and engine call with ctx. When the
// deadline passes first the worker is abandoned and takes over the run slot, which it
// releases once the engine returns; handedOff reports that transfer.
func (m *Manager) runPipeline(ctx context.Context, req *Request) (res *labels.Result, handedOff bool, err error) {
	done := make(chan pipelineOutput, 1)

	var (
		mu        sync.Mutex
		finished  bool
		abandoned bool
	)

	go func() {
		defer func() {
			mu.Lock()
			defer mu.Unlock()
			finished = true
			if abandoned {
				logger.FromContext(ctx).Warn("Abandoned pipeline finished, releasing slot")
				m.release()
			}
		}()
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(ctx).Error("Pipeline panicked", zap.Any("panic", r))
				done <- pipelineOutput{err: fmt.Errorf("pipeline panicked: %v", r)}
			}
		}()

		text := req.Text
		if text == "" {
			ex, err := extract.ForPath(req.InputPath)
			if err != nil {
				done <- pipelineOutput{err: err}
				return
			}
			if text, err = ex.ExtractFile(req.InputPath); err != nil {
				done <- pipelineOutput{err: err}
				return
			}
		}

		res, err := m.engine.Run(text)
		done <- pipelineOutput{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, false, out.err
	case <-ctx.Done():
		mu.Lock()
		if !finished {
			abandoned = true
		}
		handedOff = abandoned
		mu.Unlock()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, handedOff, fmt.Errorf("%w after %s", ErrRunTimeout, m.timeout)
		}
		return nil, handedOff, ctx.Err()
	}
}

func (m *Manager) writeReports(req *Request, res *labels.Result) error {
	if req.OutputPath != "" {
		if err := report.RenderFile(m.pdf, req.OutputPath, res); err != nil {
			return fmt.Errorf("%w: %w", ErrRenderFailed, err)
		}
	}
	if req.PreviewPath != "" {
		if err := report.RenderFile(m.preview, req.PreviewPath, res); err != nil {
			return fmt.Errorf("%w: %w", ErrRenderFailed, err)
		}
	}
	return nil
}

func (m *Manager) addRun(run *Run) {
	m.runsMutex.Lock()
	defer m.runsMutex.Unlock()
	m.runs[run.ID] = run
}

func (m *Manager) recordStart(ctx context.Context, run *Run) {
	if m.recorder == nil {
		return
	}
	if _, err := m.recorder.Start(ctx, run.ID, run.Source, run.Trigger); err != nil {
		logger.FromContext(ctx).Warn("Failed to record run start", zap.Error(err))
	}
}

// finishRun moves the run to history and reports it to metrics and the recorder.
// A failed run never carries a result.
func (m *Manager) finishRun(ctx context.Context, run *Run, req *Request, res *labels.Result, err error) {
	log := logger.FromContext(ctx)

	m.runsMutex.Lock()
	run.EndTime = time.Now()
	run.Duration = run.EndTime.Sub(run.StartTime)
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
		res = nil
	} else {
		run.Status = RunStatusCompleted
		run.Result = res
		run.OutputPath = req.OutputPath
	}
	delete(m.runs, run.ID)
	m.runHistory = append(m.runHistory, run)
	if len(m.runHistory) > maxRunHistory {
		m.runHistory = m.runHistory[1:]
	}
	m.runsMutex.Unlock()

	m.metrics.ObserveRun(res, err, run.Duration)

	if err != nil {
		log.Error("Run failed", zap.Error(err), logger.DurationField(run.Duration.Milliseconds()))
		if m.recorder != nil {
			if rerr := m.recorder.Fail(context.WithoutCancel(ctx), run.ID, err); rerr != nil {
				log.Warn("Failed to record run failure", zap.Error(rerr))
			}
		}
		return
	}

	log.Info("Run completed",
		logger.CountField("segments", res.Segments),
		logger.CountField("records", len(res.Records)),
		logger.CountField("products", len(res.Counts)),
		logger.DurationField(run.Duration.Milliseconds()))
	if m.recorder != nil {
		if rerr := m.recorder.Complete(context.WithoutCancel(ctx), run.ID, res, req.OutputPath); rerr != nil {
			log.Warn("Failed to record run completion", zap.Error(rerr))
		}
	}
}
