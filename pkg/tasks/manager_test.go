package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"picksheet/internal/models"
	"picksheet/pkg/config"
	"picksheet/pkg/labels"
	"picksheet/pkg/metrics"
)

func label(tracking, order, name, sizeLine string) string {
	return fmt.Sprintf("Sender 1661 Inc\n  Columbusstraat 25\n  3165AC Rotterdam\n"+
		"  Consignment %s\n\nRef1: Order %sDPDwww.dpd.nl\nPackages\n1 of 1\n"+
		"  Weight\n  2.10 Kg\n  Service\n  NL-DPD-0521\n"+
		"   1\n\n%s\n\n%s\n%s\n  Ship by Mon 08/15\n  MCTSCHECKER\n",
		tracking, order, order, name, sizeLine)
}

func document(parts ...string) string {
	return strings.Join(parts, labels.DefaultBoundaryMarker)
}

var twoLabels = document(
	label("05212057104424", "338109311", "Dunk Low 'UCLA'", "9 US M | DD1391 402 | New"),
	label("05212057104425", "338109312", "Dunk Low 'UCLA'", "9 US M | DD1391 402 | New"),
)

type recordedCall struct {
	kind  string
	runID string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecorder) add(kind, runID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{kind: kind, runID: runID})
}

func (f *fakeRecorder) Start(_ context.Context, runID, _, _ string) (*models.ReportRun, error) {
	f.add("start", runID)
	return &models.ReportRun{RunID: runID}, nil
}

func (f *fakeRecorder) Complete(_ context.Context, runID string, _ *labels.Result, _ string) error {
	f.add("complete", runID)
	return nil
}

func (f *fakeRecorder) Fail(_ context.Context, runID string, _ error) error {
	f.add("fail", runID)
	return nil
}

func (f *fakeRecorder) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.kind
	}
	return out
}

type failingMatcher struct{}

func (failingMatcher) FindStringMatch(string) (*regexp2.Match, error) {
	return nil, errors.New("match timeout")
}

type blockingMatcher struct {
	release chan struct{}
}

func (b blockingMatcher) FindStringMatch(string) (*regexp2.Match, error) {
	<-b.release
	return nil, nil
}

func engineWith(order labels.Matcher) *labels.Engine {
	p := labels.DefaultPatterns()
	p.OrderNumber = order
	return labels.NewEngine(labels.NewSplitter(""), labels.NewParser(p))
}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(config.Default(), opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestProcessText(t *testing.T) {
	rec := &fakeRecorder{}
	pm := metrics.NewPipelineMetrics("test", prometheus.NewRegistry())
	m := newTestManager(t, WithRecorder(rec), WithMetrics(pm))

	run, err := m.ProcessText(context.Background(), "upload.txt", twoLabels)
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	if run.Status != RunStatusCompleted {
		t.Fatalf("status = %s", run.Status)
	}
	if run.Trigger != TriggerCLI {
		t.Errorf("trigger = %q", run.Trigger)
	}
	if run.Result.Segments != 2 || len(run.Result.Records) != 2 {
		t.Fatalf("result = %+v", run.Result)
	}
	if len(run.Result.Counts) != 1 || run.Result.Counts[0].Count != 2 {
		t.Errorf("counts = %+v", run.Result.Counts)
	}

	if got := rec.kinds(); len(got) != 2 || got[0] != "start" || got[1] != "complete" {
		t.Errorf("recorder calls = %v", got)
	}
	if got := testutil.ToFloat64(pm.RunsTotal.WithLabelValues(metrics.ResultSuccess)); got != 1 {
		t.Errorf("runs metric = %v", got)
	}
	if got := testutil.ToFloat64(pm.RecordsTotal); got != 2 {
		t.Errorf("records metric = %v", got)
	}

	found, err := m.GetRun(run.ID)
	if err != nil || found.ID != run.ID || found.Status != RunStatusCompleted {
		t.Errorf("GetRun = %v, %v", found, err)
	}
	if m.GetRunningCount() != 0 || len(m.GetRuns()) != 0 {
		t.Error("finished run still active")
	}
	if len(m.GetRunHistory()) != 1 {
		t.Error("run missing from history")
	}
}

func TestExecuteWritesReports(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t)

	req := &Request{
		Text:        twoLabels,
		OutputPath:  filepath.Join(dir, "out", "labels-picksheet.pdf"),
		PreviewPath: filepath.Join(dir, "out", "labels-picksheet.png"),
	}
	ctx := WithTrigger(context.Background(), TriggerScheduler)
	run, err := m.Execute(ctx, req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if run.Trigger != TriggerScheduler {
		t.Errorf("trigger = %q", run.Trigger)
	}
	if run.OutputPath != req.OutputPath {
		t.Errorf("output path = %q", run.OutputPath)
	}

	pdfData, err := os.ReadFile(req.OutputPath)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(pdfData, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
	pngData, err := os.ReadFile(req.PreviewPath)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if !bytes.HasPrefix(pngData, []byte("\x89PNG")) {
		t.Error("preview is not a PNG")
	}
}

func TestEngineFailureProducesNoReport(t *testing.T) {
	dir := t.TempDir()
	rec := &fakeRecorder{}
	pm := metrics.NewPipelineMetrics("test", prometheus.NewRegistry())
	m := newTestManager(t, WithEngine(engineWith(failingMatcher{})), WithRecorder(rec), WithMetrics(pm))

	out := filepath.Join(dir, "report.pdf")
	run, err := m.Execute(context.Background(), &Request{Text: twoLabels, OutputPath: out})
	if !errors.Is(err, labels.ErrEngineFailure) {
		t.Fatalf("err = %v, want engine failure", err)
	}
	if run == nil || run.Status != RunStatusFailed || run.Result != nil {
		t.Fatalf("run = %+v", run)
	}
	if !strings.Contains(run.Error, "segment 0") {
		t.Errorf("error = %q", run.Error)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("report written for failed run")
	}
	if got := rec.kinds(); len(got) != 2 || got[1] != "fail" {
		t.Errorf("recorder calls = %v", got)
	}
	if got := testutil.ToFloat64(pm.RunsTotal.WithLabelValues(metrics.ResultEngineFailure)); got != 1 {
		t.Errorf("engine failure metric = %v", got)
	}
}

func TestRunTimeout(t *testing.T) {
	block := blockingMatcher{release: make(chan struct{})}
	defer close(block.release)

	m := newTestManager(t, WithEngine(engineWith(block)), WithTimeout(50*time.Millisecond))

	run, err := m.ProcessText(context.Background(), "slow", twoLabels)
	if !errors.Is(err, ErrRunTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
	if run.Status != RunStatusFailed {
		t.Errorf("status = %s", run.Status)
	}
}

func TestConcurrencyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Runtime.MaxConcurrentTasks = 1
	block := blockingMatcher{release: make(chan struct{})}

	m, err := NewManager(cfg, WithEngine(engineWith(block)))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	firstDone := make(chan error, 1)
	go func() {
		_, err := m.ProcessText(context.Background(), "first", twoLabels)
		firstDone <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for m.GetRunningCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := m.ProcessText(ctx, "second", twoLabels); !errors.Is(err, ErrTooManyTasks) {
		t.Errorf("second run err = %v, want ErrTooManyTasks", err)
	}

	close(block.release)
	if err := <-firstDone; err != nil {
		t.Errorf("first run: %v", err)
	}
}

func TestTimedOutRunHoldsSlotUntilWorkerExits(t *testing.T) {
	cfg := config.Default()
	cfg.Runtime.MaxConcurrentTasks = 1
	block := blockingMatcher{release: make(chan struct{})}

	m, err := NewManager(cfg, WithEngine(engineWith(block)), WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := m.ProcessText(context.Background(), "slow", twoLabels); !errors.Is(err, ErrRunTimeout) {
		t.Fatalf("first run err = %v, want timeout", err)
	}

	// the abandoned worker is still inside the engine
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := m.ProcessText(ctx, "blocked", twoLabels); !errors.Is(err, ErrTooManyTasks) {
		t.Fatalf("second run err = %v, want ErrTooManyTasks", err)
	}

	close(block.release)

	deadline := time.Now().Add(2 * time.Second)
	for len(m.slots) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := len(m.slots); n != 0 {
		t.Fatalf("slot not released after worker exit: %d held", n)
	}

	run, err := m.ProcessText(context.Background(), "after", twoLabels)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if run.Status != RunStatusCompleted {
		t.Errorf("status = %s", run.Status)
	}
}

func TestGetRunReturnsSnapshot(t *testing.T) {
	m := newTestManager(t)
	run, err := m.ProcessText(context.Background(), "s", twoLabels)
	if err != nil {
		t.Fatal(err)
	}

	got, err := m.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	got.Status = RunStatusFailed
	got.Error = "edited"

	again, err := m.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != RunStatusCompleted || again.Error != "" {
		t.Errorf("stored run changed through returned copy: %+v", again)
	}

	history := m.GetRunHistory()
	history[0].Status = RunStatusFailed
	if h := m.GetRunHistory(); h[0].Status != RunStatusCompleted {
		t.Errorf("history entry changed through returned copy: %s", h[0].Status)
	}
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	if err := os.WriteFile(path, []byte(strings.ReplaceAll(twoLabels, "\n", "\r\n")), 0644); err != nil {
		t.Fatal(err)
	}

	m := newTestManager(t)
	run, err := m.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if run.Source != "labels.txt" {
		t.Errorf("source = %q", run.Source)
	}
	if len(run.Result.Records) != 2 {
		t.Errorf("records = %d", len(run.Result.Records))
	}
}

func TestProcessFileUnsupported(t *testing.T) {
	m := newTestManager(t)
	_, err := m.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "labels.docx"))
	if err == nil {
		t.Fatal("expected error for unsupported input")
	}
}

func TestEmptyInput(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Execute(context.Background(), &Request{}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("err = %v", err)
	}
}

func TestGetRunUnknown(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.GetRun("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestRunSummary(t *testing.T) {
	m := newTestManager(t)
	run, err := m.ProcessText(context.Background(), "s", twoLabels)
	if err != nil {
		t.Fatal(err)
	}
	s := run.Summary()
	if s.Segments != 2 || s.Records != 2 || s.Products != 1 || s.Skipped != 0 {
		t.Errorf("summary = %+v", s)
	}
}
