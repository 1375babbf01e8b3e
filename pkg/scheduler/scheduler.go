package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"picksheet/pkg/config"
	"picksheet/pkg/extract"
	"picksheet/pkg/labels"
	"picksheet/pkg/logger"
	"picksheet/pkg/notifier"
	"picksheet/pkg/tasks"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job statuses
const (
	JobStatusScheduled = "scheduled"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Inbox subdirectories that receive handled documents and, unless a job sets its
// own output directory, the rendered pick sheets.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
	ReportsDir   = config.DefaultReportsDir
)

// reportSuffix marks rendered pick sheets so a scan never takes them as input.
const reportSuffix = "-picksheet"

// Error variables
var (
	ErrJobNotFound = fmt.Errorf("job not found")
)

// TaskScheduler runs inbox jobs using cron
type TaskScheduler struct {
	cron      *cron.Cron
	config    *config.Config
	ctx       context.Context
	jobs      map[string]*ScheduledJob
	jobsMutex sync.RWMutex
	runner    tasks.RunManager
	notifier  notifier.Notifier
}

// ScheduledJob watches one inbox directory
type ScheduledJob struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Cron      string       `json:"cron"`
	InboxDir  string       `json:"inbox_dir"`
	OutputDir string       `json:"output_dir"`
	Preview   bool         `json:"preview"`
	NextRun   time.Time    `json:"next_run"`
	LastRun   time.Time    `json:"last_run"`
	Status    string       `json:"status"`
	LastError string       `json:"last_error,omitempty"`
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	EntryID   cron.EntryID `json:"-"`
}

// ScanReport is the outcome of one pass over an inbox.
type ScanReport struct {
	Job       string                `json:"job"`
	Processed []string              `json:"processed"`
	Failed    []string              `json:"failed"`
	Counts    []labels.ProductCount `json:"counts"`
}

// NewTaskScheduler creates a scheduler that hands inbox documents to runner
func NewTaskScheduler(ctx context.Context, cfg *config.Config, runner tasks.RunManager) (*TaskScheduler, error) {
	logger.Info("Initializing task scheduler")

	cronScheduler := cron.New(
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	scheduler := &TaskScheduler{
		cron:   cronScheduler,
		config: cfg,
		ctx:    ctx,
		jobs:   make(map[string]*ScheduledJob),
		runner: runner,
	}

	if err := scheduler.loadConfiguredJobs(); err != nil {
		return nil, fmt.Errorf("failed to load configured jobs: %w", err)
	}

	logger.Info("Task scheduler initialized", zap.Int("job_count", len(scheduler.jobs)))
	return scheduler, nil
}

// SetNotifier sends a summary to n after every scan that touched documents
func (ts *TaskScheduler) SetNotifier(n notifier.Notifier) {
	ts.notifier = n
}

// Start starts the cron loop and blocks until the scheduler context is cancelled
func (ts *TaskScheduler) Start() error {
	logger.Info("Starting task scheduler")

	ts.cron.Start()

	ts.jobsMutex.Lock()
	for _, job := range ts.jobs {
		if err := ts.updateJobNextRunTime(job); err != nil {
			logger.Warn("Failed to update next run time after start",
				zap.String("job_name", job.Name),
				zap.Error(err))
		}
	}
	ts.jobsMutex.Unlock()

	ts.logScheduledJobs()

	<-ts.ctx.Done()
	logger.Info("Task scheduler context cancelled")

	return nil
}

// Shutdown stops the cron loop and waits for running jobs
func (ts *TaskScheduler) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down task scheduler")

	cronCtx := ts.cron.Stop()

	select {
	case <-cronCtx.Done():
		logger.Info("All scheduled jobs completed")
	case <-ctx.Done():
		logger.Warn("Scheduler shutdown timeout, some jobs may still be running")
	}

	return nil
}

// AddJob adds a new scheduled job
func (ts *TaskScheduler) AddJob(job *ScheduledJob) error {
	if job.InboxDir == "" {
		return fmt.Errorf("%w: inbox_dir", config.ErrMissingRequired)
	}
	if job.OutputDir == "" {
		job.OutputDir = filepath.Join(job.InboxDir, ReportsDir)
	}

	ts.jobsMutex.Lock()
	defer ts.jobsMutex.Unlock()

	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	entryID, err := ts.cron.AddFunc(job.Cron, ts.createJobFunction(job))
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	job.EntryID = entryID
	job.Status = JobStatusScheduled

	if err := ts.updateJobNextRunTime(job); err != nil {
		logger.Warn("Failed to update next run time", zap.String("job_name", job.Name), zap.Error(err))
	}

	ts.jobs[job.ID] = job

	logger.Info("Added scheduled job",
		zap.String("job_id", job.ID),
		zap.String("job_name", job.Name),
		zap.String("cron", job.Cron),
		zap.String("inbox", job.InboxDir),
		zap.Time("next_run", job.NextRun),
	)

	return nil
}

// RemoveJob removes a scheduled job
func (ts *TaskScheduler) RemoveJob(jobID string) error {
	ts.jobsMutex.Lock()
	defer ts.jobsMutex.Unlock()

	job, exists := ts.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	ts.cron.Remove(job.EntryID)
	delete(ts.jobs, jobID)

	logger.Info("Removed scheduled job", zap.String("job_id", jobID), zap.String("job_name", job.Name))
	return nil
}

// GetJobs returns copies of all scheduled jobs, ordered by name
func (ts *TaskScheduler) GetJobs() []ScheduledJob {
	ts.jobsMutex.Lock()
	defer ts.jobsMutex.Unlock()

	jobs := make([]ScheduledJob, 0, len(ts.jobs))
	for _, job := range ts.jobs {
		ts.updateJobNextRunTime(job)
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	return jobs
}

// GetJob returns a copy of a specific scheduled job
func (ts *TaskScheduler) GetJob(jobID string) (ScheduledJob, error) {
	ts.jobsMutex.RLock()
	defer ts.jobsMutex.RUnlock()

	job, exists := ts.jobs[jobID]
	if !exists {
		return ScheduledJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	return *job, nil
}

// GetStatus returns scheduler status
func (ts *TaskScheduler) GetStatus() map[string]interface{} {
	ts.jobsMutex.RLock()
	defer ts.jobsMutex.RUnlock()

	status := map[string]interface{}{
		"running":   ts.cron != nil,
		"job_count": len(ts.jobs),
		"entries":   len(ts.cron.Entries()),
		"timestamp": time.Now().UTC(),
	}

	return status
}

// RunJob performs one scan of the job's inbox immediately
func (ts *TaskScheduler) RunJob(jobID string) (*ScanReport, error) {
	ts.jobsMutex.RLock()
	job, exists := ts.jobs[jobID]
	ts.jobsMutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return ts.runJob(job)
}

// ScanInbox processes every supported document in the job's inbox. Each document is
// moved to processed/ or failed/ afterwards so the next tick does not see it again.
func (ts *TaskScheduler) ScanInbox(ctx context.Context, job *ScheduledJob) (*ScanReport, error) {
	entries, err := os.ReadDir(job.InboxDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox %s: %w", job.InboxDir, err)
	}

	report := &ScanReport{Job: job.Name, Processed: []string{}, Failed: []string{}}
	var records []labels.ShipmentRecord
	ctx = tasks.WithTrigger(logger.WithJob(ctx, job.Name), tasks.TriggerScheduler+":"+job.Name)

	for _, entry := range entries {
		if entry.IsDir() || !extract.Supported(entry.Name()) || isReport(entry.Name()) {
			continue
		}
		input := filepath.Join(job.InboxDir, entry.Name())
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		req := &tasks.Request{
			Source:     entry.Name(),
			InputPath:  input,
			OutputPath: filepath.Join(job.OutputDir, stem+reportSuffix+".pdf"),
		}
		if job.Preview {
			req.PreviewPath = filepath.Join(job.OutputDir, stem+reportSuffix+".png")
		}

		target := ProcessedDir
		run, err := ts.runner.Execute(ctx, req)
		if err != nil {
			logger.FromContext(ctx).Error("Inbox document failed",
				zap.String("file", entry.Name()), zap.Error(err))
			target = FailedDir
			report.Failed = append(report.Failed, entry.Name())
		} else {
			report.Processed = append(report.Processed, entry.Name())
			records = append(records, run.Result.Records...)
		}

		if err := moveInto(input, filepath.Join(job.InboxDir, target)); err != nil {
			logger.FromContext(ctx).Warn("Failed to move inbox document",
				zap.String("file", entry.Name()), zap.String("target", target), zap.Error(err))
		}
	}

	report.Counts = labels.Group(records)
	return report, nil
}

// loadConfiguredJobs loads inbox jobs from configuration
func (ts *TaskScheduler) loadConfiguredJobs() error {
	if ts.config == nil || ts.config.Scheduler == nil || !ts.config.Scheduler.Enabled {
		logger.Info("Scheduler disabled in configuration, no jobs loaded")
		return nil
	}

	logger.Info("Loading jobs from configuration file", zap.Int("count", len(ts.config.Scheduler.Jobs)))
	for _, configJob := range ts.config.Scheduler.Jobs {
		job := &ScheduledJob{
			Name:      configJob.Name,
			Cron:      configJob.Cron,
			InboxDir:  configJob.InboxDir,
			OutputDir: configJob.OutputDir,
			Preview:   configJob.Preview,
		}
		if err := ts.AddJob(job); err != nil {
			logger.Warn("Failed to add configured job", zap.String("job_name", job.Name), zap.Error(err))
		}
	}

	return nil
}

// createJobFunction creates a function to execute for a scheduled job
func (ts *TaskScheduler) createJobFunction(job *ScheduledJob) func() {
	return func() {
		if _, err := ts.runJob(job); err != nil {
			logger.Error("Scheduled job failed", zap.String("job_name", job.Name), zap.Error(err))
		}
	}
}

func (ts *TaskScheduler) runJob(job *ScheduledJob) (*ScanReport, error) {
	logger.Info("Executing scheduled job", zap.String("job_id", job.ID), zap.String("job_name", job.Name))

	ts.jobsMutex.Lock()
	job.Status = JobStatusRunning
	job.LastRun = time.Now()
	ts.jobsMutex.Unlock()

	report, err := ts.ScanInbox(ts.ctx, job)
	if err == nil {
		ts.notify(report)
	}

	ts.jobsMutex.Lock()
	defer ts.jobsMutex.Unlock()
	if err != nil {
		job.Status = JobStatusFailed
		job.LastError = err.Error()
		return nil, err
	}

	job.Processed += len(report.Processed)
	job.Failed += len(report.Failed)
	job.LastError = ""
	job.Status = JobStatusCompleted
	if len(report.Failed) > 0 {
		job.Status = JobStatusFailed
		job.LastError = fmt.Sprintf("%d document(s) failed", len(report.Failed))
	}

	logger.Info("Scheduled job finished",
		zap.String("job_name", job.Name),
		logger.CountField("processed", len(report.Processed)),
		logger.CountField("failed", len(report.Failed)))

	return report, nil
}

func (ts *TaskScheduler) notify(report *ScanReport) {
	if ts.notifier == nil {
		return
	}
	summary := &notifier.ScanSummary{
		Job:       report.Job,
		Processed: report.Processed,
		Failed:    report.Failed,
		Counts:    report.Counts,
		At:        time.Now(),
	}
	if summary.Empty() {
		return
	}
	if err := ts.notifier.NotifyScan(context.WithoutCancel(ts.ctx), summary); err != nil {
		logger.Warn("Failed to send scan notification",
			zap.String("job_name", report.Job),
			zap.String("notifier", ts.notifier.Name()),
			zap.Error(err))
	}
}

// logScheduledJobs logs information about all scheduled jobs
func (ts *TaskScheduler) logScheduledJobs() {
	ts.jobsMutex.RLock()
	defer ts.jobsMutex.RUnlock()

	if len(ts.jobs) == 0 {
		logger.Info("No scheduled jobs configured")
		return
	}

	for _, job := range ts.jobs {
		logger.Info("Scheduled job",
			zap.String("job_name", job.Name),
			zap.String("inbox", job.InboxDir),
			zap.String("cron", job.Cron),
			zap.Time("next_run", job.NextRun),
			zap.String("status", job.Status),
		)
	}
}

// updateJobNextRunTime updates the next run time for a job
func (ts *TaskScheduler) updateJobNextRunTime(job *ScheduledJob) error {
	for _, entry := range ts.cron.Entries() {
		if entry.ID == job.EntryID && !entry.Next.IsZero() {
			job.NextRun = entry.Next
			return nil
		}
	}

	schedule, err := cron.ParseStandard(job.Cron)
	if err != nil {
		return fmt.Errorf("failed to parse cron expression %s: %w", job.Cron, err)
	}
	job.NextRun = schedule.Next(time.Now())
	return nil
}

// moveInto moves path into dir, adding a timestamp when the name is taken.
func moveInto(path, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	dest := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(dest)
		dest = fmt.Sprintf("%s-%s%s", strings.TrimSuffix(dest, ext), time.Now().Format("20060102-150405.000"), ext)
	}
	return os.Rename(path, dest)
}

func isReport(name string) bool {
	return strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), reportSuffix)
}
