package handlers

import (
	"context"
	"time"

	"picksheet/internal/models"
	"picksheet/pkg/config"
	"picksheet/pkg/logger"
	"picksheet/pkg/scheduler"
	"picksheet/pkg/tasks"
)

// RunHistory is the read side of the run-history store.
type RunHistory interface {
	List(ctx context.Context, limit int) ([]models.ReportRun, error)
	Get(ctx context.Context, runID string) (*models.ReportRun, error)
}

// HandlerService holds the dependencies shared by all handlers
type HandlerService struct {
	config    *config.Config
	runner    tasks.RunManager
	history   RunHistory
	scheduler *scheduler.TaskScheduler
	startedAt time.Time
}

// NewHandlerService creates a new handler service. history may be nil.
func NewHandlerService(cfg *config.Config, runner tasks.RunManager, history RunHistory) *HandlerService {
	logger.Info("Initializing handler service")

	if cfg == nil {
		cfg = config.Default()
	}
	return &HandlerService{
		config:    cfg,
		runner:    runner,
		history:   history,
		startedAt: time.Now(),
	}
}

// SetScheduler sets the scheduler reference (called after scheduler is created)
func (h *HandlerService) SetScheduler(s *scheduler.TaskScheduler) {
	h.scheduler = s
}

// GetConfig returns the handler service configuration
func (h *HandlerService) GetConfig() *config.Config {
	return h.config
}

// IsSchedulerAvailable checks if scheduler is available
func (h *HandlerService) IsSchedulerAvailable() bool {
	return h.scheduler != nil
}
