// Package history keeps a log of report runs in a gorm-backed database.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"picksheet/internal/models"
	"picksheet/pkg/labels"
	"picksheet/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 50

// Store persists models.ReportRun rows.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) a sqlite database at dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.ReportRun{}); err != nil {
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Start inserts a running entry.
func (s *Store) Start(ctx context.Context, runID, source, trigger string) (*models.ReportRun, error) {
	run := &models.ReportRun{
		RunID:     runID,
		Source:    source,
		Trigger:   trigger,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("create run %s: %w", runID, err)
	}
	return run, nil
}

// Complete marks a run successful and stores the product summary.
func (s *Store) Complete(ctx context.Context, runID string, res *labels.Result, outputPath string) error {
	run, err := s.Get(ctx, runID)
	if err != nil {
		return err
	}

	summary, err := json.Marshal(res.Counts)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       models.RunStatusCompleted,
		"segments":     res.Segments,
		"records":      len(res.Records),
		"products":     len(res.Counts),
		"skipped":      len(res.Skipped),
		"output_path":  outputPath,
		"summary":      datatypes.JSON(summary),
		"completed_at": now,
		"duration":     now.Sub(run.StartedAt).Milliseconds(),
	}
	return s.update(ctx, runID, updates)
}

// Fail marks a run failed with the error message.
func (s *Store) Fail(ctx context.Context, runID string, cause error) error {
	run, err := s.Get(ctx, runID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	updates := map[string]interface{}{
		"status":       models.RunStatusFailed,
		"error_msg":    msg,
		"completed_at": now,
		"duration":     now.Sub(run.StartedAt).Milliseconds(),
	}
	return s.update(ctx, runID, updates)
}

func (s *Store) update(ctx context.Context, runID string, updates map[string]interface{}) error {
	tx := s.db.WithContext(ctx).Model(&models.ReportRun{}).Where("run_id = ?", runID).Updates(updates)
	if tx.Error != nil {
		return fmt.Errorf("update run %s: %w", runID, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// Get returns a single run by its run id.
func (s *Store) Get(ctx context.Context, runID string) (*models.ReportRun, error) {
	var run models.ReportRun
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &run, nil
}

// List returns the most recent runs first.
func (s *Store) List(ctx context.Context, limit int) ([]models.ReportRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var runs []models.ReportRun
	if err := s.db.WithContext(ctx).Order("started_at DESC, id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close history database", zap.Error(err))
		return err
	}
	return nil
}
