package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunStatus represents the status of a report run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ReportRun records one pipeline invocation. Individual shipment records are not stored;
// Summary holds only the aggregated product counts.
type ReportRun struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RunID       string         `gorm:"uniqueIndex;not null" json:"run_id"` // UUID
	Source      string         `gorm:"not null" json:"source"`
	Trigger     string         `json:"trigger"` // cli, http, scheduler:<job>
	Status      RunStatus      `gorm:"default:running;index" json:"status"`
	Segments    int            `json:"segments"`
	Records     int            `json:"records"`
	Products    int            `json:"products"`
	Skipped     int            `json:"skipped"`
	OutputPath  string         `json:"output_path,omitempty"`
	Summary     datatypes.JSON `json:"summary,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Duration    int64          `json:"duration"` // Duration in milliseconds
	ErrorMsg    string         `json:"error_msg,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the table name for ReportRun model
func (ReportRun) TableName() string {
	return "report_runs"
}

// Finished reports whether the run has reached a terminal status.
func (r *ReportRun) Finished() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}
