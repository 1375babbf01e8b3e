package handlers

import (
	"net/http"

	"picksheet/pkg/scheduler"

	"github.com/gin-gonic/gin"
)

// JobRequest is the body of a create-job request.
type JobRequest struct {
	Name      string `json:"name"`
	Cron      string `json:"cron"`
	InboxDir  string `json:"inbox_dir"`
	OutputDir string `json:"output_dir"`
	Preview   bool   `json:"preview"`
}

// GetSchedulerStatus returns scheduler status
func (h *HandlerService) GetSchedulerStatus(c *gin.Context) {
	if !h.IsSchedulerAvailable() {
		HandleError(c, NewServiceUnavailableError("Scheduler not available", nil))
		return
	}

	c.JSON(http.StatusOK, h.scheduler.GetStatus())
}

// GetScheduledJobs returns all scheduled jobs
func (h *HandlerService) GetScheduledJobs(c *gin.Context) {
	if !h.IsSchedulerAvailable() {
		HandleError(c, NewServiceUnavailableError("Scheduler not available", nil))
		return
	}

	jobs := h.scheduler.GetJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":      jobs,
		"count":     len(jobs),
		"timestamp": getCurrentTimestamp(),
	})
}

// CreateScheduledJob creates a new inbox job
func (h *HandlerService) CreateScheduledJob(c *gin.Context) {
	if !h.IsSchedulerAvailable() {
		HandleError(c, NewServiceUnavailableError("Scheduler not available", nil))
		return
	}

	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleError(c, NewBadRequestError("Invalid request body", err))
		return
	}

	if err := validateJobRequest(&req); err != nil {
		HandleError(c, NewBadRequestError("Job validation failed", err))
		return
	}

	job := &scheduler.ScheduledJob{
		Name:      req.Name,
		Cron:      req.Cron,
		InboxDir:  req.InboxDir,
		OutputDir: req.OutputDir,
		Preview:   req.Preview,
	}
	if err := h.scheduler.AddJob(job); err != nil {
		HandleError(c, NewBadRequestError("Failed to create scheduled job", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"job_id":    job.ID,
		"status":    "created",
		"name":      job.Name,
		"cron":      job.Cron,
		"next_run":  job.NextRun,
		"timestamp": getCurrentTimestamp(),
	})
}

// DeleteScheduledJob removes a scheduled job
func (h *HandlerService) DeleteScheduledJob(c *gin.Context) {
	if !h.IsSchedulerAvailable() {
		HandleError(c, NewServiceUnavailableError("Scheduler not available", nil))
		return
	}

	if err := h.scheduler.RemoveJob(c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": c.Param("id"), "status": "deleted"})
}

// TriggerScheduledJob scans the job's inbox now
func (h *HandlerService) TriggerScheduledJob(c *gin.Context) {
	if !h.IsSchedulerAvailable() {
		HandleError(c, NewServiceUnavailableError("Scheduler not available", nil))
		return
	}

	report, err := h.scheduler.RunJob(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func validateJobRequest(req *JobRequest) error {
	if err := ValidateRequired(req.Name, "name"); err != nil {
		return err
	}
	if err := ValidateRequired(req.Cron, "cron"); err != nil {
		return err
	}
	return ValidateRequired(req.InboxDir, "inbox_dir")
}
