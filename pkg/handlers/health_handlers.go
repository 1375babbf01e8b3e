package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Service identity reported by the status endpoints.
const (
	ServiceName    = "picksheet"
	ServiceVersion = "1.0.0"
)

// GetStatus returns the overall system status
func (h *HandlerService) GetStatus(c *gin.Context) {
	uptime := time.Since(h.startedAt)
	status := map[string]interface{}{
		"service":   ServiceName,
		"version":   ServiceVersion,
		"status":    "running",
		"timestamp": getCurrentTimestamp(),
		"uptime":    formatDuration(uptime),
		"runs": map[string]interface{}{
			"running": h.runner.GetRunningCount(),
			"recent":  len(h.runner.GetRunHistory()),
		},
	}

	if h.scheduler != nil {
		status["scheduler"] = h.scheduler.GetStatus()
	}

	c.JSON(http.StatusOK, status)
}

// GetAppConfig returns the current configuration without file system details
func (h *HandlerService) GetAppConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.sanitizeConfig())
}

// HealthCheck reports whether the run manager and history store are usable
func (h *HandlerService) HealthCheck(c *gin.Context) {
	checks := map[string]interface{}{
		"run_manager": h.checkRunManagerHealth(),
		"history":     h.checkHistoryHealth(c),
		"scheduler":   h.checkSchedulerHealth(),
	}

	healthy := true
	for _, check := range checks {
		if m, ok := check.(map[string]interface{}); ok && m["status"] == "unhealthy" {
			healthy = false
			break
		}
	}

	body := map[string]interface{}{
		"status":    "healthy",
		"service":   ServiceName,
		"version":   ServiceVersion,
		"timestamp": getCurrentTimestamp(),
		"checks":    checks,
	}

	if !healthy {
		body["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	c.JSON(http.StatusOK, body)
}

func (h *HandlerService) checkRunManagerHealth() map[string]interface{} {
	if h.runner == nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  "run manager not initialized",
		}
	}

	return map[string]interface{}{
		"status":       "healthy",
		"running_runs": h.runner.GetRunningCount(),
	}
}

func (h *HandlerService) checkHistoryHealth(c *gin.Context) map[string]interface{} {
	if h.history == nil {
		return map[string]interface{}{"status": "unavailable"}
	}
	if _, err := h.history.List(c.Request.Context(), 1); err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}
	return map[string]interface{}{"status": "healthy"}
}

func (h *HandlerService) checkSchedulerHealth() map[string]interface{} {
	if h.scheduler == nil {
		return map[string]interface{}{"status": "unavailable"}
	}

	return map[string]interface{}{
		"status":  "healthy",
		"details": h.scheduler.GetStatus(),
	}
}
