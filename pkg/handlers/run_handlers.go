package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxListLimit = 500

// ListRuns returns recent runs, newest first. Uses the history store when one is
// configured, otherwise the in-memory history of this process.
func (h *HandlerService) ListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			HandleError(c, fmt.Errorf("%w: limit must be within 1-%d", ErrInvalidParam, maxListLimit))
			return
		}
		limit = n
	}

	if h.history != nil {
		runs, err := h.history.List(c.Request.Context(), limit)
		if err != nil {
			HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
		return
	}

	recent := h.runner.GetRunHistory()
	runs := make([]interface{}, 0, limit)
	for i := len(recent) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, recent[i].Summary())
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun returns a single run by id.
func (h *HandlerService) GetRun(c *gin.Context) {
	id := c.Param("id")

	if h.history != nil {
		run, err := h.history.Get(c.Request.Context(), id)
		if err != nil {
			HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
		return
	}

	run, err := h.runner.GetRun(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, run.Summary())
}
