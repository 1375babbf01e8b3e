package middleware

import (
	"time"

	"picksheet/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics records request counts and latency per route pattern.
func HTTPMetrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Observe(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
