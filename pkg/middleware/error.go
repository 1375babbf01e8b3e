package middleware

import (
	"net/http"

	"picksheet/pkg/logger"
	"picksheet/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler turns errors attached with c.Error into a JSON body when the handler
// did not write one itself
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()

		logger.Error("request error",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err.Err),
			zap.String("request_id", c.GetString(response.RequestIDKey)),
			zap.Int("status", c.Writer.Status()),
		)

		if !c.Writer.Written() {
			status := c.Writer.Status()
			if status == 0 || status == http.StatusOK {
				status = http.StatusInternalServerError
			}
			c.JSON(status, response.ErrorBody{
				Error:     true,
				Message:   http.StatusText(status),
				Code:      status,
				RequestID: c.GetString(response.RequestIDKey),
			})
		}
	}
}

// Recovery handles panics and recovers gracefully
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("request_id", c.GetString(response.RequestIDKey)),
			zap.Stack("stack"),
		)

		c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorBody{
			Error:     true,
			Message:   "Internal Server Error",
			Code:      http.StatusInternalServerError,
			RequestID: c.GetString(response.RequestIDKey),
		})
	})
}
