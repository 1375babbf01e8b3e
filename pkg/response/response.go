package response

import (
	"picksheet/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTP response constants
const (
	ContentTypeJSON = "application/json"
	ContentTypePDF  = "application/pdf"
	ContentTypePNG  = "image/png"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "RequestID"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     bool   `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// JSON writes data with the given status code
func JSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// Error aborts the request with an error body. err is logged and echoed as details.
func Error(c *gin.Context, statusCode int, message string, err error) {
	body := ErrorBody{
		Error:     true,
		Message:   message,
		Code:      statusCode,
		RequestID: c.GetString(RequestIDKey),
	}

	if err != nil {
		body.Details = err.Error()
		fields := []zap.Field{
			zap.String("message", message),
			zap.Error(err),
			zap.Int("status_code", statusCode),
			zap.String("request_id", body.RequestID),
		}
		if statusCode >= 500 {
			logger.Error("API error", fields...)
		} else {
			logger.Warn("API error", fields...)
		}
	}

	c.AbortWithStatusJSON(statusCode, body)
}
