package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"picksheet/pkg/extract"
	"picksheet/pkg/history"
	"picksheet/pkg/labels"
	"picksheet/pkg/response"
	"picksheet/pkg/scheduler"
	"picksheet/pkg/tasks"

	"github.com/gin-gonic/gin"
)

// Common error type definitions
var (
	// ErrInvalidParam indicates invalid parameter error
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrServiceUnavailable indicates service unavailable error
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrPayloadTooLarge indicates the uploaded document exceeds the size limit
	ErrPayloadTooLarge = errors.New("payload too large")
)

// APIError represents a custom API error structure
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("API Error (Code: %d, Message: %s): %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("API Error (Code: %d, Message: %s)", e.Code, e.Message)
}

// Unwrap supports error wrapping
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new API error
func NewAPIError(code int, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, err error) *APIError {
	return NewAPIError(http.StatusBadRequest, message, err)
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string, err error) *APIError {
	return NewAPIError(http.StatusServiceUnavailable, message, err)
}

// HandleError maps err onto a status code and writes the error body.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		response.Error(c, apiErr.Code, apiErr.Message, apiErr.Err)
		return
	}

	code, message := classify(err)
	response.Error(c, code, message, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, labels.ErrEngineFailure):
		return http.StatusUnprocessableEntity, "Label engine failure, no report produced"
	case errors.Is(err, extract.ErrExtractFailed), errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusBadRequest, "Could not read document"
	case errors.Is(err, tasks.ErrEmptyInput), errors.Is(err, ErrInvalidParam):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "Document too large"
	case errors.Is(err, tasks.ErrRunNotFound), errors.Is(err, history.ErrRunNotFound), errors.Is(err, scheduler.ErrJobNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, tasks.ErrTooManyTasks), errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "Service busy"
	case errors.Is(err, tasks.ErrRunTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Processing timed out"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// ValidateRequired validates required parameters
func ValidateRequired(value, fieldName string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidParam, fieldName)
	}
	return nil
}
