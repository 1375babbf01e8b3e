package tasks

import "errors"

// Package-level error variables for unified error handling
var (
	// ErrRunNotFound indicates the run id is unknown to the manager
	ErrRunNotFound = errors.New("run not found")

	// ErrTooManyTasks indicates no run slot became free before the context ended
	ErrTooManyTasks = errors.New("too many running tasks")

	// ErrRunTimeout indicates the pipeline did not finish within the task timeout
	ErrRunTimeout = errors.New("run timed out")

	// ErrEmptyInput indicates the request carried neither text nor an input path
	ErrEmptyInput = errors.New("empty input")

	// ErrRenderFailed indicates the report could not be written
	ErrRenderFailed = errors.New("failed to write report")
)
