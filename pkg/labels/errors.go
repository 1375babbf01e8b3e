package labels

import (
	"errors"
	"fmt"
)

// Sentinel errors for the segment failure taxonomy
var (
	// ErrNoiseSegment marks a segment too short to be a label
	ErrNoiseSegment = errors.New("noise segment")

	// ErrFieldNotFound marks a segment where a required pattern had no match
	ErrFieldNotFound = errors.New("field not found")

	// ErrEngineFailure marks a pattern engine that could not evaluate a search at all
	ErrEngineFailure = errors.New("pattern engine failure")
)

// Severity decides whether a segment failure skips the segment or aborts the run.
type Severity int

const (
	// SeveritySkip drops the segment and continues with the next one
	SeveritySkip Severity = iota
	// SeverityFatal aborts the whole run
	SeverityFatal
)

func (s Severity) String() string {
	if s == SeverityFatal {
		return "fatal"
	}
	return "skip"
}

// Field names used in SegmentError and skip reasons.
const (
	FieldOrderNumber    = "order_number"
	FieldTrackingNumber = "tracking_number"
	FieldProduct        = "product"
)

// SegmentError describes why a segment produced no record.
type SegmentError struct {
	Kind     error // one of the sentinels above
	Field    string
	Severity Severity
	Err      error // underlying engine error, nil for skips
}

func (e *SegmentError) Error() string {
	switch {
	case e.Err != nil && e.Field != "":
		return fmt.Sprintf("%v [%s]: %v", e.Kind, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%v [%s]", e.Kind, e.Field)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause to errors.Is.
func (e *SegmentError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newNoise() *SegmentError {
	return &SegmentError{Kind: ErrNoiseSegment, Severity: SeveritySkip}
}

func newFieldNotFound(field string) *SegmentError {
	return &SegmentError{Kind: ErrFieldNotFound, Field: field, Severity: SeveritySkip}
}

func newEngineFailure(field string, err error) *SegmentError {
	return &SegmentError{Kind: ErrEngineFailure, Field: field, Severity: SeverityFatal, Err: err}
}

// IsFatal reports whether err carries fatal severity.
func IsFatal(err error) bool {
	var segErr *SegmentError
	if errors.As(err, &segErr) {
		return segErr.Severity == SeverityFatal
	}
	return false
}
