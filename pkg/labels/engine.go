package labels

import (
	"fmt"

	"picksheet/pkg/logger"

	"go.uber.org/zap"
)

// SkippedSegment records a segment that produced no record.
type SkippedSegment struct {
	Index   int     `json:"index"`
	Outcome Outcome `json:"-"`
	Reason  string  `json:"reason"`
	Field   string  `json:"field,omitempty"`
}

// Result is the output of one run over a document.
type Result struct {
	Segments int              `json:"segments"`
	Records  []ShipmentRecord `json:"records"`
	Counts   []ProductCount   `json:"counts"`
	Skipped  []SkippedSegment `json:"skipped"`
}

// Engine runs splitter, parser and aggregator over a whole document.
type Engine struct {
	splitter Splitter
	parser   *Parser
}

// NewEngine wires an engine from explicitly constructed components.
func NewEngine(splitter Splitter, parser *Parser) *Engine {
	return &Engine{splitter: splitter, parser: parser}
}

// DefaultEngine returns an engine for DPD labels with the built-in patterns.
func DefaultEngine() *Engine {
	return NewEngine(NewSplitter(""), NewParser(DefaultPatterns()))
}

// Run processes text synchronously. An engine failure in any segment aborts the run
// and no partial result is returned.
func (e *Engine) Run(text string) (*Result, error) {
	segments := e.splitter.Split(text)
	logger.Info("Split document into segments", zap.Int("segments", len(segments)))

	result := &Result{
		Segments: len(segments),
		Records:  make([]ShipmentRecord, 0, len(segments)),
		Skipped:  make([]SkippedSegment, 0),
	}

	for i, segment := range segments {
		parsed, err := e.parser.Parse(segment)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		if parsed.Outcome != OutcomeAccepted {
			result.Skipped = append(result.Skipped, SkippedSegment{
				Index:   i,
				Outcome: parsed.Outcome,
				Reason:  parsed.Outcome.String(),
				Field:   parsed.Field,
			})
			continue
		}
		result.Records = append(result.Records, *parsed.Record)
	}

	result.Counts = Group(result.Records)

	logger.Info("Extracted records",
		zap.Int("segments", result.Segments),
		zap.Int("records", len(result.Records)),
		zap.Int("products", len(result.Counts)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}
