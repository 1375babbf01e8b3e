package labels

import (
	"errors"

	"picksheet/pkg/logger"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"
)

// DefaultMinSegmentLength is the byte length at or below which a segment is noise.
const DefaultMinSegmentLength = 100

// Outcome classifies what Parse did with a segment.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeNoise
	OutcomeFieldNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeNoise:
		return "noise"
	case OutcomeFieldNotFound:
		return "field_not_found"
	default:
		return "unknown"
	}
}

// ParseResult is the non-fatal result of parsing one segment. Record is set only for
// OutcomeAccepted; Field names the missing field for OutcomeFieldNotFound. Cause holds
// the skip-severity SegmentError for every outcome other than OutcomeAccepted.
type ParseResult struct {
	Outcome Outcome
	Record  *ShipmentRecord
	Field   string
	Cause   error
}

// Parser extracts a ShipmentRecord from one segment.
type Parser struct {
	patterns  Patterns
	minLength int
	shipper   Shipper
}

// ParserOption customizes a Parser.
type ParserOption func(*Parser)

// WithMinSegmentLength overrides the noise threshold.
func WithMinSegmentLength(n int) ParserOption {
	return func(p *Parser) {
		if n >= 0 {
			p.minLength = n
		}
	}
}

// WithShipper sets the carrier stamped on accepted records.
func WithShipper(s Shipper) ParserOption {
	return func(p *Parser) {
		if s != ShipperUnknown {
			p.shipper = s
		}
	}
}

// NewParser builds a parser around explicitly constructed patterns.
func NewParser(patterns Patterns, opts ...ParserOption) *Parser {
	p := &Parser{
		patterns:  patterns,
		minLength: DefaultMinSegmentLength,
		shipper:   ShipperDPD,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts a record from segment. Noise and missing fields are reported through
// the result with a nil error. The only error returned is an engine failure, which
// must abort the surrounding run.
func (p *Parser) Parse(segment string) (ParseResult, error) {
	if len(segment) <= p.minLength {
		cause := newNoise()
		logger.Info("Rejected segment, too short",
			zap.Error(cause),
			zap.Int("length", len(segment)),
			zap.Int("min_length", p.minLength))
		return ParseResult{Outcome: OutcomeNoise, Cause: cause}, nil
	}

	record, err := p.extract(segment)
	if err != nil {
		var segErr *SegmentError
		if errors.As(err, &segErr) && segErr.Severity == SeveritySkip {
			logger.Info("Rejected segment, field not found",
				zap.Error(segErr),
				zap.Int("length", len(segment)))
			return ParseResult{Outcome: OutcomeFieldNotFound, Field: segErr.Field, Cause: segErr}, nil
		}
		logger.Error("Pattern engine failure", zap.Error(err))
		return ParseResult{}, err
	}

	logger.Debug("Parsed label",
		zap.String("order_number", record.OrderNumber),
		zap.String("tracking_number", record.TrackingNumber))
	return ParseResult{Outcome: OutcomeAccepted, Record: record}, nil
}

// extract runs the three searches in label order and assembles the record only when
// all of them succeed.
func (p *Parser) extract(segment string) (*ShipmentRecord, error) {
	order, err := find(p.patterns.OrderNumber, FieldOrderNumber, segment)
	if err != nil {
		return nil, err
	}

	tracking, err := find(p.patterns.TrackingNumber, FieldTrackingNumber, segment)
	if err != nil {
		return nil, err
	}

	product, err := find(p.patterns.Product, FieldProduct, segment)
	if err != nil {
		return nil, err
	}

	identity, ok := shoeIdentity(segment, product)
	if !ok {
		return nil, newFieldNotFound(FieldProduct)
	}

	return &ShipmentRecord{
		Shipper:        p.shipper,
		TrackingNumber: capturedText(segment, &tracking.Group),
		OrderNumber:    capturedText(segment, &order.Group),
		Product:        identity,
	}, nil
}

func find(m Matcher, field, segment string) (*regexp2.Match, error) {
	if m == nil {
		return nil, newEngineFailure(field, errors.New("no matcher configured"))
	}
	match, err := m.FindStringMatch(segment)
	if err != nil {
		return nil, newEngineFailure(field, err)
	}
	if match == nil {
		return nil, newFieldNotFound(field)
	}
	return match, nil
}

func shoeIdentity(segment string, m *regexp2.Match) (ShoeIdentity, bool) {
	id := ShoeIdentity{
		Name:      groupText(segment, m, GroupName),
		Size:      groupText(segment, m, GroupSize),
		SKU:       groupText(segment, m, GroupSKU),
		Condition: groupText(segment, m, GroupCondition),
	}
	ok := id.Name != "" && id.Size != "" && id.SKU != "" && id.Condition != ""
	return id, ok
}

func groupText(segment string, m *regexp2.Match, name string) string {
	g := m.GroupByName(name)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return capturedText(segment, g)
}

// capturedText cuts g out of the segment it was matched against. regexp2 reports
// positions in runes and decodes each invalid byte to U+FFFD, so the bytes are taken
// from segment rather than from g.String().
func capturedText(segment string, g *regexp2.Group) string {
	return runeSpan(segment, g.Index, g.Length)
}

// runeSpan returns the bytes of s covering n runes from rune index start, counting an
// invalid byte as one rune the way a []rune conversion does.
func runeSpan(s string, start, n int) string {
	begin, end := len(s), len(s)
	i := 0
	for off := range s {
		if i == start {
			begin = off
		}
		if i == start+n {
			end = off
			break
		}
		i++
	}
	return s[begin:end]
}
