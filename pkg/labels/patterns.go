package labels

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// Default label patterns. They rely on look-around, which RE2 cannot express.
const (
	// OrderNumberPattern matches a 9-digit number occupying a whole line.
	OrderNumberPattern = `(?<=\n)\d{9}(?=\n)`
	// TrackingNumberPattern matches exactly 14 digits after the consignment anchor.
	TrackingNumberPattern = `(?<=Consignment )\d{14}(?!\d)`
	// ProductPattern matches the name line followed by "<size> US <g> | <SKU> | <condition>".
	ProductPattern = `(?<name>.+)\n(?<size>\d{1,2}(\.\d)? US \w+) \| (?<sku>[A-Z0-9 ]+) \| (?<condition>\w+)`
)

// Product pattern group names.
const (
	GroupName      = "name"
	GroupSize      = "size"
	GroupSKU       = "sku"
	GroupCondition = "condition"
)

// DefaultMatchTimeout bounds a single search; exceeding it is an engine failure.
const DefaultMatchTimeout = 2 * time.Second

// Matcher finds the first match of one compiled pattern. A nil match with a nil error
// means "no match"; a non-nil error means the engine could not run the search.
// *regexp2.Regexp satisfies it.
type Matcher interface {
	FindStringMatch(s string) (*regexp2.Match, error)
}

// Patterns holds the three matchers used by the Parser.
type Patterns struct {
	OrderNumber    Matcher
	TrackingNumber Matcher
	Product        Matcher
}

// PatternSource holds pattern text, for configuration overrides.
type PatternSource struct {
	OrderNumber    string `json:"order_number" yaml:"order_number"`
	TrackingNumber string `json:"tracking_number" yaml:"tracking_number"`
	Product        string `json:"product" yaml:"product"`
}

// DefaultPatternSource returns the DPD label patterns.
func DefaultPatternSource() PatternSource {
	return PatternSource{
		OrderNumber:    OrderNumberPattern,
		TrackingNumber: TrackingNumberPattern,
		Product:        ProductPattern,
	}
}

// CompilePatterns compiles src, filling empty entries with the defaults. timeout <= 0
// means DefaultMatchTimeout.
func CompilePatterns(src PatternSource, timeout time.Duration) (Patterns, error) {
	def := DefaultPatternSource()
	if src.OrderNumber == "" {
		src.OrderNumber = def.OrderNumber
	}
	if src.TrackingNumber == "" {
		src.TrackingNumber = def.TrackingNumber
	}
	if src.Product == "" {
		src.Product = def.Product
	}
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}

	order, err := compile(FieldOrderNumber, src.OrderNumber, timeout)
	if err != nil {
		return Patterns{}, err
	}
	tracking, err := compile(FieldTrackingNumber, src.TrackingNumber, timeout)
	if err != nil {
		return Patterns{}, err
	}
	product, err := compile(FieldProduct, src.Product, timeout)
	if err != nil {
		return Patterns{}, err
	}
	for _, group := range []string{GroupName, GroupSize, GroupSKU, GroupCondition} {
		if product.GroupNumberFromName(group) < 0 {
			return Patterns{}, fmt.Errorf("product pattern: missing named group %q", group)
		}
	}

	return Patterns{OrderNumber: order, TrackingNumber: tracking, Product: product}, nil
}

// DefaultPatterns compiles the built-in patterns. They are constants, so failure is a
// programming error.
func DefaultPatterns() Patterns {
	p, err := CompilePatterns(DefaultPatternSource(), DefaultMatchTimeout)
	if err != nil {
		panic(err)
	}
	return p
}

func compile(field, expr string, timeout time.Duration) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("%s pattern: %w", field, err)
	}
	re.MatchTimeout = timeout
	return re, nil
}
