package labels

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDPDLabel(t *testing.T) {
	p := NewParser(DefaultPatterns())

	res, err := p.Parse(dpdLabel)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if res.Outcome != OutcomeAccepted {
		t.Fatalf("outcome = %v, field = %q", res.Outcome, res.Field)
	}

	want := ShipmentRecord{
		Shipper:        ShipperDPD,
		TrackingNumber: "05212057104424",
		OrderNumber:    "338109311",
		Product: ShoeIdentity{
			Name:      "Dunk Low 'UCLA'",
			Size:      "9 US M",
			SKU:       "DD1391 402",
			Condition: "New",
		},
	}
	if *res.Record != want {
		t.Errorf("record = %+v, want %+v", *res.Record, want)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	p := NewParser(DefaultPatterns())
	first, err := p.Parse(dpdLabel)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := p.Parse(dpdLabel)
		if err != nil {
			t.Fatal(err)
		}
		if *again.Record != *first.Record {
			t.Fatalf("run %d differs: %+v vs %+v", i, *again.Record, *first.Record)
		}
	}
}

func TestParseLengthGate(t *testing.T) {
	p := NewParser(DefaultPatterns())

	// a complete label squeezed under the threshold is still noise
	for _, n := range []int{0, 1, 50, 100} {
		segment := strings.Repeat("x", n)
		res, err := p.Parse(segment)
		if err != nil {
			t.Fatalf("len %d: unexpected error %v", n, err)
		}
		if res.Outcome != OutcomeNoise || res.Record != nil {
			t.Errorf("len %d: outcome = %v, record = %v", n, res.Outcome, res.Record)
		}
	}

	short := "Consignment 05212057104424\n338109311\nX\n9 US M | A | New\n"
	if len(short) > 100 {
		t.Fatalf("fixture too long: %d", len(short))
	}
	res, _ := p.Parse(short)
	if res.Outcome != OutcomeNoise {
		t.Errorf("short label outcome = %v, want noise", res.Outcome)
	}
}

func TestParseLengthGateSkipsMatching(t *testing.T) {
	failing := failingMatcher{err: errors.New("boom")}
	p := NewParser(Patterns{OrderNumber: failing, TrackingNumber: failing, Product: failing})

	res, err := p.Parse("too short")
	if err != nil {
		t.Fatalf("noise segment must not reach the engine: %v", err)
	}
	if res.Outcome != OutcomeNoise {
		t.Errorf("outcome = %v", res.Outcome)
	}
}

func TestParseCustomMinLength(t *testing.T) {
	p := NewParser(DefaultPatterns(), WithMinSegmentLength(len(dpdLabel)))
	res, err := p.Parse(dpdLabel)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeNoise {
		t.Errorf("outcome = %v, want noise at threshold", res.Outcome)
	}
}

func TestParseTrackingNumberLength(t *testing.T) {
	p := NewParser(DefaultPatterns())

	cases := []struct {
		name     string
		tracking string
		accept   bool
	}{
		{"13 digits", "0521205710442", false},
		{"14 digits", "05212057104424", true},
		{"15 digits", "052120571044245", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			segment := buildLabel(tc.tracking, "338109311", "Dunk Low 'UCLA'", "9 US M | DD1391 402 | New")
			res, err := p.Parse(segment)
			if err != nil {
				t.Fatal(err)
			}
			if tc.accept {
				if res.Outcome != OutcomeAccepted {
					t.Fatalf("outcome = %v, field = %q", res.Outcome, res.Field)
				}
				if res.Record.TrackingNumber != tc.tracking {
					t.Errorf("tracking = %q", res.Record.TrackingNumber)
				}
				return
			}
			if res.Outcome != OutcomeFieldNotFound || res.Field != FieldTrackingNumber {
				t.Errorf("outcome = %v, field = %q, want tracking not found", res.Outcome, res.Field)
			}
		})
	}
}

func TestParseOrderNumberMustBeIsolatedLine(t *testing.T) {
	p := NewParser(DefaultPatterns())

	segment := strings.Replace(buildLabel("05212057104424", "338109311", "Air Max 1", "10.5 US W | AB1234 | Used"),
		"\n\n338109311\n\n", "\n\n338109311 \n\n", 1)
	res, err := p.Parse(segment)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeFieldNotFound || res.Field != FieldOrderNumber {
		t.Errorf("outcome = %v, field = %q", res.Outcome, res.Field)
	}
}

func TestParseProductBlockVariants(t *testing.T) {
	p := NewParser(DefaultPatterns())

	segment := buildLabel("05212057104424", "123456789", "Jordan 1 Retro High OG 'Chicago'", "10.5 US W | 555088 101 | Used")
	res, err := p.Parse(segment)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeAccepted {
		t.Fatalf("outcome = %v, field = %q", res.Outcome, res.Field)
	}
	want := ShoeIdentity{
		Name:      "Jordan 1 Retro High OG 'Chicago'",
		Size:      "10.5 US W",
		SKU:       "555088 101",
		Condition: "Used",
	}
	if res.Record.Product != want {
		t.Errorf("product = %+v, want %+v", res.Record.Product, want)
	}
	if res.Record.OrderNumber != "123456789" {
		t.Errorf("order = %q", res.Record.OrderNumber)
	}
}

func TestParseMissingProductBlock(t *testing.T) {
	p := NewParser(DefaultPatterns())

	segment := buildLabel("05212057104424", "338109311", "Dunk Low", "nine US M | dd1391 | New")
	res, err := p.Parse(segment)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeFieldNotFound || res.Field != FieldProduct {
		t.Errorf("outcome = %v, field = %q", res.Outcome, res.Field)
	}
	if res.Record != nil {
		t.Error("record must not be partially populated")
	}
}

func TestParseEngineFailureIsFatal(t *testing.T) {
	cause := errors.New("backtrack limit exceeded")
	defaults := DefaultPatterns()

	for _, field := range []string{FieldOrderNumber, FieldTrackingNumber, FieldProduct} {
		t.Run(field, func(t *testing.T) {
			patterns := defaults
			switch field {
			case FieldOrderNumber:
				patterns.OrderNumber = failingMatcher{err: cause}
			case FieldTrackingNumber:
				patterns.TrackingNumber = failingMatcher{err: cause}
			case FieldProduct:
				patterns.Product = failingMatcher{err: cause}
			}

			res, err := NewParser(patterns).Parse(dpdLabel)
			if err == nil {
				t.Fatalf("expected engine failure, got outcome %v", res.Outcome)
			}
			if !errors.Is(err, ErrEngineFailure) {
				t.Errorf("error %v is not ErrEngineFailure", err)
			}
			if !errors.Is(err, cause) {
				t.Errorf("error %v does not wrap cause", err)
			}
			if !IsFatal(err) {
				t.Error("engine failure must be fatal")
			}
			var segErr *SegmentError
			if !errors.As(err, &segErr) || segErr.Field != field {
				t.Errorf("field = %v", segErr)
			}
			if res.Record != nil {
				t.Error("no record on engine failure")
			}
		})
	}
}

func TestParseNoMatchIsNotFatal(t *testing.T) {
	patterns := DefaultPatterns()
	patterns.TrackingNumber = noMatch{}

	res, err := NewParser(patterns).Parse(dpdLabel)
	if err != nil {
		t.Fatalf("no match must be absorbed: %v", err)
	}
	if res.Outcome != OutcomeFieldNotFound || res.Field != FieldTrackingNumber {
		t.Errorf("outcome = %v, field = %q", res.Outcome, res.Field)
	}
}

func TestParseNilMatcherIsEngineFailure(t *testing.T) {
	_, err := NewParser(Patterns{}).Parse(dpdLabel)
	if !errors.Is(err, ErrEngineFailure) {
		t.Errorf("err = %v, want engine failure", err)
	}
}

func TestParseToleratesEncodingArtifacts(t *testing.T) {
	p := NewParser(DefaultPatterns())
	garbled := "\xff\xfe\x00" + dpdLabel + "�ä"

	res, err := p.Parse(garbled)
	if err != nil {
		t.Fatalf("artifacts must not cause engine failure: %v", err)
	}
	if res.Outcome != OutcomeAccepted {
		t.Errorf("outcome = %v, field = %q", res.Outcome, res.Field)
	}
}

func TestParseKeepsInvalidBytesVerbatim(t *testing.T) {
	p := NewParser(DefaultPatterns())

	segment := "\xfe" + buildLabel("05212057104424", "338109311", "Dunk\xffLow 'UCLA'", "9 US M | DD1391 402 | New")
	res, err := p.Parse(segment)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeAccepted {
		t.Fatalf("outcome = %v, field = %q", res.Outcome, res.Field)
	}
	if got := res.Record.Product.Name; got != "Dunk\xffLow 'UCLA'" {
		t.Errorf("name = %q", got)
	}
	if res.Record.Product.SKU != "DD1391 402" || res.Record.TrackingNumber != "05212057104424" {
		t.Errorf("record = %+v", *res.Record)
	}
}

func TestRuneSpan(t *testing.T) {
	cases := []struct {
		s        string
		start, n int
		want     string
	}{
		{"abc", 1, 1, "b"},
		{"abc", 0, 3, "abc"},
		{"abc", 3, 0, ""},
		{"añb", 1, 1, "ñ"},
		{"a\xffb", 1, 2, "\xffb"},
		{"\xff\xfeab", 2, 2, "ab"},
	}
	for _, tc := range cases {
		if got := runeSpan(tc.s, tc.start, tc.n); got != tc.want {
			t.Errorf("runeSpan(%q, %d, %d) = %q, want %q", tc.s, tc.start, tc.n, got, tc.want)
		}
	}
}

func TestSkipOutcomesCarrySegmentError(t *testing.T) {
	p := NewParser(DefaultPatterns())

	noise, err := p.Parse("too short")
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(noise.Cause, ErrNoiseSegment) || IsFatal(noise.Cause) {
		t.Errorf("noise cause = %v", noise.Cause)
	}

	missing, err := p.Parse(buildLabel("05212057104424", "338109311", "Dunk Low", "nine US M | dd1391 | New"))
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(missing.Cause, ErrFieldNotFound) {
		t.Errorf("missing field cause = %v", missing.Cause)
	}

	accepted, err := p.Parse(dpdLabel)
	if err != nil {
		t.Fatal(err)
	}
	if accepted.Cause != nil {
		t.Errorf("accepted cause = %v", accepted.Cause)
	}
}

func TestSegmentErrorMessage(t *testing.T) {
	err := newFieldNotFound(FieldProduct)
	if got := err.Error(); got != "field not found [product]" {
		t.Errorf("Error() = %q", got)
	}
	if IsFatal(err) {
		t.Error("field not found must not be fatal")
	}
	if IsFatal(errors.New("plain")) {
		t.Error("plain errors are not fatal")
	}
}
