package labels

import "strings"

// DefaultBoundaryMarker is the phrase printed once between consecutive DPD labels.
const DefaultBoundaryMarker = "Responsible delivery - CO2 neutral"

// Splitter divides a document into boundary-delimited segments.
type Splitter struct {
	Marker string
}

// NewSplitter returns a splitter for marker, or the DPD marker when marker is empty.
func NewSplitter(marker string) Splitter {
	if marker == "" {
		marker = DefaultBoundaryMarker
	}
	return Splitter{Marker: marker}
}

// Split returns the segments of text in document order.
func (s Splitter) Split(text string) []string {
	return Split(text, s.Marker)
}

// Split cuts text at every occurrence of marker. N occurrences yield N+1 segments,
// empty ones included; no occurrence yields text itself.
func Split(text, marker string) []string {
	if marker == "" {
		return []string{text}
	}
	return strings.Split(text, marker)
}
