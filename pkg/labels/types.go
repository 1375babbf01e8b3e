// Package labels turns the text of a bulk shipping-label document into per-shipment
// records and aggregates them into pick-sheet counts.
package labels

import (
	"fmt"
	"strings"
)

// Shipper identifies the carrier that issued a label.
type Shipper int

const (
	// ShipperUnknown is the zero value and never produced by the parser.
	ShipperUnknown Shipper = iota
	// ShipperDPD is the only carrier whose label layout is recognized.
	ShipperDPD
)

var shipperNames = map[Shipper]string{
	ShipperDPD: "DPD",
}

func (s Shipper) String() string {
	if name, ok := shipperNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler so records serialize the carrier by name.
func (s Shipper) MarshalText() ([]byte, error) {
	if _, ok := shipperNames[s]; !ok {
		return nil, fmt.Errorf("unknown shipper %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shipper) UnmarshalText(text []byte) error {
	parsed, err := ParseShipper(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseShipper resolves a carrier name (case-insensitive).
func ParseShipper(name string) (Shipper, error) {
	for s, n := range shipperNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return ShipperUnknown, fmt.Errorf("unsupported shipper %q", name)
}

// ShoeIdentity is the product identity printed on a label. Values are the exact bytes
// of the matched text, invalid UTF-8 included; equality of all four fields is the
// grouping key.
type ShoeIdentity struct {
	Name      string `json:"name"`
	Size      string `json:"size"`
	SKU       string `json:"sku"`
	Condition string `json:"condition"`
}

// ShipmentRecord is one fully parsed label.
type ShipmentRecord struct {
	Shipper        Shipper      `json:"shipper"`
	TrackingNumber string       `json:"tracking_number"`
	OrderNumber    string       `json:"order_number"`
	Product        ShoeIdentity `json:"product"`
}

// ProductCount is the number of accepted records sharing one product identity.
type ProductCount struct {
	Product ShoeIdentity `json:"product"`
	Count   int          `json:"count"`
}
