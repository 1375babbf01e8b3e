package report

import (
	"strconv"
	"strings"
)

// Rendering defaults.
const (
	DefaultFontSize     = 11.0
	DefaultPreviewWidth = 1000
)

// Labels holds every fixed string printed on the report. Placeholders: {n} is the
// parcel count, {shipper} the carrier name.
type Labels struct {
	PickupTitle     string `json:"pickup_title" yaml:"pickup_title"`
	ParcelCount     string `json:"parcel_count" yaml:"parcel_count"`
	OrderHeader     string `json:"order_header" yaml:"order_header"`
	TrackingHeader  string `json:"tracking_header" yaml:"tracking_header"`
	DriverSignature string `json:"driver_signature" yaml:"driver_signature"`
	PickSheetTitle  string `json:"pick_sheet_title" yaml:"pick_sheet_title"`
	NameHeader      string `json:"name_header" yaml:"name_header"`
	SKUHeader       string `json:"sku_header" yaml:"sku_header"`
	SizeHeader      string `json:"size_header" yaml:"size_header"`
	ConditionHeader string `json:"condition_header" yaml:"condition_header"`
	CountHeader     string `json:"count_header" yaml:"count_header"`
}

// DefaultLabels returns the English report strings.
func DefaultLabels() Labels {
	return Labels{
		PickupTitle:     "Pickup on ____.____.20__",
		ParcelCount:     "{n} parcels",
		OrderHeader:     "Order number",
		TrackingHeader:  "Tracking number",
		DriverSignature: "Driver signature {shipper}",
		PickSheetTitle:  "Pick Sheet",
		NameHeader:      "Name",
		SKUHeader:       "SKU",
		SizeHeader:      "Size",
		ConditionHeader: "Condition",
		CountHeader:     "Count",
	}
}

// WithDefaults returns l with empty entries replaced by the defaults.
func (l Labels) WithDefaults() Labels {
	def := DefaultLabels()
	fill := func(v *string, d string) {
		if strings.TrimSpace(*v) == "" {
			*v = d
		}
	}
	fill(&l.PickupTitle, def.PickupTitle)
	fill(&l.ParcelCount, def.ParcelCount)
	fill(&l.OrderHeader, def.OrderHeader)
	fill(&l.TrackingHeader, def.TrackingHeader)
	fill(&l.DriverSignature, def.DriverSignature)
	fill(&l.PickSheetTitle, def.PickSheetTitle)
	fill(&l.NameHeader, def.NameHeader)
	fill(&l.SKUHeader, def.SKUHeader)
	fill(&l.SizeHeader, def.SizeHeader)
	fill(&l.ConditionHeader, def.ConditionHeader)
	fill(&l.CountHeader, def.CountHeader)
	return l
}

func (l Labels) parcels(n int) string {
	return strings.ReplaceAll(l.ParcelCount, "{n}", strconv.Itoa(n))
}

func (l Labels) signature(shipper string) string {
	return strings.TrimSpace(strings.ReplaceAll(l.DriverSignature, "{shipper}", shipper))
}

func (l Labels) pickHeaders() []string {
	return []string{l.NameHeader, l.SKUHeader, l.SizeHeader, l.ConditionHeader, l.CountHeader}
}
