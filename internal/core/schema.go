package core

import (
	"fmt"
	"strings"
)

// Serialized B2B header names. Column order and spelling are a compatibility
// contract with downstream consumers.
const (
	HeaderManufacturer = "~~Manufacturer"
	HeaderStyleName    = "Style Name"
	HeaderColorName    = "Color Name"
	HeaderSKU          = "SKU"
	HeaderProductType  = "Product Type"
	HeaderPricingUnit  = "Pricing Unit"
	HeaderCutCost      = "Cut Cost"
)

// CanonicalHeaders is the B2B header row, in output order.
var CanonicalHeaders = []string{
	HeaderManufacturer,
	HeaderStyleName,
	HeaderColorName,
	HeaderSKU,
	HeaderProductType,
	HeaderPricingUnit,
	HeaderCutCost,
}

// canonicalFields pairs each canonical header with the field it carries.
var canonicalFields = []Field{
	FieldManufacturer,
	FieldStyleName,
	FieldColorName,
	FieldSKU,
	FieldProductType,
	FieldPricingUnit,
	FieldCutCost,
}

// Layout selects the column set written by Convert.
type Layout string

const (
	// LayoutCanonical writes the seven B2B columns.
	LayoutCanonical Layout = "canonical"
	// LayoutExtended writes the full dealer import sheet: the B2B columns plus
	// style/color numbers, promo flags and display settings.
	LayoutExtended Layout = "extended"
)

// ParseLayout maps a form value to a Layout. Empty selects LayoutCanonical.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutCanonical:
		return LayoutCanonical, nil
	case LayoutExtended:
		return LayoutExtended, nil
	}
	return "", fmt.Errorf("unknown layout %q", s)
}

// extendedHeaders is the dealer import sheet. Every canonical header appears
// so that an extended export is still detected as B2B.
var extendedHeaders = []string{
	HeaderManufacturer, HeaderStyleName, "Style Number", HeaderColorName, "Color Number",
	HeaderSKU, HeaderProductType, HeaderPricingUnit, HeaderCutCost, "Roll Cost",
	"Width/Quant-Carton", "Backing", "Retail Price", "Is Promo", "Start Promo Date",
	"End Promo Date", "Promo Cut Cost", "Promo Roll Cost", "Is Dropped", "Retail Formula",
	"Display Tags", "Comments", "Private Style", "Private Color", "Weight",
	"Custom", "Style UX", "Style CARE", "Color CARE", "Display Online",
	"Freight", "Picture 1 URL", "Barcode",
}

// extendedDefaults are the constant cells of the extended layout.
var extendedDefaults = map[string]string{
	"Is Promo":       "0",
	"Is Dropped":     "0",
	"Display Tags":   "1",
	"Display Online": "1",
}

// numberColumnWidth caps the derived Style Number and Color Number cells.
const numberColumnWidth = 80

// Headers returns the header row written for layout l.
func (l Layout) Headers() []string {
	if l == LayoutExtended {
		return extendedHeaders
	}
	return CanonicalHeaders
}

// Record renders row as one output record for layout l.
func (l Layout) Record(row CanonicalRow) []string {
	canonical := []string{
		row.Manufacturer,
		row.StyleName,
		row.ColorName,
		row.SKU,
		row.ProductType,
		string(row.PricingUnit),
		row.CutCost.StringFixed(2),
	}
	if l != LayoutExtended {
		return canonical
	}

	byHeader := make(map[string]string, len(CanonicalHeaders)+2)
	for i, h := range CanonicalHeaders {
		byHeader[h] = canonical[i]
	}
	byHeader["Style Number"] = truncateRunes(row.StyleName, numberColumnWidth)
	byHeader["Color Number"] = truncateRunes(row.ColorName, numberColumnWidth)

	out := make([]string, len(extendedHeaders))
	for i, h := range extendedHeaders {
		if v, ok := byHeader[h]; ok {
			out[i] = v
		} else {
			out[i] = extendedDefaults[h]
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
