package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Transformer turns raw records into canonical rows. It holds no per-file
// state and is safe for concurrent use.
type Transformer struct {
	costs CutCostTable
}

// NewTransformer returns a transformer deriving cut cost from costs.
func NewTransformer(costs CutCostTable) *Transformer {
	return &Transformer{costs: costs}
}

// Transform maps one raw record onto the canonical schema. It never fails:
// every problem is reported as a warning and the affected value defaulted.
//
// When the mapping targets FieldCutCost the record is already canonical and
// its stated cost is validated and kept. Otherwise cut cost is derived from
// the parsed price and unit.
func (t *Transformer) Transform(raw RawRow, m Mapping, mctx ManufacturerContext) (CanonicalRow, []RowWarning) {
	var warnings []RowWarning
	warn := func(f Field, reason WarningReason, value string) {
		warnings = append(warnings, RowWarning{Line: raw.Line, Field: f, Reason: reason, Value: value})
	}
	cell := func(f Field) string {
		c, ok := m.Column(f)
		if !ok {
			return ""
		}
		return CleanCell(raw.Value(c.Index))
	}

	var row CanonicalRow

	manufacturer, resolved := ResolveManufacturer(cell(FieldManufacturer), mctx.Override, mctx.Force)
	row.Manufacturer = manufacturer
	if !resolved {
		warn(FieldManufacturer, ReasonUnresolved, "")
	}

	row.StyleName = cell(FieldStyleName)
	if row.StyleName == "" {
		warn(FieldStyleName, ReasonMissing, "")
	}
	row.ColorName = cell(FieldColorName)
	row.SKU = cell(FieldSKU)
	if row.SKU == "" {
		warn(FieldSKU, ReasonMissing, "")
	}

	row.ProductType = ResolveProductType(cell(FieldProductType), cell(FieldProductGroup), cell(FieldMaterialType))

	rawUnit := cell(FieldPricingUnit)
	unit, ok := NormalizeUnit(rawUnit)
	row.PricingUnit = unit
	if !ok {
		warn(FieldPricingUnit, ReasonUnrecognized, rawUnit)
	}

	if _, passthrough := m.Column(FieldCutCost); passthrough {
		rawCost := cell(FieldCutCost)
		cost, reason := ParsePrice(rawCost)
		if reason != "" {
			warn(FieldCutCost, reason, rawCost)
		}
		row.Price = cost
		row.CutCost = cost
		return row, warnings
	}

	rawPrice := cell(FieldPrice)
	price, reason := ParsePrice(rawPrice)
	row.Price = price
	if reason != "" {
		warn(FieldPrice, reason, rawPrice)
	}
	if reason == "" || reason == ReasonDecimalComma {
		row.CutCost = t.costs.CutCost(price, unit)
	} else {
		row.CutCost = decimal.Zero
	}
	return row, warnings
}

// skuKey is the identity used for duplicate detection within a batch.
func skuKey(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}

// collapseDuplicates keeps only the last row for each manufacturer and SKU,
// at the position of that last occurrence. Rows without a SKU are all kept.
func collapseDuplicates(rows []CanonicalRow) []CanonicalRow {
	type productKey struct{ vendor, sku string }

	last := make(map[productKey]int, len(rows))
	for i, r := range rows {
		if k := skuKey(r.SKU); k != "" {
			last[productKey{r.Manufacturer, k}] = i
		}
	}

	kept := make([]CanonicalRow, 0, len(rows))
	for i, r := range rows {
		if k := skuKey(r.SKU); k != "" && last[productKey{r.Manufacturer, k}] != i {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
