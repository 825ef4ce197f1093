package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransformer() *Transformer {
	return NewTransformer(CutCostTable{
		UnitSquareFoot: decimal.RequireFromString("0.10"),
		UnitSquareYard: decimal.RequireFromString("0.90"),
	})
}

func reasons(ws []RowWarning) map[Field]WarningReason {
	out := make(map[Field]WarningReason, len(ws))
	for _, w := range ws {
		out[w.Field] = w.Reason
	}
	return out
}

func TestTransform_MappedRow(t *testing.T) {
	headers := []string{"Brand", "Style", "Color", "SKU", "Unit", "Price"}
	m := NewMapper().MapHeaders(headers)
	raw := RawRow{Line: 2, Headers: headers, Values: []string{"Acme", "Berber Plus", "Sand", `="00123"`, "sq ft", "$2.50"}}

	row, warnings := testTransformer().Transform(raw, m, ManufacturerContext{})

	assert.Empty(t, warnings)
	assert.Equal(t, "Acme", row.Manufacturer)
	assert.Equal(t, "Berber Plus", row.StyleName)
	assert.Equal(t, "Sand", row.ColorName)
	assert.Equal(t, "00123", row.SKU)
	assert.Equal(t, UnitSquareFoot, row.PricingUnit)
	assert.Equal(t, "2.50", row.Price.StringFixed(2))
	assert.Equal(t, "2.60", row.CutCost.StringFixed(2))
	assert.Equal(t, "", row.ProductType)
}

func TestTransform_BadPriceStillEmitted(t *testing.T) {
	headers := []string{"Style", "SKU", "Unit", "Price"}
	m := NewMapper().MapHeaders(headers)
	raw := RawRow{Line: 7, Headers: headers, Values: []string{"Berber", "X1", "bogus", "abc"}}

	row, warnings := testTransformer().Transform(raw, m, ManufacturerContext{Override: "Acme"})

	assert.True(t, row.Price.IsZero())
	assert.True(t, row.CutCost.IsZero())
	assert.Equal(t, UnitEach, row.PricingUnit)
	assert.Equal(t, "Acme", row.Manufacturer)
	assert.Equal(t, map[Field]WarningReason{
		FieldPricingUnit: ReasonUnrecognized,
		FieldPrice:       ReasonUnparsable,
	}, reasons(warnings))
	for _, w := range warnings {
		assert.Equal(t, 7, w.Line)
	}
}

func TestTransform_ShortRowAndMissingColumns(t *testing.T) {
	headers := []string{"Style", "SKU", "Price"}
	m := NewMapper().MapHeaders(headers)
	raw := RawRow{Line: 3, Headers: headers, Values: []string{""}}

	row, warnings := testTransformer().Transform(raw, m, ManufacturerContext{})

	assert.Equal(t, "", row.SKU)
	assert.Equal(t, UnitEach, row.PricingUnit)
	assert.Equal(t, map[Field]WarningReason{
		FieldManufacturer: ReasonUnresolved,
		FieldStyleName:    ReasonMissing,
		FieldSKU:          ReasonMissing,
		FieldPrice:        ReasonMissing,
	}, reasons(warnings))
}

func TestTransform_ProductTypeFromGroupAndMaterial(t *testing.T) {
	headers := []string{"Category", "Material", "Style", "SKU", "Price"}
	m := NewMapper().MapHeaders(headers)
	raw := RawRow{Line: 2, Headers: headers, Values: []string{"Carpet", "Tile", "Mod", "CT-1", "19.99"}}

	row, _ := testTransformer().Transform(raw, m, ManufacturerContext{Override: "Acme"})
	assert.Equal(t, "CARTIL", row.ProductType)
}

func TestTransform_Passthrough(t *testing.T) {
	m := NewDetector(0).CanonicalMapping(CanonicalHeaders)
	raw := RawRow{
		Line:    2,
		Headers: CanonicalHeaders,
		Values:  []string{"Acme", "Berber", "Sand", "AC-1", "CAR", "SF", "2.60"},
	}

	row, warnings := testTransformer().Transform(raw, m, ManufacturerContext{})

	assert.Empty(t, warnings)
	assert.Equal(t, "2.60", row.CutCost.StringFixed(2), "stated cut cost is kept, not re-derived")
	assert.True(t, row.Price.Equal(row.CutCost))
	assert.Equal(t, "CAR", row.ProductType)
	assert.Equal(t, UnitSquareFoot, row.PricingUnit)
	assert.Equal(t, LayoutCanonical.Record(row), raw.Values)
}

func TestTransform_PassthroughBadCutCost(t *testing.T) {
	m := NewDetector(0).CanonicalMapping(CanonicalHeaders)
	raw := RawRow{Line: 4, Headers: CanonicalHeaders, Values: []string{"Acme", "Berber", "Sand", "AC-1", "", "EA", "n/a"}}

	row, warnings := testTransformer().Transform(raw, m, ManufacturerContext{})

	assert.True(t, row.CutCost.IsZero())
	require.Len(t, warnings, 1)
	assert.Equal(t, RowWarning{Line: 4, Field: FieldCutCost, Reason: ReasonUnparsable, Value: "n/a"}, warnings[0])
}

func TestTransform_CutCostDependsOnlyOnPriceAndUnit(t *testing.T) {
	headers := []string{"Brand", "Style", "SKU", "UOM", "Cost"}
	m := NewMapper().MapHeaders(headers)
	tr := testTransformer()

	a, _ := tr.Transform(RawRow{Line: 2, Headers: headers, Values: []string{"Acme", "One", "A", "SY", "10.00"}}, m, ManufacturerContext{})
	b, _ := tr.Transform(RawRow{Line: 3, Headers: headers, Values: []string{"Beta", "Two", "B", "sq yd", "$10"}}, m, ManufacturerContext{})

	assert.Equal(t, "10.90", a.CutCost.StringFixed(2))
	assert.True(t, a.CutCost.Equal(b.CutCost))
}

func TestCollapseDuplicates(t *testing.T) {
	rows := []CanonicalRow{
		{Manufacturer: "Acme", SKU: "A-1", StyleName: "first"},
		{Manufacturer: "Acme", SKU: ""},
		{Manufacturer: "Beta", SKU: "A-1"},
		{Manufacturer: "Acme", SKU: " a-1 ", StyleName: "last"},
		{Manufacturer: "Acme", SKU: ""},
	}

	got := collapseDuplicates(rows)

	require.Len(t, got, 4)
	assert.Equal(t, "", got[0].SKU)
	assert.Equal(t, "Beta", got[1].Manufacturer)
	assert.Equal(t, "last", got[2].StyleName)
	assert.Equal(t, "", got[3].SKU)
	assert.Len(t, rows, 5, "input is left untouched")
}
