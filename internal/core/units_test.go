package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		in     string
		want   PricingUnit
		wantOK bool
	}{
		{"EA", UnitEach, true},
		{"each", UnitEach, true},
		{"Pcs", UnitEach, true},
		{"SF", UnitSquareFoot, true},
		{"sq. ft.", UnitSquareFoot, true},
		{"Sq-Ft", UnitSquareFoot, true},
		{"square feet", UnitSquareFoot, true},
		{"SY", UnitSquareYard, true},
		{"sq yd", UnitSquareYard, true},
		{"LF", UnitLinearFoot, true},
		{"lin. ft", UnitLinearFoot, true},
		{"CTN", UnitCarton, true},
		{"box", UnitCarton, true},
		{"", UnitEach, true},
		{"   ", UnitEach, true},
		{"pallet", UnitEach, false},
		{"??", UnitEach, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeUnit(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestNormalizeUnit_CanonicalValuesAreStable(t *testing.T) {
	for _, u := range PricingUnits {
		got, ok := NormalizeUnit(string(u))
		assert.True(t, ok, "unit %s", u)
		assert.Equal(t, u, got)
	}
}

func TestResolveProductType(t *testing.T) {
	tests := []struct {
		name                      string
		explicit, group, material string
		want                      string
	}{
		{"explicit material name", "Carpet", "", "", "CAR"},
		{"explicit code kept", "CAR", "", "", "CAR"},
		{"explicit unknown kept verbatim", "Sheet Goods", "Vinyl", "", "Sheet Goods"},
		{"explicit beats group", "Laminate", "Carpet", "", "LAM"},
		{"group and material combined", "", "Carpet", "Tile", "CARTIL"},
		{"material and group combined", "", "Plank", "Luxury Vinyl", "VINLVP"},
		{"group alone", "", "Hardwood", "", "WOO"},
		{"material alone", "", "Misc", "Porcelain", "CER"},
		{"accents and case", "", "", "CÉRAMIC", "CER"},
		{"nothing known", "", "Accessories", "Metal", ""},
		{"nothing at all", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveProductType(tt.explicit, tt.group, tt.material))
		})
	}
}

func TestParseCutCostTable(t *testing.T) {
	table, err := ParseCutCostTable([]string{"SF=0.10", " sq yd = 0.90 ", "LF=-0.05"})
	require.NoError(t, err)
	assert.True(t, table[UnitSquareFoot].Equal(decimal.RequireFromString("0.10")))
	assert.True(t, table[UnitSquareYard].Equal(decimal.RequireFromString("0.90")))
	assert.True(t, table[UnitLinearFoot].Equal(decimal.RequireFromString("-0.05")))
	_, hasEach := table[UnitEach]
	assert.False(t, hasEach)

	empty, err := ParseCutCostTable(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, bad := range []string{"SF", "=0.10", "pallet=1", "SF=abc"} {
		_, err := ParseCutCostTable([]string{bad})
		assert.Error(t, err, "entry %q", bad)
	}
}

func TestCutCostTable_CutCost(t *testing.T) {
	table := CutCostTable{
		UnitSquareFoot: decimal.RequireFromString("0.10"),
		UnitLinearFoot: decimal.RequireFromString("-1.00"),
	}
	d := decimal.RequireFromString

	tests := []struct {
		name  string
		price string
		unit  PricingUnit
		want  string
	}{
		{"surcharge added", "2.50", UnitSquareFoot, "2.60"},
		{"no surcharge for unit", "2.50", UnitEach, "2.50"},
		{"rounded half away from zero", "10.005", UnitEach, "10.01"},
		{"rounded after surcharge", "1.234", UnitSquareFoot, "1.33"},
		{"floored at zero", "0.50", UnitLinearFoot, "0.00"},
		{"zero price", "0", UnitCarton, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.CutCost(d(tt.price), tt.unit)
			assert.Equal(t, tt.want, got.StringFixed(2))
			assert.True(t, got.Equal(table.CutCost(d(tt.price), tt.unit)), "cut cost must be deterministic")
		})
	}

	var none CutCostTable
	assert.Equal(t, "4.20", none.CutCost(d("4.2"), UnitSquareYard).StringFixed(2))
}
