package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayout(t *testing.T) {
	tests := []struct {
		in      string
		want    Layout
		wantErr bool
	}{
		{"", LayoutCanonical, false},
		{"canonical", LayoutCanonical, false},
		{" Extended ", LayoutExtended, false},
		{"EXTENDED", LayoutExtended, false},
		{"xlsx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLayout(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLayout_CanonicalRecord(t *testing.T) {
	row := CanonicalRow{
		Manufacturer: "Acme",
		StyleName:    "Berber",
		ColorName:    "Sand",
		SKU:          "B-1",
		ProductType:  "CAR",
		PricingUnit:  UnitSquareYard,
		Price:        decimal.RequireFromString("12.5"),
		CutCost:      decimal.RequireFromString("13.4"),
	}

	assert.Equal(t, CanonicalHeaders, LayoutCanonical.Headers())
	assert.Equal(t, []string{"Acme", "Berber", "Sand", "B-1", "CAR", "SY", "13.40"}, LayoutCanonical.Record(row))
	assert.Equal(t, LayoutCanonical.Record(row), Layout("").Record(row))
}

func TestLayout_ExtendedContainsCanonicalColumns(t *testing.T) {
	headers := LayoutExtended.Headers()
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	for _, h := range CanonicalHeaders {
		_, ok := index[h]
		assert.True(t, ok, "extended layout is missing %q", h)
	}

	row := CanonicalRow{StyleName: strings.Repeat("é", 100), ColorName: "Sand", CutCost: decimal.NewFromInt(3)}
	rec := LayoutExtended.Record(row)
	require.Len(t, rec, len(headers))

	assert.Equal(t, 80, len([]rune(rec[index["Style Number"]])))
	assert.Equal(t, row.StyleName, rec[index[HeaderStyleName]], "only the number column is truncated")
	assert.Equal(t, "Sand", rec[index["Color Number"]])
	assert.Equal(t, "3.00", rec[index[HeaderCutCost]])
	assert.Equal(t, "0", rec[index["Is Dropped"]])
	assert.Equal(t, "1", rec[index["Display Tags"]])
	assert.Equal(t, "", rec[index["Barcode"]])
}
