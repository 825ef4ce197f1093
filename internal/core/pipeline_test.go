package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildCSV renders records as CSV text.
func buildCSV(t testing.TB, records ...[]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll(records))
	return buf.Bytes()
}

// vendorSheet generates n rows of a typical vendor price list with unique
// SKUs. The seed keeps the fixture stable across runs.
func vendorSheet(t testing.TB, n int) []byte {
	t.Helper()
	faker := gofakeit.New(42)
	units := []string{"SF", "sq yd", "EA", "LF", "CTN"}

	records := [][]string{{"Brand", "Style", "Colour", "Item Number", "UOM", "Cost"}}
	for i := 0; i < n; i++ {
		records = append(records, []string{
			faker.Company(),
			faker.Word() + " " + faker.Word(),
			faker.Color(),
			fmt.Sprintf("SKU-%05d", i),
			units[i%len(units)],
			fmt.Sprintf("%.2f", faker.Price(1, 80)),
		})
	}
	return buildCSV(t, records...)
}

func testConverter() *Converter {
	return NewConverter(ConverterSettings{
		CutCosts: CutCostTable{UnitSquareFoot: decimal.RequireFromString("0.10")},
	})
}

func readOutput(t testing.TB, out []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestConverter_SynonymExample(t *testing.T) {
	in := buildCSV(t,
		[]string{"Item", "Hue", "SKU#", "Cost"},
		[]string{"Berber", "Sand", "B-1", "4.25"},
	)

	res, err := testConverter().Preview(context.Background(), bytes.NewReader(in), Options{})
	require.NoError(t, err)

	assert.False(t, res.AlreadyB2B)
	assert.Nil(t, res.Sample)
	require.Len(t, res.RowsPreview, 1)

	row := res.RowsPreview[0]
	assert.Equal(t, "Berber", row.StyleName)
	assert.Equal(t, "Sand", row.ColorName)
	assert.Equal(t, "B-1", row.SKU)
	assert.Equal(t, "4.25", row.Price.StringFixed(2))
	assert.Equal(t, "", row.Manufacturer)
	assert.Equal(t, "", row.ProductType)
	assert.Equal(t, 1, res.Warnings.ByReason[ReasonUnresolved])

	res, err = testConverter().Preview(context.Background(), bytes.NewReader(in), Options{ManufacturerOverride: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", res.RowsPreview[0].Manufacturer)
	assert.Zero(t, res.Warnings.Count)
}

func TestConverter_PreviewTruncatesButCountsAll(t *testing.T) {
	in := vendorSheet(t, 250)

	res, err := testConverter().Preview(context.Background(), bytes.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Len(t, res.RowsPreview, DefaultPreviewLimit)
	assert.Equal(t, 250, res.TotalRows)
	assert.Equal(t, "SKU-00000", res.RowsPreview[0].SKU)
	assert.Equal(t, "SKU-00199", res.RowsPreview[DefaultPreviewLimit-1].SKU)
}

func TestConverter_PreviewLimitSetting(t *testing.T) {
	c := NewConverter(ConverterSettings{PreviewLimit: 5})
	res, err := c.Preview(context.Background(), bytes.NewReader(vendorSheet(t, 12)), Options{})
	require.NoError(t, err)

	assert.Equal(t, 5, c.PreviewLimit())
	assert.Len(t, res.RowsPreview, 5)
	assert.Equal(t, 12, res.TotalRows)
}

func TestConverter_ConvertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := testConverter()

	var first bytes.Buffer
	sum1, err := c.Convert(ctx, bytes.NewReader(vendorSheet(t, 40)), Options{}, &first)
	require.NoError(t, err)
	assert.False(t, sum1.AlreadyB2B)

	var second bytes.Buffer
	sum2, err := c.Convert(ctx, bytes.NewReader(first.Bytes()), Options{}, &second)
	require.NoError(t, err)
	assert.True(t, sum2.AlreadyB2B)
	assert.Equal(t, sum1.TotalRows, sum2.TotalRows)

	assert.Equal(t, first.String(), second.String())
}

func TestConverter_ConvertWritesCanonicalHeaderFirst(t *testing.T) {
	in := buildCSV(t,
		[]string{"Brand", "Style", "Color", "SKU", "Unit", "Price", "Category"},
		[]string{"Acme", "Berber", "Sand", "B-1", "sq ft", "2.50", "Carpet"},
	)

	var out bytes.Buffer
	sum, err := testConverter().Convert(context.Background(), bytes.NewReader(in), Options{}, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalRows)

	records := readOutput(t, out.Bytes())
	require.Len(t, records, 2)
	assert.Equal(t, CanonicalHeaders, records[0])
	assert.Equal(t, []string{"Acme", "Berber", "Sand", "B-1", "CAR", "SF", "2.60"}, records[1])
}

func TestConverter_HeaderOnlyFile(t *testing.T) {
	var out bytes.Buffer
	sum, err := testConverter().Convert(context.Background(), bytes.NewReader(buildCSV(t, CanonicalHeaders)), Options{}, &out)
	require.NoError(t, err)

	assert.True(t, sum.AlreadyB2B)
	assert.Zero(t, sum.TotalRows)
	assert.Equal(t, [][]string{CanonicalHeaders}, readOutput(t, out.Bytes()))
}

func TestConverter_NonNumericPriceKeepsRow(t *testing.T) {
	in := buildCSV(t,
		[]string{"Brand", "Style", "SKU", "Unit", "Price"},
		[]string{"Acme", "One", "A", "SF", "1.00"},
		[]string{"Acme", "Two", "B", "pallet", "abc"},
		[]string{"Acme", "Three", "C", "SF", "3.00"},
	)

	rows, sum, err := testConverter().Collect(context.Background(), bytes.NewReader(in), Options{})
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, 3, sum.TotalRows)
	assert.Equal(t, "Two", rows[1].StyleName)
	assert.True(t, rows[1].Price.IsZero())
	assert.True(t, rows[1].CutCost.IsZero())
	assert.Equal(t, UnitEach, rows[1].PricingUnit)

	assert.Equal(t, 2, sum.Warnings.Count)
	assert.Equal(t, 1, sum.Warnings.ByReason[ReasonUnparsable])
	assert.Equal(t, 1, sum.Warnings.ByReason[ReasonUnrecognized])
	for _, w := range sum.Warnings.Rows {
		assert.Equal(t, 3, w.Line, "warnings point at the source line")
	}
}

func TestConverter_HugeExponentPriceIsUnparsable(t *testing.T) {
	for _, cell := range []string{"1e2000000", "1e-2000000"} {
		t.Run(cell, func(t *testing.T) {
			in := "Item,SKU,Cost\nOak,A1," + cell + "\n"

			var out bytes.Buffer
			sum, err := testConverter().Convert(context.Background(), strings.NewReader(in), Options{}, &out)
			require.NoError(t, err)

			assert.Less(t, out.Len(), 200, "output must not expand the exponent")
			records := readOutput(t, out.Bytes())
			require.Len(t, records, 2)
			assert.Equal(t, "A1", records[1][3])
			assert.Equal(t, "0.00", records[1][6])
			assert.Equal(t, 1, sum.Warnings.ByReason[ReasonUnparsable])
		})
	}
}

func TestConverter_DecimalCommaPrice(t *testing.T) {
	in := "Style;SKU;UOM;Price\nBerber;B-1;SF;\"4,50\"\n"

	rows, sum, err := testConverter().Collect(context.Background(), strings.NewReader(in), Options{})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "4.50", rows[0].Price.StringFixed(2))
	assert.Equal(t, "4.60", rows[0].CutCost.StringFixed(2))
	assert.Equal(t, 1, sum.Warnings.ByReason[ReasonDecimalComma])
	var priceWarning *RowWarning
	for i := range sum.Warnings.Rows {
		if sum.Warnings.Rows[i].Field == FieldPrice {
			priceWarning = &sum.Warnings.Rows[i]
		}
	}
	require.NotNil(t, priceWarning)
	assert.Equal(t, ReasonDecimalComma, priceWarning.Reason)
	assert.Equal(t, "4,50", priceWarning.Value)
}

func TestConverter_ManufacturerOverride(t *testing.T) {
	in := buildCSV(t,
		[]string{"Manufacturer", "Style", "SKU", "Price"},
		[]string{"Acme", "One", "A", "1"},
		[]string{"Acme", "Two", "B", "2"},
		[]string{"", "Three", "C", "3"},
	)

	tests := []struct {
		name  string
		opts  Options
		wants []string
	}{
		{"forced override wins", Options{ManufacturerOverride: "Beta", ForceManufacturer: true}, []string{"Beta", "Beta", "Beta"}},
		{"column wins over fallback", Options{ManufacturerOverride: "Beta"}, []string{"Acme", "Acme", "Beta"}},
		{"column only", Options{}, []string{"Acme", "Acme", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, _, err := testConverter().Collect(context.Background(), bytes.NewReader(in), tt.opts)
			require.NoError(t, err)
			got := make([]string, len(rows))
			for i, r := range rows {
				got[i] = r.Manufacturer
			}
			assert.Equal(t, tt.wants, got)
		})
	}
}

func TestConverter_ShadowedColumnReported(t *testing.T) {
	in := buildCSV(t,
		[]string{"SKU", "Style", "Cost", "Price"},
		[]string{"A", "One", "9.99", "5.00"},
	)

	rows, sum, err := testConverter().Collect(context.Background(), bytes.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Equal(t, "5.00", rows[0].Price.StringFixed(2))
	require.Len(t, sum.Mapping.Shadowed, 1)
	assert.Equal(t, "Cost", sum.Mapping.Shadowed[0].Header)
	assert.Equal(t, "Price", sum.Mapping.Shadowed[0].Winner)
}

func TestConverter_SkipsPreamble(t *testing.T) {
	in := []byte("Acme Flooring Price List\nEffective 2024-01-01,,\n\nStyle,Color,SKU,Price\nBerber,Sand,B-1,4.00\n")

	rows, sum, err := testConverter().Collect(context.Background(), bytes.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Equal(t, 4, sum.HeaderLine)
	require.Len(t, rows, 1)
	assert.Equal(t, "B-1", rows[0].SKU)
}

func TestConverter_FirstQualifyingHeaderWins(t *testing.T) {
	in := "Style,SKU,Price\n" +
		"Berber,B-1,4.00\n" +
		"Brand,Style,Colour,SKU,UOM,Price\n" +
		"Acme,Loop,Gray,L-1,SF,2.00\n"

	rows, sum, err := testConverter().Collect(context.Background(), strings.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.HeaderLine)
	require.Len(t, rows, 3, "a wider record below the header is data, not a new header")
	assert.Equal(t, "B-1", rows[0].SKU)
	assert.Equal(t, "4.00", rows[0].Price.StringFixed(2))
}

func TestConverter_FindsCanonicalHeaderBelowTitle(t *testing.T) {
	in := append([]byte("B2B export\n"), buildCSV(t,
		CanonicalHeaders,
		[]string{"Acme", "Berber", "Sand", "B-1", "CAR", "SF", "2.60"},
	)...)

	res, err := testConverter().Preview(context.Background(), bytes.NewReader(in), Options{})
	require.NoError(t, err)

	assert.True(t, res.AlreadyB2B)
	require.Len(t, res.Sample, 1)
	assert.Nil(t, res.RowsPreview)
	assert.Equal(t, "2.60", res.Sample[0].CutCost.StringFixed(2))
}

func TestConverter_SniffsDelimiter(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"semicolon", "Style;SKU;Price\nBerber;B-1;\"4,50\"\n"},
		{"tab", "Style\tSKU\tPrice\nBerber\tB-1\t4.50\n"},
		{"pipe", "Style|SKU|Price\nBerber|B-1|4.50\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, _, err := testConverter().Collect(context.Background(), strings.NewReader(tt.in), Options{})
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "B-1", rows[0].SKU)
			assert.Equal(t, "Berber", rows[0].StyleName)
		})
	}
}

func TestConverter_InchMarksAndRaggedRows(t *testing.T) {
	in := "Style,Color,SKU,Price\nTile 12\" x 24\",Gray,T-1,5.00\nShort,Row\n"

	rows, sum, err := testConverter().Collect(context.Background(), strings.NewReader(in), Options{})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, `Tile 12" x 24"`, rows[0].StyleName)
	assert.Equal(t, "", rows[1].SKU)
	assert.Equal(t, 2, sum.TotalRows)
}

func TestConverter_Windows1252(t *testing.T) {
	in := []byte("Style,Color,SKU,Price\nCaf\xe9,Cr\xe8me,C-1,\x80 3.00\n")

	rows, sum, err := testConverter().Collect(context.Background(), bytes.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Equal(t, EncodingWindows1252, sum.Encoding)
	require.Len(t, rows, 1)
	assert.Equal(t, "Café", rows[0].StyleName)
	assert.Equal(t, "Crème", rows[0].ColorName)
	assert.Equal(t, "3.00", rows[0].Price.StringFixed(2))
}

func TestConverter_Workbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Vendor", "Style", "Color", "SKU", "Price"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Acme", "Berber", "Sand", "B-1", 4.5}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Acme", "Loop", "Ash", "B-2", 6}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, sum, err := testConverter().Collect(context.Background(), bytes.NewReader(buf.Bytes()), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.TotalRows)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0].Manufacturer)
	assert.Equal(t, "4.50", rows[0].Price.StringFixed(2))
	assert.Equal(t, "B-2", rows[1].SKU)
}

func TestConverter_DuplicateSKUWarns(t *testing.T) {
	in := buildCSV(t,
		[]string{"Brand", "Style", "SKU", "Price"},
		[]string{"Acme", "One", "A-1", "1"},
		[]string{"Acme", "Two", " a-1 ", "2"},
		[]string{"Acme", "Three", "A-2", "3"},
	)

	rows, sum, err := testConverter().Collect(context.Background(), bytes.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Len(t, rows, 3, "duplicates are flagged, not dropped")
	assert.Equal(t, 1, sum.Warnings.ByReason[ReasonDuplicate])
	assert.Equal(t, 3, sum.Warnings.Rows[0].Line)
}

func TestConverter_WarningDetailsCapped(t *testing.T) {
	records := [][]string{{"Brand", "Style", "SKU", "Price"}}
	for i := 0; i < 80; i++ {
		records = append(records, []string{"Acme", "Style", fmt.Sprintf("S%d", i), "n/a"})
	}

	_, sum, err := testConverter().Collect(context.Background(), bytes.NewReader(buildCSV(t, records...)), Options{})
	require.NoError(t, err)

	assert.Equal(t, 80, sum.Warnings.Count)
	assert.Len(t, sum.Warnings.Rows, MaxWarningDetails)
}

func TestConverter_FatalErrors(t *testing.T) {
	tests := []struct {
		name   string
		in     []byte
		target error
	}{
		{"empty input", nil, ErrEmptyFile},
		{"only blank lines", []byte("\n\n \n,,\n"), ErrNoHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := testConverter().Convert(context.Background(), bytes.NewReader(tt.in), Options{}, &out)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestConverter_BinaryInputIsParseError(t *testing.T) {
	in := []byte("Style,SKU,Price\nBerber,B-1,1.00\nBad\x00Row,B-2,2.00\n")

	_, err := testConverter().Preview(context.Background(), bytes.NewReader(in), Options{})

	var pe *ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, 3, pe.Line)
	assert.ErrorIs(t, err, errBinaryContent)
}

func TestConverter_BrokenWorkbookIsParseError(t *testing.T) {
	in := append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0xff}, 64)...)

	_, err := testConverter().Preview(context.Background(), bytes.NewReader(in), Options{})

	var pe *ParseError
	assert.True(t, errors.As(err, &pe), "got %v", err)
}

func TestConverter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testConverter().Preview(ctx, bytes.NewReader(vendorSheet(t, 10)), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConverter_ExtendedLayout(t *testing.T) {
	in := buildCSV(t,
		[]string{"Brand", "Style", "Color", "SKU", "Price"},
		[]string{"Acme", "Berber", "Sand", "B-1", "4"},
	)

	var out bytes.Buffer
	_, err := testConverter().Convert(context.Background(), bytes.NewReader(in), Options{Layout: LayoutExtended}, &out)
	require.NoError(t, err)

	records := readOutput(t, out.Bytes())
	require.Len(t, records, 2)
	assert.Equal(t, LayoutExtended.Headers(), records[0])
	assert.True(t, NewDetector(0).IsCanonical(records[0]), "extended exports must still detect as B2B")

	byHeader := map[string]string{}
	for i, h := range records[0] {
		byHeader[h] = records[1][i]
	}
	assert.Equal(t, "Berber", byHeader["Style Number"])
	assert.Equal(t, "4.00", byHeader[HeaderCutCost])
	assert.Equal(t, "1", byHeader["Display Online"])
	assert.Equal(t, "0", byHeader["Is Promo"])
}

func TestConverter_RunEmitsEveryRowInOrder(t *testing.T) {
	var lines []int
	sum, err := testConverter().Run(context.Background(), bytes.NewReader(vendorSheet(t, 30)), Options{},
		func(_ CanonicalRow, _ []RowWarning) error {
			lines = append(lines, len(lines))
			return nil
		})
	require.NoError(t, err)
	assert.Len(t, lines, 30)
	assert.Equal(t, 30, sum.TotalRows)

	stop := errors.New("stop")
	_, err = testConverter().Run(context.Background(), bytes.NewReader(vendorSheet(t, 30)), Options{},
		func(CanonicalRow, []RowWarning) error { return stop })
	assert.ErrorIs(t, err, stop)
}
