package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingUnit is the unit a vendor price is quoted in.
type PricingUnit string

const (
	UnitEach        PricingUnit = "EA"
	UnitSquareFoot  PricingUnit = "SF"
	UnitSquareYard  PricingUnit = "SY"
	UnitLinearFoot  PricingUnit = "LF"
	UnitCarton      PricingUnit = "CT"
	DefaultUnit                 = UnitEach
)

// DefaultCurrency is reported for every exported price.
const DefaultCurrency = "USD"

// PricingUnits lists every unit in a stable order.
var PricingUnits = []PricingUnit{UnitEach, UnitSquareFoot, UnitSquareYard, UnitLinearFoot, UnitCarton}

// Valid reports whether u is one of the known units.
func (u PricingUnit) Valid() bool {
	for _, known := range PricingUnits {
		if u == known {
			return true
		}
	}
	return false
}

// Field identifies a target of the column mapper.
type Field string

const (
	FieldManufacturer Field = "manufacturer"
	FieldStyleName    Field = "style_name"
	FieldColorName    Field = "color_name"
	FieldSKU          Field = "sku"
	FieldProductType  Field = "product_type"
	FieldPricingUnit  Field = "pricing_unit"
	FieldPrice        Field = "price"
	FieldCutCost      Field = "cut_cost"

	// Auxiliary inputs, only used to infer the product type.
	FieldProductGroup Field = "product_group"
	FieldMaterialType Field = "material_type"
)

// CanonicalRow is one product line in the B2B schema.
// JSON keys follow the serialized B2B header names.
type CanonicalRow struct {
	Manufacturer string          `json:"~~Manufacturer"`
	StyleName    string          `json:"Style Name"`
	ColorName    string          `json:"Color Name"`
	SKU          string          `json:"SKU"`
	ProductType  string          `json:"Product Type"`
	PricingUnit  PricingUnit     `json:"Pricing Unit"`
	Price        decimal.Decimal `json:"Price"`
	CutCost      decimal.Decimal `json:"Cut Cost"`
}

// RawRow is a single source record. Headers is shared by every row of a file;
// columns are addressed by index so repeated header names never collide.
type RawRow struct {
	Line    int
	Headers []string
	Values  []string
}

// Value returns the cell at idx, or "" when the row is short.
func (r RawRow) Value(idx int) string {
	if idx < 0 || idx >= len(r.Values) {
		return ""
	}
	return r.Values[idx]
}

// WarningReason classifies a recoverable row problem.
type WarningReason string

const (
	ReasonUnparsable   WarningReason = "unparsable"
	ReasonNegative     WarningReason = "negative"
	ReasonMissing      WarningReason = "missing"
	ReasonUnrecognized WarningReason = "unrecognized"
	ReasonUnresolved   WarningReason = "unresolved"
	ReasonDuplicate    WarningReason = "duplicate"
	// ReasonDecimalComma flags a price kept after reading its comma as the
	// decimal separator.
	ReasonDecimalComma WarningReason = "decimal_comma"
)

// RowWarning records a value that was defaulted or flagged. The row itself is
// always emitted.
type RowWarning struct {
	Line   int           `json:"line"`
	Field  Field         `json:"field"`
	Reason WarningReason `json:"reason"`
	Value  string        `json:"value,omitempty"`
}

// WarningSummary aggregates row warnings for a whole file.
type WarningSummary struct {
	Count    int                   `json:"count"`
	ByReason map[WarningReason]int `json:"by_reason"`
	Rows     []RowWarning          `json:"rows"`
}

// Options are the per-request inputs of a conversion.
type Options struct {
	FileName             string
	ManufacturerOverride string
	ForceManufacturer    bool
	Layout               Layout
}

// Summary describes a finished pipeline run.
type Summary struct {
	AlreadyB2B bool           `json:"already_b2b"`
	TotalRows  int            `json:"total_rows"`
	HeaderLine int            `json:"header_line"`
	Encoding   string         `json:"encoding"`
	BytesRead  int64          `json:"-"`
	Mapping    MappingReport  `json:"mapping"`
	Warnings   WarningSummary `json:"warnings"`
	Duration   time.Duration  `json:"-"`
}

// PreviewResult is returned by Preview. Exactly one of Sample (canonical
// input) or RowsPreview (mapped input) is populated.
type PreviewResult struct {
	AlreadyB2B  bool           `json:"already_b2b"`
	Sample      []CanonicalRow `json:"sample,omitempty"`
	RowsPreview []CanonicalRow `json:"rows_preview,omitempty"`
	TotalRows   int            `json:"total_rows"`
	Warnings    WarningSummary `json:"warnings"`
	Mapping     MappingReport  `json:"mapping"`
}

// ImportBatch identifies one stored upload.
type ImportBatch struct {
	ID         uuid.UUID
	FileName   string
	AlreadyB2B bool
	Warnings   int
	Meta       RequestMetadata
	CreatedAt  time.Time
}

// ImportResult is returned by Import.
type ImportResult struct {
	BatchID    uuid.UUID `json:"batch_id"`
	Imported   int       `json:"imported"`
	Merged     int       `json:"merged"` // rows replaced by a later row with the same manufacturer and SKU
	AlreadyB2B bool      `json:"already_b2b"`
	Warnings   int       `json:"warnings"`
}

// StoredProduct is a product row as kept by a ProductStore.
type StoredProduct struct {
	Vendor      string          `json:"vendor"`
	SKU         string          `json:"sku"`
	Style       string          `json:"style"`
	Color       string          `json:"color"`
	ProductType string          `json:"product_type"`
	PricingUnit string          `json:"pricing_unit"`
	Price       decimal.Decimal `json:"price"`
	CutCost     decimal.Decimal `json:"cut_cost"`
	Currency    string          `json:"currency"`
}

// ProductStore persists converted rows. Implementations must store a batch
// atomically: either every row is written or none. Import hands over at most
// one row per manufacturer and case-folded SKU. ImportRows returns the number
// of products written.
type ProductStore interface {
	ImportRows(ctx context.Context, batch ImportBatch, rows []CanonicalRow) (int, error)
	ListProducts(ctx context.Context) ([]StoredProduct, error)
}
