package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/b2bconvert/internal/config"
)

// DefaultPreviewLimit is the number of rows kept by Preview.
const DefaultPreviewLimit = 200

// MaxWarningDetails caps the per-row warnings returned with a summary. Counts
// always cover the whole file.
const MaxWarningDetails = 50

// RowFunc receives each converted row in input order. Returning an error
// aborts the run.
type RowFunc func(row CanonicalRow, warnings []RowWarning) error

// ConverterSettings configures a Converter.
type ConverterSettings struct {
	PreviewLimit     int
	DetectMinOverlap int
	HeaderSearchRows int
	CutCosts         CutCostTable
	Rules            []MappingRule
}

// Converter runs the normalization pipeline. It is immutable after
// construction and shared by concurrent requests.
type Converter struct {
	mapper           *Mapper
	detector         *Detector
	transformer      *Transformer
	previewLimit     int
	headerSearchRows int
}

// NewConverter builds a Converter, filling unset settings with defaults.
func NewConverter(s ConverterSettings) *Converter {
	if s.PreviewLimit <= 0 {
		s.PreviewLimit = DefaultPreviewLimit
	}
	if s.HeaderSearchRows <= 0 {
		s.HeaderSearchRows = DefaultHeaderSearchRows
	}
	return &Converter{
		mapper:           NewMapper(s.Rules...),
		detector:         NewDetector(s.DetectMinOverlap),
		transformer:      NewTransformer(s.CutCosts),
		previewLimit:     s.PreviewLimit,
		headerSearchRows: s.HeaderSearchRows,
	}
}

// NewConverterFromConfig builds a Converter from environment settings.
func NewConverterFromConfig(cc config.ConvertConfig) (*Converter, error) {
	costs, err := ParseCutCostTable(cc.CutCostSurcharges)
	if err != nil {
		return nil, err
	}
	return NewConverter(ConverterSettings{
		PreviewLimit:     cc.PreviewLimit,
		DetectMinOverlap: cc.DetectMinOverlap,
		HeaderSearchRows: cc.HeaderSearchRows,
		CutCosts:         costs,
	}), nil
}

// PreviewLimit returns the number of rows Preview keeps.
func (c *Converter) PreviewLimit() int {
	return c.previewLimit
}

// Run parses r, detects or maps its schema and transforms every data row,
// handing each to emit. Preview, Convert and Import differ only in emit.
//
// Parse failures, an empty file and cancellation of ctx are fatal. Row-level
// problems never are: every data row reaches emit exactly once.
func (c *Converter) Run(ctx context.Context, r io.Reader, opts Options, emit RowFunc) (*Summary, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in, err := DecodeInput(r)
	if err != nil {
		return nil, err
	}
	src, err := openRecords(in)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	header, headerLine, pending, err := c.locateHeader(src)
	if err != nil {
		return nil, err
	}

	alreadyB2B := c.detector.IsCanonical(header)
	var mapping Mapping
	if alreadyB2B {
		mapping = c.detector.CanonicalMapping(header)
	} else {
		mapping = c.mapper.MapHeaders(header)
	}

	mctx := ManufacturerContext{
		Override: strings.TrimSpace(opts.ManufacturerOverride),
		Force:    opts.ForceManufacturer,
	}
	warnings := newWarningAggregator(MaxWarningDetails)
	seenSKU := make(map[string]struct{})
	total := 0

	process := func(values []string, line int) error {
		if total%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("conversion aborted after %d rows: %w", total, err)
			}
		}

		raw := RawRow{Line: line, Headers: header, Values: values}
		row, rowWarnings := c.transformer.Transform(raw, mapping, mctx)
		if key := skuKey(row.SKU); key != "" {
			if _, dup := seenSKU[key]; dup {
				rowWarnings = append(rowWarnings, RowWarning{Line: line, Field: FieldSKU, Reason: ReasonDuplicate, Value: row.SKU})
			} else {
				seenSKU[key] = struct{}{}
			}
		}

		total++
		warnings.add(rowWarnings)
		if emit == nil {
			return nil
		}
		return emit(row, rowWarnings)
	}

	for _, rec := range pending {
		if err := process(rec.values, rec.line); err != nil {
			return nil, err
		}
	}
	for {
		values, line, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isEmptyRow(values) {
			continue
		}
		if err := process(values, line); err != nil {
			return nil, err
		}
	}

	return &Summary{
		AlreadyB2B: alreadyB2B,
		TotalRows:  total,
		HeaderLine: headerLine,
		Encoding:   in.Encoding,
		BytesRead:  in.BytesRead(),
		Mapping:    mapping.Report(),
		Warnings:   warnings.summary(),
		Duration:   time.Since(start),
	}, nil
}

// locateHeader reads up to headerSearchRows non-blank records and picks the
// header with pickHeader. Records before the header are dropped as preamble;
// those after it are returned for processing.
func (c *Converter) locateHeader(src recordSource) ([]string, int, []bufferedRecord, error) {
	var buffered []bufferedRecord
	for len(buffered) < c.headerSearchRows {
		values, line, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, nil, err
		}
		if isEmptyRow(values) {
			continue
		}
		buffered = append(buffered, bufferedRecord{values: values, line: line})
	}
	if len(buffered) == 0 {
		return nil, 0, nil, ErrNoHeader
	}

	headerIdx := c.pickHeader(buffered)
	header := buffered[headerIdx]
	return header.values, header.line, buffered[headerIdx+1:], nil
}

// pickHeader returns the index of the first canonical record, else the first
// record claiming at least minHeaderClaims mapper targets, else 0. A data row
// further down never displaces an earlier header.
func (c *Converter) pickHeader(buffered []bufferedRecord) int {
	for i, rec := range buffered {
		if c.detector.IsCanonical(rec.values) {
			return i
		}
	}
	for i, rec := range buffered {
		if c.mapper.MapHeaders(rec.values).ClaimedCount() >= minHeaderClaims {
			return i
		}
	}
	return 0
}

// Preview runs the pipeline and keeps the first PreviewLimit rows.
// TotalRows and warning counts still cover the whole file.
func (c *Converter) Preview(ctx context.Context, r io.Reader, opts Options) (*PreviewResult, error) {
	rows := make([]CanonicalRow, 0, min(c.previewLimit, 64))
	sum, err := c.Run(ctx, r, opts, func(row CanonicalRow, _ []RowWarning) error {
		if len(rows) < c.previewLimit {
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &PreviewResult{
		AlreadyB2B: sum.AlreadyB2B,
		TotalRows:  sum.TotalRows,
		Warnings:   sum.Warnings,
		Mapping:    sum.Mapping,
	}
	if sum.AlreadyB2B {
		res.Sample = rows
	} else {
		res.RowsPreview = rows
	}
	return res, nil
}

// Convert writes the full canonical CSV to w: the header row of opts.Layout
// first, then one record per data row. Callers that must not expose partial
// output write to a Spool and publish it only when Convert succeeds.
func (c *Converter) Convert(ctx context.Context, r io.Reader, opts Options, w io.Writer) (*Summary, error) {
	layout := opts.Layout
	if layout == "" {
		layout = LayoutCanonical
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(layout.Headers()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	sum, err := c.Run(ctx, r, opts, func(row CanonicalRow, _ []RowWarning) error {
		return cw.Write(layout.Record(row))
	})
	if err != nil {
		return nil, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return sum, nil
}

// Collect runs the pipeline and returns every row in input order.
func (c *Converter) Collect(ctx context.Context, r io.Reader, opts Options) ([]CanonicalRow, *Summary, error) {
	var rows []CanonicalRow
	sum, err := c.Run(ctx, r, opts, func(row CanonicalRow, _ []RowWarning) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return rows, sum, nil
}

// warningAggregator counts warnings by reason and keeps the first few.
type warningAggregator struct {
	limit    int
	count    int
	byReason map[WarningReason]int
	rows     []RowWarning
}

func newWarningAggregator(limit int) *warningAggregator {
	return &warningAggregator{limit: limit, byReason: make(map[WarningReason]int)}
}

func (a *warningAggregator) add(ws []RowWarning) {
	for _, w := range ws {
		a.count++
		a.byReason[w.Reason]++
		if len(a.rows) < a.limit {
			a.rows = append(a.rows, w)
		}
	}
}

func (a *warningAggregator) summary() WarningSummary {
	rows := a.rows
	if rows == nil {
		rows = []RowWarning{}
	}
	return WarningSummary{Count: a.count, ByReason: a.byReason, Rows: rows}
}
