package core

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ContextCheckInterval is how often, in rows, a conversion checks for
// cancellation.
var ContextCheckInterval = 100

// DefaultHeaderSearchRows is how many leading non-blank records are scanned
// for the header row.
const DefaultHeaderSearchRows = 50

// minHeaderClaims is how many mapper targets a record must claim to be taken
// as the header when it is not the first record.
const minHeaderClaims = 2

// errBinaryContent marks input that decodes but is clearly not text.
var errBinaryContent = errors.New("binary content")

// delimiterCandidates are tried in order; ties go to the earlier one.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// recordSource yields records with their 1-based source line.
type recordSource interface {
	Next() (record []string, line int, err error)
	Close() error
}

// openRecords picks the record reader for a decoded upload.
func openRecords(in *DecodedInput) (recordSource, error) {
	if in.IsWorkbook() {
		return newXLSXSource(in)
	}
	return newCSVSource(in), nil
}

// csvSource reads delimited text.
type csvSource struct {
	r *csv.Reader
}

func newCSVSource(r io.Reader) *csvSource {
	br := bufio.NewReaderSize(r, sniffSize)
	peek, _ := br.Peek(sniffSize)

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(peek)
	cr.FieldsPerRecord = -1 // vendor sheets routinely have ragged rows
	cr.LazyQuotes = true    // inch marks: 12" x 24"
	return &csvSource{r: cr}
}

func (s *csvSource) Next() ([]string, int, error) {
	record, err := s.r.Read()
	if err == io.EOF {
		return nil, 0, io.EOF
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, pe.Line, &ParseError{Line: pe.Line, Column: pe.Column, Offset: s.r.InputOffset(), Err: pe.Err}
		}
		return nil, 0, fmt.Errorf("read csv: %w", err)
	}

	line, _ := s.r.FieldPos(0)
	for _, cell := range record {
		if strings.IndexByte(cell, 0) >= 0 {
			return nil, line, &ParseError{Line: line, Offset: s.r.InputOffset(), Err: errBinaryContent}
		}
	}
	return record, line, nil
}

func (s *csvSource) Close() error { return nil }

// sniffDelimiter counts candidate delimiters outside quotes on the first line.
func sniffDelimiter(peek []byte) rune {
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}

	counts := make(map[rune]int, len(delimiterCandidates))
	inQuotes := false
	for _, r := range string(peek) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range delimiterCandidates {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// xlsxSource reads the active sheet of a workbook.
type xlsxSource struct {
	f    *excelize.File
	rows *excelize.Rows
	line int
}

func newXLSXSource(r io.Reader) (*xlsxSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("unreadable workbook: %w", err)}
	}

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			f.Close()
			return nil, &ParseError{Err: errors.New("workbook has no sheets")}
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, &ParseError{Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	return &xlsxSource{f: f, rows: rows}, nil
}

func (s *xlsxSource) Next() ([]string, int, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, s.line, &ParseError{Line: s.line + 1, Err: err}
		}
		return nil, 0, io.EOF
	}
	s.line++
	cols, err := s.rows.Columns()
	if err != nil {
		return nil, s.line, &ParseError{Line: s.line, Err: err}
	}
	return cols, s.line, nil
}

func (s *xlsxSource) Close() error {
	if err := s.rows.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// bufferedRecord is a record read ahead during header location.
type bufferedRecord struct {
	values []string
	line   int
}

// isEmptyRow reports whether every cell of a record is blank.
func isEmptyRow(record []string) bool {
	for _, cell := range record {
		if CleanCell(cell) != "" {
			return false
		}
	}
	return true
}
