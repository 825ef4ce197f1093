package core

// convert.go holds the cell-level parsers shared by the transformer and the
// HTTP form handlers.

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numericRegex validates a cleaned numeric string before decimal parsing.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// currencyReplacer strips currency symbols and the spaces that spreadsheet
// exports leave in price cells. Commas are resolved afterwards.
var currencyReplacer = strings.NewReplacer(
	"$", "",
	"\u20ac", "", // Euro
	"\u00a3", "", // Pound
	"USD", "",
	"\u00a0", "",
	" ", "",
)

// Price magnitude bounds. A cell outside them is unparsable rather than
// expanded: exponent notation would otherwise turn a short cell into a value
// with millions of digits.
const (
	maxPriceIntegerDigits  = 15
	maxPriceFractionDigits = 20
)

// ParsePrice parses a vendor price cell. It accepts currency symbols,
// thousands separators and the accounting format for negatives "(12.50)".
//
// On failure it returns zero and the reason: ReasonMissing for an empty cell,
// ReasonUnparsable for text or an out-of-range magnitude, ReasonNegative for
// a value below zero. An empty reason means the price is valid.
//
// A comma followed by one or two trailing digits ("12,50", "1.234,5") is read
// as a decimal comma. The value is returned with ReasonDecimalComma so the
// caller can flag the reinterpretation.
func ParsePrice(s string) (decimal.Decimal, WarningReason) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ReasonMissing
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = currencyReplacer.Replace(s)
	comma := decimalComma(s)
	if comma {
		i := strings.LastIndexByte(s, ',')
		s = strings.ReplaceAll(s[:i], ".", "") + "." + s[i+1:]
	}
	s = strings.ReplaceAll(s, ",", "")

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, ReasonUnparsable
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ReasonUnparsable
	}
	if !priceInRange(d) {
		return decimal.Zero, ReasonUnparsable
	}
	if d.IsNegative() {
		return decimal.Zero, ReasonNegative
	}
	if comma {
		return d, ReasonDecimalComma
	}
	return d, ""
}

// decimalComma reports whether the last comma in s follows every period and
// is followed by exactly one or two digits. Thousands groups always have
// three digits, so such a comma can only be a decimal separator.
func decimalComma(s string) bool {
	i := strings.LastIndexByte(s, ',')
	if i < 0 || strings.LastIndexByte(s, '.') > i {
		return false
	}
	frac := s[i+1:]
	if len(frac) == 0 || len(frac) > 2 {
		return false
	}
	for j := 0; j < len(frac); j++ {
		if frac[j] < '0' || frac[j] > '9' {
			return false
		}
	}
	return true
}

// priceInRange checks the exponent before anything that would expand the
// coefficient, then the number of integer digits.
func priceInRange(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	if exp > maxPriceIntegerDigits || exp < -maxPriceFractionDigits {
		return false
	}
	return d.NumDigits()+exp <= maxPriceIntegerDigits
}

// CleanCell removes common spreadsheet artifacts from a cell value:
//   - Trims whitespace
//   - Unwraps the Excel text formula ="..."
//   - Drops a leading '=' or the apostrophe Excel uses to force text
//   - Removes matching surrounding quotes
//
// A lone trailing quote, as in an inch mark (12"), is kept. Cleaning is
// repeated until the value is stable, so CleanCell(CleanCell(s)) == CleanCell(s).
func CleanCell(s string) string {
	for {
		cleaned := cleanCellOnce(s)
		if cleaned == s {
			return cleaned
		}
		s = cleaned
	}
}

func cleanCellOnce(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") || strings.HasPrefix(s, "'") && !strings.HasSuffix(s, "'") {
		s = s[1:]
	}

	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			s = s[1 : len(s)-1]
		}
	}

	return strings.TrimSpace(s)
}

// ParseBool interprets a form or CSV flag. It accepts true/false, yes/no,
// t/f, y/n, on/off and 1/0; anything else is false.
func ParseBool(s string) bool {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "true", "t", "yes", "y", "1", "on":
		return true
	default:
		return false
	}
}
