package store

import (
	"strings"

	"github.com/JonMunkholm/b2bconvert/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

/* ----------------------------------------
	Pgx Helpers
---------------------------------------- */

// toPgNumeric converts a decimal to a NUMERIC parameter. Conversion never
// fails for a value produced by decimal, so an invalid result means NULL.
func toPgNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// decimalFromText parses a NUMERIC rendered as text. Empty text is zero.
func decimalFromText(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// distinctVendors lists each manufacturer once in first-seen order.
func distinctVendors(rows []core.CanonicalRow) []string {
	seen := make(map[string]struct{}, 8)
	var names []string
	for _, r := range rows {
		if _, ok := seen[r.Manufacturer]; ok {
			continue
		}
		seen[r.Manufacturer] = struct{}{}
		names = append(names, r.Manufacturer)
	}
	return names
}
