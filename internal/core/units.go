package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// unitSynonyms maps a squashed unit spelling (lower case, no dots, spaces,
// dashes or underscores) to its pricing unit.
var unitSynonyms = map[string]PricingUnit{
	"ea": UnitEach, "each": UnitEach, "pc": UnitEach, "pcs": UnitEach,
	"piece": UnitEach, "pieces": UnitEach,

	"sf": UnitSquareFoot, "sqft": UnitSquareFoot, "sft": UnitSquareFoot,
	"ft2": UnitSquareFoot, "squarefoot": UnitSquareFoot, "squarefeet": UnitSquareFoot,

	"sy": UnitSquareYard, "sqyd": UnitSquareYard, "syd": UnitSquareYard,
	"yd2": UnitSquareYard, "squareyard": UnitSquareYard, "squareyards": UnitSquareYard,

	"lf": UnitLinearFoot, "linft": UnitLinearFoot, "linearfoot": UnitLinearFoot,
	"linearfeet": UnitLinearFoot,

	"ct": UnitCarton, "ctn": UnitCarton, "carton": UnitCarton, "cartons": UnitCarton,
	"box": UnitCarton, "bx": UnitCarton,
}

var unitSquasher = strings.NewReplacer(".", "", " ", "", "-", "", "_", "")

// NormalizeUnit maps a vendor unit cell to a PricingUnit. An empty cell is
// EA. ok is false only when a non-empty value was not recognized, in which
// case EA is returned as well.
func NormalizeUnit(s string) (unit PricingUnit, ok bool) {
	key := unitSquasher.Replace(strings.ToLower(strings.TrimSpace(s)))
	if key == "" {
		return DefaultUnit, true
	}
	if u, found := unitSynonyms[key]; found {
		return u, true
	}
	return DefaultUnit, false
}

// productTypeCodes maps a normalized material name to its dealer system code.
var productTypeCodes = map[string]string{
	"carpet":             "CAR",
	"broadloom":          "CAR",
	"carpet tile":        "CARTIL",
	"vinyl":              "VIN",
	"sheet vinyl":        "VIN",
	"vinyl plank":        "VINLVP",
	"luxury vinyl plank": "VINLVP",
	"lvp":                "VINLVP",
	"wood":               "WOO",
	"hardwood":           "WOO",
	"laminate":           "LAM",
	"tile":               "CER",
	"ceramic":            "CER",
	"porcelain":          "CER",
	"stone":              "STO",
	"pad":                "PAD",
	"cushion":            "PAD",
	"rug":                "RUG",
	"area rug":           "RUG",
}

// ProductTypeCode returns the dealer code for a material name.
func ProductTypeCode(s string) (string, bool) {
	code, ok := productTypeCodes[NormalizeHeader(s)]
	return code, ok
}

// ResolveProductType picks a product type from the explicit product type cell
// or, failing that, the product group and material columns. A known material
// name is replaced by its code; an unknown explicit value is kept as given.
// With nothing to go on the result is "".
func ResolveProductType(explicit, group, material string) string {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		if code, ok := ProductTypeCode(explicit); ok {
			return code
		}
		return explicit
	}

	group, material = strings.TrimSpace(group), strings.TrimSpace(material)
	candidates := []string{
		group + " " + material,
		material + " " + group,
		group,
		material,
	}
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if code, ok := ProductTypeCode(c); ok {
			return code
		}
	}
	return ""
}

// CutCostTable holds the per-unit surcharge added to a price to get its cut
// cost. Units without an entry carry no surcharge.
type CutCostTable map[PricingUnit]decimal.Decimal

// ParseCutCostTable parses "UNIT=amount" entries such as "SF=0.10".
func ParseCutCostTable(entries []string) (CutCostTable, error) {
	t := make(CutCostTable, len(entries))
	for _, entry := range entries {
		rawUnit, rawAmount, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("cut cost surcharge %q: expected UNIT=amount", entry)
		}
		unit, known := NormalizeUnit(rawUnit)
		if !known || strings.TrimSpace(rawUnit) == "" {
			return nil, fmt.Errorf("cut cost surcharge %q: unknown unit %q", entry, rawUnit)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(rawAmount))
		if err != nil {
			return nil, fmt.Errorf("cut cost surcharge %q: %w", entry, err)
		}
		t[unit] = amount
	}
	return t, nil
}

// CutCost derives the cut cost for a price quoted in unit: price plus the
// unit's surcharge, rounded to cents and never below zero. It is defined for
// every unit.
func (t CutCostTable) CutCost(price decimal.Decimal, unit PricingUnit) decimal.Decimal {
	cost := price.Add(t[unit]).Round(2)
	if cost.IsNegative() {
		return decimal.Zero
	}
	return cost
}
