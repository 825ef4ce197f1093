package core

import (
	"fmt"
	"strings"
)

// MatchTier orders mapping rules from most to least certain.
type MatchTier int

const (
	TierExact MatchTier = iota + 1
	TierNormalized
	TierSynonym
	TierStemmed
)

var tierNames = map[MatchTier]string{
	TierExact:      "exact",
	TierNormalized: "normalized",
	TierSynonym:    "synonym",
	TierStemmed:    "stemmed",
}

func (t MatchTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// MarshalText renders the tier name in JSON mapping reports.
func (t MatchTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// HeaderKey is a source header prepared once for every rule.
type HeaderKey struct {
	Raw        string
	Normalized string
	Stemmed    string
}

// NewHeaderKey prepares a raw header for matching.
func NewHeaderKey(raw string) HeaderKey {
	normalized := NormalizeHeader(raw)
	return HeaderKey{
		Raw:        strings.TrimSpace(raw),
		Normalized: normalized,
		Stemmed:    StemHeader(normalized),
	}
}

// MappingRule is one (target, tier, predicate) entry. Rules are evaluated in
// slice order; the first rule to claim a column for a target wins.
type MappingRule struct {
	Target Field
	Tier   MatchTier
	Match  func(HeaderKey) bool
}

// TargetSpec describes one mapper target: its serialized name and the vendor
// spellings accepted for it. Synonyms are written in normalized form.
type TargetSpec struct {
	Field     Field
	Canonical string
	Synonyms  []string
}

// DefaultTargets lists every mapper target in tie-break order. cut_cost is
// absent: it is always derived, never read from a vendor column.
var DefaultTargets = []TargetSpec{
	{
		Field:     FieldManufacturer,
		Canonical: HeaderManufacturer,
		Synonyms: []string{
			"manufacturer name", "mfg", "mfr", "mfg name", "brand", "brand name",
			"vendor", "vendor name", "supplier", "supplier name", "dealer", "mill",
		},
	},
	{
		Field:     FieldStyleName,
		Canonical: HeaderStyleName,
		Synonyms: []string{
			"style", "item", "item name", "item description", "description",
			"product name", "product", "pattern", "collection", "name",
		},
	},
	{
		Field:     FieldColorName,
		Canonical: HeaderColorName,
		Synonyms: []string{
			"color", "colour", "colour name", "hue", "shade", "item color",
			"color description",
		},
	},
	{
		Field:     FieldSKU,
		Canonical: HeaderSKU,
		Synonyms: []string{
			"sku number", "sku no", "ikey", "item number", "item no", "item code",
			"product code", "part number", "part no", "catalog number", "model number",
		},
	},
	{
		Field:     FieldProductType,
		Canonical: HeaderProductType,
		Synonyms:  []string{"type", "item type", "product class"},
	},
	{
		Field:     FieldPricingUnit,
		Canonical: HeaderPricingUnit,
		Synonyms: []string{
			"unit", "uom", "unit of measure", "pc", "bu", "price unit", "selling unit",
			"pricing uom", "measure",
		},
	},
	{
		Field:     FieldPrice,
		Canonical: "Price",
		Synonyms: []string{
			"cost", "cut cost", "base price", "unit price", "unit cost", "list price",
			"dealer price", "dealer cost", "net price", "net cost", "cut price", "sell price",
		},
	},
	{
		Field:     FieldProductGroup,
		Canonical: "Product Group",
		Synonyms:  []string{"group", "category", "product category", "product line"},
	},
	{
		Field:     FieldMaterialType,
		Canonical: "Material Type",
		Synonyms:  []string{"material", "material class", "surface"},
	},
}

// DefaultRules builds the tier-major rule list for targets: every target is
// offered exact matches before any target sees a normalized one, and so on.
// New spellings are added to DefaultTargets; the rules never change.
func DefaultRules(targets []TargetSpec) []MappingRule {
	rules := make([]MappingRule, 0, len(targets)*4)
	for _, t := range targets {
		canonical := strings.TrimSpace(t.Canonical)
		rules = append(rules, MappingRule{
			Target: t.Field,
			Tier:   TierExact,
			Match:  func(h HeaderKey) bool { return h.Raw == canonical },
		})
	}
	for _, t := range targets {
		normalized := NormalizeHeader(t.Canonical)
		rules = append(rules, MappingRule{
			Target: t.Field,
			Tier:   TierNormalized,
			Match:  func(h HeaderKey) bool { return h.Normalized == normalized },
		})
	}
	for _, t := range targets {
		synonyms := make(map[string]struct{}, len(t.Synonyms))
		for _, s := range t.Synonyms {
			synonyms[NormalizeHeader(s)] = struct{}{}
		}
		rules = append(rules, MappingRule{
			Target: t.Field,
			Tier:   TierSynonym,
			Match: func(h HeaderKey) bool {
				_, ok := synonyms[h.Normalized]
				return ok
			},
		})
	}
	for _, t := range targets {
		stems := make(map[string]struct{}, len(t.Synonyms)+1)
		for _, s := range append([]string{t.Canonical}, t.Synonyms...) {
			stems[StemHeader(NormalizeHeader(s))] = struct{}{}
		}
		rules = append(rules, MappingRule{
			Target: t.Field,
			Tier:   TierStemmed,
			Match: func(h HeaderKey) bool {
				_, ok := stems[h.Stemmed]
				return ok
			},
		})
	}
	return rules
}

// Column is a source column claimed by a target.
type Column struct {
	Index  int       `json:"index"`
	Header string    `json:"header"`
	Tier   MatchTier `json:"tier"`
}

// Shadowed is a source column that would have satisfied Target but lost the
// tie-break to an earlier column. Its values are not used.
type Shadowed struct {
	Header string `json:"header"`
	Index  int    `json:"index"`
	Target Field  `json:"target"`
	Winner string `json:"winner"`
}

// Mapping is the result of MapHeaders. A target missing from Fields is
// unmapped and reads as empty for every row.
type Mapping struct {
	Fields   map[Field]Column
	Shadowed []Shadowed
	Unmapped []string
}

// Column returns the source column claimed by f.
func (m Mapping) Column(f Field) (Column, bool) {
	c, ok := m.Fields[f]
	return c, ok
}

// MappingReport is the JSON view of a Mapping: every output target with its
// source header, or null when nothing matched.
type MappingReport struct {
	Fields   map[Field]*string `json:"fields"`
	Shadowed []Shadowed        `json:"shadowed,omitempty"`
	Unmapped []string          `json:"unmapped,omitempty"`
}

// Report renders m for API responses.
func (m Mapping) Report() MappingReport {
	r := MappingReport{
		Fields:   make(map[Field]*string, len(canonicalFields)+1),
		Shadowed: m.Shadowed,
		Unmapped: m.Unmapped,
	}
	for _, f := range append([]Field{FieldPrice}, canonicalFields...) {
		r.Fields[f] = nil
	}
	for f, c := range m.Fields {
		header := c.Header
		r.Fields[f] = &header
	}
	return r
}

// Mapper maps vendor headers onto target fields.
type Mapper struct {
	rules []MappingRule
}

// NewMapper returns a Mapper evaluating rules in order. With no rules it uses
// DefaultRules(DefaultTargets).
func NewMapper(rules ...MappingRule) *Mapper {
	if len(rules) == 0 {
		rules = DefaultRules(DefaultTargets)
	}
	return &Mapper{rules: rules}
}

// MapHeaders assigns each target at most one source column and each column at
// most one target. For every rule, the earliest unclaimed column that matches
// wins; a target keeps the first column it is given.
func (m *Mapper) MapHeaders(headers []string) Mapping {
	keys := make([]HeaderKey, len(headers))
	for i, h := range headers {
		keys[i] = NewHeaderKey(h)
	}

	claimed := make([]bool, len(headers))
	fields := make(map[Field]Column)

	for _, rule := range m.rules {
		if _, done := fields[rule.Target]; done {
			continue
		}
		for i, key := range keys {
			if claimed[i] || key.Normalized == "" {
				continue
			}
			if rule.Match(key) {
				fields[rule.Target] = Column{Index: i, Header: headers[i], Tier: rule.Tier}
				claimed[i] = true
				break
			}
		}
	}

	mapping := Mapping{Fields: fields}
	for i, key := range keys {
		if claimed[i] {
			continue
		}
		if target, ok := m.shadowedBy(key, fields); ok {
			mapping.Shadowed = append(mapping.Shadowed, Shadowed{
				Header: headers[i],
				Index:  i,
				Target: target,
				Winner: fields[target].Header,
			})
			continue
		}
		if key.Normalized != "" {
			mapping.Unmapped = append(mapping.Unmapped, headers[i])
		}
	}
	return mapping
}

// shadowedBy reports the claimed target an unclaimed header would have matched.
func (m *Mapper) shadowedBy(key HeaderKey, fields map[Field]Column) (Field, bool) {
	if key.Normalized == "" {
		return "", false
	}
	for _, rule := range m.rules {
		if _, claimed := fields[rule.Target]; claimed && rule.Match(key) {
			return rule.Target, true
		}
	}
	return "", false
}

// ClaimedCount returns how many targets were mapped.
func (m Mapping) ClaimedCount() int {
	return len(m.Fields)
}
