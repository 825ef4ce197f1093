package core

// Detector decides whether a header row is already in the B2B schema.
type Detector struct {
	minOverlap int
}

// NewDetector returns a detector requiring at least minOverlap canonical
// headers. Values outside 1..len(CanonicalHeaders) require all of them.
func NewDetector(minOverlap int) *Detector {
	if minOverlap <= 0 || minOverlap > len(CanonicalHeaders) {
		minOverlap = len(CanonicalHeaders)
	}
	return &Detector{minOverlap: minOverlap}
}

// IsCanonical reports whether headers contain enough canonical headers,
// compared case- and whitespace-insensitively. Extra columns are ignored.
// It never fails; an empty header row is simply not canonical.
func (d *Detector) IsCanonical(headers []string) bool {
	if len(headers) == 0 {
		return false
	}

	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[detectionKey(h)] = struct{}{}
	}

	found := 0
	for _, c := range CanonicalHeaders {
		if _, ok := present[detectionKey(c)]; ok {
			found++
		}
	}
	return found >= d.minOverlap
}

// CanonicalMapping maps a canonical header row onto its fields. The Cut Cost
// column maps to FieldCutCost so passthrough rows keep their stated cost.
// When a canonical header repeats, the earliest column wins.
func (d *Detector) CanonicalMapping(headers []string) Mapping {
	byKey := make(map[string]Field, len(CanonicalHeaders))
	for i, c := range CanonicalHeaders {
		byKey[detectionKey(c)] = canonicalFields[i]
	}

	m := Mapping{Fields: make(map[Field]Column, len(CanonicalHeaders))}
	for i, h := range headers {
		f, ok := byKey[detectionKey(h)]
		if !ok {
			if detectionKey(h) != "" {
				m.Unmapped = append(m.Unmapped, h)
			}
			continue
		}
		if winner, taken := m.Fields[f]; taken {
			m.Shadowed = append(m.Shadowed, Shadowed{Header: h, Index: i, Target: f, Winner: winner.Header})
			continue
		}
		m.Fields[f] = Column{Index: i, Header: h, Tier: TierExact}
	}
	return m
}
