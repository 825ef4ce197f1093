package core

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader folds a header or cell to its comparison key: diacritics
// removed, lower case, every run of non letters/digits collapsed to one space.
//
//	"  Colour_Name " -> "colour name"
//	"SKU#"           -> "sku"
//	"~~Manufacturer" -> "manufacturer"
//	"Café Crème"     -> "cafe creme"
func NormalizeHeader(s string) string {
	// transform.Chain keeps state, so one is built per call.
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// StemHeader reduces every word of a normalized header to its English stem,
// so "Colours" and "colour" or "Prices" and "price" compare equal.
func StemHeader(normalized string) string {
	words := strings.Fields(normalized)
	for i, w := range words {
		stemmed, err := snowball.Stem(w, "english", true)
		if err == nil && stemmed != "" {
			words[i] = stemmed
		}
	}
	return strings.Join(words, " ")
}

// detectionKey is the looser comparison used by the schema detector: case
// and whitespace are ignored but punctuation such as "~~" is significant.
func detectionKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
