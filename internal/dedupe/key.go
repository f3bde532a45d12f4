// Package dedupe merges duplicate lead observations into a single record
// per real-world business.
package dedupe

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/winnerlabs/leadminer/internal/model"
)

// minPhoneDigits is the minimum digit count for a phone number to serve as
// an identity key. Shorter strings are switchboard fragments or garbage.
const minPhoneDigits = 6

// nameFolder lowercases and strips diacritics so that "São José" and
// "sao jose" key identically.
var nameFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key derives the identity key for a lead, in decreasing order of signal
// reliability: the registry id is authoritative, a phone number is a strong
// proxy, and the name alone is a weak fallback accepted for recall.
func Key(l model.Lead) string {
	if model.Has(l.CNPJ) {
		return l.CNPJ
	}
	if digits := digitsOnly(l.Phone); len(digits) >= minPhoneDigits {
		return digits
	}
	return FoldName(l.Name)
}

// FoldName normalizes a business name for weak identity matching.
func FoldName(name string) string {
	folded, _, err := transform.String(nameFolder, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func digitsOnly(s string) string {
	if !model.Has(s) {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
