// Package export renders ranked leads into files a sales team can hand to
// dialer and CRM imports.
package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/winnerlabs/leadminer/internal/dedupe"
	"github.com/winnerlabs/leadminer/internal/model"
)

// Header is the fixed column set expected by the downstream dialer import.
// "number" carries the normalized phone and "tags" carries the search niche.
var Header = []string{"name", "cnpj", "number", "email", "tags", "instagram", "facebook", "website", "winner_score", "rating"}

// utf8BOM keeps Excel from reading the file as Latin-1.
const utf8BOM = "\uFEFF"

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Filename builds the conventional export name for a niche and date, e.g.
// "winner_leads_padaria_artesanal_2026-08-28.csv". Diacritics fold to their
// ASCII base letter ("açaí" stays "acai", not "a_a") before the unsafe runs
// collapse to underscores.
func Filename(niche string, ext string, now time.Time) string {
	safe := strings.Trim(unsafeFilename.ReplaceAllString(dedupe.FoldName(niche), "_"), "_")
	if safe == "" {
		safe = "leads"
	}
	return fmt.Sprintf("winner_leads_%s_%s.%s", safe, now.Format("2006-01-02"), ext)
}

// WriteCSV writes leads as semicolon-separated CSV with a UTF-8 BOM. Every
// cell is quoted regardless of content; dialer imports reject rows where
// quoting varies by cell.
func WriteCSV(w io.Writer, leads []model.Lead, niche string) error {
	var b strings.Builder
	b.WriteString(utf8BOM)
	writeRow(&b, Header)

	for _, l := range leads {
		writeRow(&b, row(l, niche))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "export: write csv")
	}
	return nil
}

func writeRow(b *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

// row flattens one lead into Header order.
func row(l model.Lead, niche string) []string {
	return []string{
		l.Name,
		orEmpty(l.CNPJ),
		DialerPhone(l.Phone),
		orEmpty(l.Email),
		niche,
		orEmpty(l.Instagram),
		orEmpty(l.Facebook),
		orEmpty(l.Website),
		fmt.Sprintf("%d", l.Score),
		l.Rating,
	}
}

// DialerPhone strips a phone down to digits and prefixes the Brazilian
// country code when the number looks like a bare area-code+subscriber form
// (10 or 11 digits). Anything else passes through as digits so the operator
// can triage it.
func DialerPhone(phone string) string {
	if !model.Has(phone) {
		return ""
	}
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) >= 10 && len(d) <= 11 {
		return "55" + d
	}
	return d
}

func orEmpty(v string) string {
	if !model.Has(v) {
		return ""
	}
	return v
}
