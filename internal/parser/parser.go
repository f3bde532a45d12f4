// Package parser turns the semi-structured text returned by the search
// backend into candidate lead records. The input is adversarial: the model
// drifts between delimiter styles, bolds labels inconsistently, and pads
// results with preambles and placeholder examples. Parsing is tolerant and
// never fails; unusable chunks are silently dropped.
package parser

import (
	"regexp"
	"strings"

	"github.com/winnerlabs/leadminer/internal/model"
)

// chunkDelimiter matches a record boundary: a line of three or more
// hyphens, underscores, or asterisks. The three markers are interchangeable
// because the backend does not emit them consistently.
var chunkDelimiter = regexp.MustCompile(`(?m)^[ \t]*(?:-{3,}|_{3,}|\*{3,})[ \t]*$`)

// FieldRule binds a text label to the lead field it populates.
type FieldRule struct {
	Label  string
	Assign func(l *model.Lead, value string)
}

// Config controls chunk filtering and the recognized field set. The
// source corpus has several incompatible variants; modelling the field
// table and thresholds as configuration reproduces any of them without
// forking the parser.
type Config struct {
	// MinChunkLen is the minimum trimmed chunk length; shorter chunks are
	// treated as noise (preambles, trailing remarks).
	MinChunkLen int

	// Placeholders are case-insensitive name substrings that mark a chunk
	// as a fabricated example rather than a real business.
	Placeholders []string

	// Fields is the label table consumed by the generic extraction routine.
	Fields []FieldRule
}

// DefaultConfig returns the canonical field table and thresholds.
func DefaultConfig() Config {
	return Config{
		MinChunkLen:  20,
		Placeholders: []string{"exemplo"},
		Fields: []FieldRule{
			{Label: "Nome", Assign: func(l *model.Lead, v string) { l.Name = v }},
			{Label: "CNPJ", Assign: func(l *model.Lead, v string) { l.CNPJ = v }},
			{Label: "Telefone", Assign: func(l *model.Lead, v string) { l.Phone = v }},
			{Label: "Email", Assign: func(l *model.Lead, v string) { l.Email = v }},
			{Label: "Endereço", Assign: func(l *model.Lead, v string) { l.Address = v }},
			{Label: "Avaliação", Assign: func(l *model.Lead, v string) { l.Rating = v }},
			{Label: "Site", Assign: func(l *model.Lead, v string) { l.Website = v }},
			{Label: "Instagram", Assign: func(l *model.Lead, v string) { l.Instagram = v }},
			{Label: "Facebook", Assign: func(l *model.Lead, v string) { l.Facebook = v }},
		},
	}
}

// Parser extracts candidate leads from raw text. Construct with New; the
// zero value is not usable.
type Parser struct {
	cfg      Config
	patterns []*regexp.Regexp
}

// New compiles the field table into a parser.
func New(cfg Config) *Parser {
	if cfg.MinChunkLen <= 0 {
		cfg.MinChunkLen = 20
	}
	patterns := make([]*regexp.Regexp, len(cfg.Fields))
	for i, f := range cfg.Fields {
		// Label, optional markdown bold markers and colon, then the rest
		// of that line.
		patterns[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(f.Label) + `[:*]*[ \t]*(.*)`)
	}
	return &Parser{cfg: cfg, patterns: patterns}
}

// Parse converts one raw text blob into zero or more candidate leads.
// Output order matches chunk order in the input. Pure function: completely
// unparseable input yields an empty slice, never an error.
func (p *Parser) Parse(raw string) []model.Lead {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var leads []model.Lead
	for _, chunk := range chunkDelimiter.Split(raw, -1) {
		chunk = strings.TrimSpace(chunk)
		if len(chunk) < p.cfg.MinChunkLen {
			continue
		}

		lead := model.Lead{
			Name: model.NotAvailable, CNPJ: model.NotAvailable,
			Phone: model.NotAvailable, Email: model.NotAvailable,
			Address: model.NotAvailable, Rating: model.NotAvailable,
			Website: model.NotAvailable, Instagram: model.NotAvailable,
			Facebook: model.NotAvailable,
		}
		for i, f := range p.cfg.Fields {
			if v := p.extract(chunk, p.patterns[i]); v != "" {
				f.Assign(&lead, v)
			}
		}

		if !p.usableName(lead.Name) {
			continue
		}
		leads = append(leads, lead)
	}
	return leads
}

// extract returns the cleaned value for one field, or "" when the label is
// absent or its value is empty.
func (p *Parser) extract(chunk string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(chunk)
	if m == nil {
		return ""
	}
	v := strings.ReplaceAll(m[1], "**", "")
	return strings.TrimSpace(v)
}

// usableName applies the content-quality filter: a lead without a real
// business name is noise, and names carrying a placeholder marker are
// fabricated examples the backend sometimes emits.
func (p *Parser) usableName(name string) bool {
	if !model.Has(name) {
		return false
	}
	if len([]rune(name)) < 2 {
		return false
	}
	lower := strings.ToLower(name)
	for _, marker := range p.cfg.Placeholders {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return false
		}
	}
	return true
}
