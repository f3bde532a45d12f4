// Package scorer computes the 0-100 completeness/quality score used to rank
// and filter extracted leads.
package scorer

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/winnerlabs/leadminer/internal/model"
)

// Profile is one additive weighting scheme: a base score plus fixed bonuses
// for each populated high-value field. Several incompatible schemes exist in
// the wild, so the weights are data, not constants. The final score is
// clamped to [0, 100].
type Profile struct {
	Name string `yaml:"name"`

	Base int `yaml:"base"`

	Phone     int `yaml:"phone"`
	CNPJ      int `yaml:"cnpj"`
	Website   int `yaml:"website"`
	Instagram int `yaml:"instagram"`
	Facebook  int `yaml:"facebook"`

	// RatingHigh is awarded when the parsed rating is at least
	// RatingHighMin; otherwise RatingMid applies at RatingMidMin. A zero
	// threshold disables that band.
	RatingHigh    int     `yaml:"rating_high"`
	RatingHighMin float64 `yaml:"rating_high_min"`
	RatingMid     int     `yaml:"rating_mid"`
	RatingMidMin  float64 `yaml:"rating_mid_min"`
}

// Winner is the default profile, matching the original extractor's
// weighting.
func Winner() Profile {
	return Profile{
		Name:          "winner",
		Base:          20,
		Phone:         15,
		CNPJ:          25,
		Website:       10,
		Instagram:     10,
		RatingHigh:    20,
		RatingHighMin: 4.5,
	}
}

// Balanced is an alternative profile with a mid-rating band and social
// bonuses split across both networks.
func Balanced() Profile {
	return Profile{
		Name:          "balanced",
		Base:          30,
		Phone:         15,
		CNPJ:          20,
		Website:       10,
		Instagram:     5,
		Facebook:      5,
		RatingHigh:    15,
		RatingHighMin: 4.5,
		RatingMid:     10,
		RatingMidMin:  4.0,
	}
}

// BuiltIn returns the built-in profiles keyed by name.
func BuiltIn() map[string]Profile {
	return map[string]Profile{
		"winner":   Winner(),
		"balanced": Balanced(),
	}
}

// Score computes the lead's score under this profile. Pure function; a
// sentinel or malformed field simply contributes zero.
func (p Profile) Score(l model.Lead) int {
	s := p.Base

	if rating, ok := parseRating(l.Rating); ok {
		switch {
		case p.RatingHighMin > 0 && rating >= p.RatingHighMin:
			s += p.RatingHigh
		case p.RatingMidMin > 0 && rating >= p.RatingMidMin:
			s += p.RatingMid
		}
	}

	if model.Has(l.Phone) {
		s += p.Phone
	}
	if model.Has(l.CNPJ) {
		s += p.CNPJ
	}
	if model.Has(l.Website) {
		s += p.Website
	}
	if model.Has(l.Instagram) {
		s += p.Instagram
	}
	if model.Has(l.Facebook) {
		s += p.Facebook
	}

	if s > 100 {
		s = 100
	}
	if s < 0 {
		s = 0
	}
	return s
}

// Validate checks that a profile is internally consistent.
func (p Profile) Validate() error {
	var errs []string

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	if p.Base < 0 || p.Base > 100 {
		errs = append(errs, "base must be between 0 and 100")
	}
	for name, w := range map[string]int{
		"phone": p.Phone, "cnpj": p.CNPJ, "website": p.Website,
		"instagram": p.Instagram, "facebook": p.Facebook,
		"rating_high": p.RatingHigh, "rating_mid": p.RatingMid,
	} {
		if w < 0 {
			errs = append(errs, name+" must be >= 0")
		}
	}
	if p.RatingHighMin > 0 && p.RatingMidMin > 0 && p.RatingMidMin >= p.RatingHighMin {
		errs = append(errs, "rating_mid_min must be below rating_high_min")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: profile %q invalid: %s", p.Name, strings.Join(errs, "; "))
	}
	return nil
}

// parseRating parses a rating string such as "4.5", "4,5" or "4.5 estrelas".
// Returns false for the sentinel or anything without a leading number.
func parseRating(v string) (float64, bool) {
	if !model.Has(v) {
		return 0, false
	}
	v = strings.TrimSpace(strings.ReplaceAll(v, ",", "."))

	// Keep the leading numeric prefix only.
	end := 0
	for end < len(v) && (v[end] >= '0' && v[end] <= '9' || v[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(v[:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
