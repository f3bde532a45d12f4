package scorer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winnerlabs/leadminer/internal/model"
)

func fullLead() model.Lead {
	return model.Lead{
		Name:      "Acme Ltda",
		CNPJ:      "12.345.678/0001-90",
		Phone:     "(11) 91234-5678",
		Email:     "contato@acme.com.br",
		Address:   "Av. Paulista, 1000",
		Rating:    "4.8",
		Website:   "https://acme.com.br",
		Instagram: "@acme",
		Facebook:  "fb.com/acme",
	}
}

func emptyLead() model.Lead {
	return model.Lead{
		Name: "Acme Ltda", CNPJ: model.NotAvailable, Phone: model.NotAvailable,
		Email: model.NotAvailable, Address: model.NotAvailable,
		Rating: model.NotAvailable, Website: model.NotAvailable,
		Instagram: model.NotAvailable, Facebook: model.NotAvailable,
	}
}

func TestWinnerProfileScores(t *testing.T) {
	p := Winner()

	tests := []struct {
		name string
		mut  func(*model.Lead)
		want int
	}{
		{"name only", nil, 20},
		{"phone", func(l *model.Lead) { l.Phone = "(11) 91234-5678" }, 35},
		{"cnpj", func(l *model.Lead) { l.CNPJ = "12.345.678/0001-90" }, 45},
		{"high rating", func(l *model.Lead) { l.Rating = "4.5" }, 40},
		{"low rating no bonus", func(l *model.Lead) { l.Rating = "3.9" }, 20},
		{"website", func(l *model.Lead) { l.Website = "https://x.com" }, 30},
		{"instagram", func(l *model.Lead) { l.Instagram = "@x" }, 30},
		{"facebook carries no weight", func(l *model.Lead) { l.Facebook = "fb.com/x" }, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := emptyLead()
			if tt.mut != nil {
				tt.mut(&l)
			}
			assert.Equal(t, tt.want, p.Score(l))
		})
	}
}

func TestScoreClampedToHundred(t *testing.T) {
	// All winner bonuses sum to 100 exactly; balanced with every bonus is
	// also 100. Force an overflow with a custom profile.
	p := Profile{Name: "fat", Base: 90, Phone: 50}
	l := emptyLead()
	l.Phone = "(11) 91234-5678"
	assert.Equal(t, 100, p.Score(l))
}

func TestScoreBounds(t *testing.T) {
	for name, p := range BuiltIn() {
		t.Run(name, func(t *testing.T) {
			for _, l := range []model.Lead{fullLead(), emptyLead(), {}} {
				s := p.Score(l)
				assert.GreaterOrEqual(t, s, 0)
				assert.LessOrEqual(t, s, 100)
			}
		})
	}
}

func TestScorePhoneMonotonic(t *testing.T) {
	for name, p := range BuiltIn() {
		t.Run(name, func(t *testing.T) {
			without := emptyLead()
			with := emptyLead()
			with.Phone = "(11) 91234-5678"
			assert.Greater(t, p.Score(with), p.Score(without))
		})
	}
}

func TestBalancedMidRatingBand(t *testing.T) {
	p := Balanced()

	l := emptyLead()
	l.Rating = "4.2"
	assert.Equal(t, 40, p.Score(l)) // base 30 + mid 10

	l.Rating = "4.7"
	assert.Equal(t, 45, p.Score(l)) // base 30 + high 15

	l.Rating = "3.5"
	assert.Equal(t, 30, p.Score(l))
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"4.5", 4.5, true},
		{"4,5", 4.5, true},
		{"4.8 (230 avaliações)", 4.8, true},
		{"5", 5, true},
		{model.NotAvailable, 0, false},
		{"", 0, false},
		{"sem avaliações", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseRating(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"winner valid", Winner(), false},
		{"balanced valid", Balanced(), false},
		{"empty name", Profile{Base: 20}, true},
		{"negative weight", Profile{Name: "x", Phone: -1}, true},
		{"base above 100", Profile{Name: "x", Base: 120}, true},
		{"inverted rating bands", Profile{Name: "x", RatingHighMin: 4.0, RatingMidMin: 4.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles:
  - name: strict
    base: 10
    phone: 20
    cnpj: 40
    website: 10
    rating_high: 20
    rating_high_min: 4.5
`), 0o644))

	profiles, err := LoadProfiles(path)
	require.NoError(t, err)
	assert.Contains(t, profiles, "winner")
	assert.Contains(t, profiles, "balanced")
	require.Contains(t, profiles, "strict")
	assert.Equal(t, 10, profiles["strict"].Base)
	assert.Equal(t, 40, profiles["strict"].CNPJ)

	p, err := ByName("strict", path)
	require.NoError(t, err)
	assert.Equal(t, "strict", p.Name)

	_, err = ByName("missing", path)
	assert.Error(t, err)
}

func TestLoadProfilesInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  - name: \"\"\n    base: 20\n"), 0o644))

	_, err := LoadProfiles(path)
	assert.Error(t, err)
}
