package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/winnerlabs/leadminer/internal/model"
)

func sampleLead() model.Lead {
	return model.Lead{
		ID:        "lead-1",
		Name:      "Acme Padaria Ltda",
		CNPJ:      "12.345.678/0001-90",
		Phone:     "(11) 91234-5678",
		Email:     "contato@acme.com.br",
		Address:   "Rua das Flores, 100",
		Rating:    "4.8",
		Website:   "https://acme.com.br",
		Instagram: "@acmepadaria",
		Facebook:  model.NotAvailable,
		Score:     85,
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []model.Lead{sampleLead()}, "padaria"))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\uFEFF"), "missing UTF-8 BOM")

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\uFEFF"), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"name";"cnpj";"number";"email";"tags";"instagram";"facebook";"website";"winner_score";"rating"`, lines[0])
	assert.Equal(t, `"Acme Padaria Ltda";"12.345.678/0001-90";"5511912345678";"contato@acme.com.br";"padaria";"@acmepadaria";"";"https://acme.com.br";"85";"4.8"`, lines[1])
}

func TestWriteCSVEscapesQuotes(t *testing.T) {
	l := sampleLead()
	l.Name = `Bar "Do Zé"`

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []model.Lead{l}, "bar"))
	assert.Contains(t, buf.String(), `"Bar ""Do Zé"""`)
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, "padaria"))

	out := strings.TrimPrefix(buf.String(), "\uFEFF")
	assert.Equal(t, 1, strings.Count(out, "\n")) // header only
}

func TestDialerPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(11) 91234-5678", "5511912345678"}, // 11 digits, mobile
		{"(11) 4002-8922", "551140028922"},   // 10 digits, landline
		{"5511912345678", "5511912345678"},   // already 13 digits, untouched
		{"0800 123 4567", "5508001234567"},
		{"123", "123"}, // too short for a country code guess
		{model.NotAvailable, ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DialerPhone(tt.in))
		})
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "winner_leads_padaria_artesanal_2026-08-28.csv", Filename("Padaria Artesanal", "csv", now))
	assert.Equal(t, "winner_leads_acai_sp_2026-08-28.xlsx", Filename("Açaí / SP!", "xlsx", now))
	assert.Equal(t, "winner_leads_cafe_em_sao_jose_2026-08-28.csv", Filename("Café em São José", "csv", now))
	assert.Equal(t, "winner_leads_leads_2026-08-28.csv", Filename("!!!", "csv", now))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, []model.Lead{sampleLead()}, "padaria"))

	wb, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet := wb.Sheets[0]
	assert.Equal(t, "leads", sheet.Name)
	require.Len(t, sheet.Rows, 2)

	hdr := sheet.Rows[0]
	require.Len(t, hdr.Cells, len(Header))
	assert.Equal(t, "name", hdr.Cells[0].String())
	assert.Equal(t, "winner_score", hdr.Cells[8].String())

	row := sheet.Rows[1]
	assert.Equal(t, "Acme Padaria Ltda", row.Cells[0].String())
	assert.Equal(t, "5511912345678", row.Cells[2].String())
	score, err := row.Cells[8].Int()
	require.NoError(t, err)
	assert.Equal(t, 85, score)
}
