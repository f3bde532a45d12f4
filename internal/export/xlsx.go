package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/winnerlabs/leadminer/internal/model"
)

// WriteXLSX writes leads as a single-sheet workbook with the same column
// set as the CSV export. Scores are written as numbers so spreadsheet sorts
// behave.
func WriteXLSX(w io.Writer, leads []model.Lead, niche string) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hdr := sheet.AddRow()
	for _, col := range Header {
		hdr.AddCell().SetString(col)
	}

	for _, l := range leads {
		cells := row(l, niche)
		r := sheet.AddRow()
		for i, v := range cells {
			cell := r.AddCell()
			if Header[i] == "winner_score" {
				cell.SetInt(l.Score)
				continue
			}
			cell.SetString(v)
		}
	}

	if err := wb.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}
