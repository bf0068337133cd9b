package render

import (
	"encoding/csv"
	"io"

	"crashprep/internal/table"
)

var _ Formatter = (*CSV)(nil)

// CSV renders a table as RFC 4180 CSV with a header row. Missing cells
// become empty fields, which the CSV loader reads back as missing, and
// numbers use their shortest round-trip decimal form.
type CSV struct{}

func NewCSV() *CSV {
	return &CSV{}
}

func (cf *CSV) Name() string {
	return "csv"
}

func (cf *CSV) Format(tab *table.Table, w io.Writer) error {
	data := make([][]string, 0, tab.NumRows()+1)
	data = append(data, tab.Columns())
	for r := 0; r < tab.NumRows(); r++ {
		row := make([]string, tab.NumCols())
		for c := range row {
			row[c] = tab.AtIndex(r, c).String()
		}
		data = append(data, row)
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(data); err != nil {
		return err
	}
	return cw.Error()
}
