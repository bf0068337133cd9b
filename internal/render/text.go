package render

import (
	"io"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"crashprep/internal/table"
)

var _ Formatter = (*Text)(nil)

// Text renders a table for terminals: go-pretty's light style without an
// outer border, header casing left alone.
type Text struct{}

func NewText() *Text {
	return &Text{}
}

func (tf *Text) Name() string {
	return "table"
}

func (tf *Text) Format(tab *table.Table, w io.Writer) error {
	headers := make(prettytable.Row, tab.NumCols())
	for c := range headers {
		headers[c] = tab.ColumnName(c)
	}

	rows := make([]prettytable.Row, tab.NumRows())
	for r := range rows {
		row := make(prettytable.Row, tab.NumCols())
		for c := range row {
			row[c] = tab.AtIndex(r, c).String()
		}
		rows[r] = row
	}

	t := prettytable.NewWriter()
	t.AppendHeader(headers)
	t.AppendRows(rows)
	t.AppendSeparator()
	t.SetStyle(prettytable.StyleLight)
	t.Style().Format = prettytable.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false
	t.SuppressTrailingSpaces()

	if _, err := io.WriteString(w, t.Render()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
