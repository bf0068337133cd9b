package validate

import (
	"strconv"
	"strings"
	"unicode"

	"crashprep/internal/table"
)

// NormalizeID cleans identifier values that spreadsheets mangle into forms
// like "2,01E+11": commas and whitespace are stripped anywhere in the value.
// With asInt set the column is converted to numbers only when every
// non-missing value parses after cleanup; a single stubborn value keeps the
// whole column as cleaned text so no row is silently lost.
//
// A table without the column comes back unchanged (sparse extracts simply
// lack some identifier columns). The input table is never modified.
func NormalizeID(t *table.Table, column string, asInt bool) (*table.Table, error) {
	ci, ok := t.ColumnIndex(column)
	if !ok {
		return t.Clone(), nil
	}

	n := t.NumRows()
	vals := make([]table.Value, n)
	parsed := make([]float64, n)
	allParse := asInt
	for r := 0; r < n; r++ {
		v := t.AtIndex(r, ci)
		if v.IsMissing() {
			vals[r] = table.Missing()
			continue
		}
		c := stripIDNoise(v.String())
		vals[r] = table.Text(c)
		if allParse {
			f, err := strconv.ParseFloat(c, 64)
			if err != nil {
				allParse = false
			} else {
				parsed[r] = f
			}
		}
	}
	if allParse {
		for r := 0; r < n; r++ {
			if !vals[r].IsMissing() {
				vals[r] = table.Number(parsed[r])
			}
		}
	}
	return t.WithColumnValues(column, vals)
}

// stripIDNoise drops commas and whitespace anywhere in the value.
func stripIDNoise(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// CoerceNumeric converts the named columns to numbers, value by value.
// Unparseable values become missing rather than failing the run: downstream
// feature steps want numeric-or-missing, not a hard stop on one mangled
// cell. Columns absent from the table are skipped.
func CoerceNumeric(t *table.Table, columns []string) (*table.Table, error) {
	out := t
	for _, col := range columns {
		ci, ok := out.ColumnIndex(col)
		if !ok {
			continue
		}
		n := out.NumRows()
		vals := make([]table.Value, n)
		for r := 0; r < n; r++ {
			vals[r] = coerceValue(out.AtIndex(r, ci))
		}
		var err error
		out, err = out.WithColumnValues(col, vals)
		if err != nil {
			return nil, err
		}
	}
	if out == t {
		out = t.Clone()
	}
	return out, nil
}

func coerceValue(v table.Value) table.Value {
	if v.IsMissing() {
		return table.Missing()
	}
	if f, ok := v.Number(); ok {
		return table.Number(f)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
	if err != nil {
		return table.Missing()
	}
	return table.Number(f)
}
