package explode

import (
	"fmt"
	"strings"

	"crashprep/internal/table"
)

// DetectOptions configures DetectMultiValue. The zero value scans every
// string-like column for ',' with the default threshold.
type DetectOptions struct {
	// Columns restricts the candidate set and fixes the result order. nil
	// means every column holding string-like data (at least one non-missing
	// text cell), in table column order.
	Columns []string

	// Delimiter is the single-rune separator to look for. 0 means ','.
	Delimiter rune

	// MinShare is the minimum fraction, in [0,1], of a column's non-missing
	// cells that must contain the delimiter for the column to be flagged.
	// 0 means the default of 0.01.
	MinShare float64
}

// DetectMultiValue returns the candidate columns whose share of
// delimiter-bearing non-missing cells is at least MinShare.
//
// Columns with no non-missing cells have share 0 and are never flagged.
// Naming a candidate the table does not have fails with
// *table.ColumnNotFoundError. The scan is read-only and deterministic.
func DetectMultiValue(t *table.Table, opts DetectOptions) ([]string, error) {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	minShare := opts.MinShare
	if minShare == 0 {
		minShare = 0.01
	}
	if minShare < 0 || minShare > 1 {
		return nil, fmt.Errorf("detect: min share %v out of range [0,1]", opts.MinShare)
	}

	candidates, err := candidateColumns(t, opts.Columns)
	if err != nil {
		return nil, err
	}

	needle := string(delim)
	var flagged []string
	for _, c := range candidates {
		idx, _ := t.ColumnIndex(c)
		nonMissing, withDelim := 0, 0
		for r := 0; r < t.NumRows(); r++ {
			v := t.AtIndex(r, idx)
			if v.IsMissing() {
				continue
			}
			nonMissing++
			if strings.Contains(v.String(), needle) {
				withDelim++
			}
		}
		if nonMissing == 0 {
			continue
		}
		if float64(withDelim)/float64(nonMissing) >= minShare {
			flagged = append(flagged, c)
		}
	}
	return flagged, nil
}

// candidateColumns resolves the candidate set: a copy of the explicit list
// when given, otherwise every column with at least one non-missing text cell.
func candidateColumns(t *table.Table, explicit []string) ([]string, error) {
	if explicit != nil {
		for _, c := range explicit {
			if !t.HasColumn(c) {
				return nil, &table.ColumnNotFoundError{Column: c}
			}
		}
		return append([]string(nil), explicit...), nil
	}

	var out []string
	for ci, name := range t.Columns() {
		for r := 0; r < t.NumRows(); r++ {
			if t.AtIndex(r, ci).Kind() == table.KindText {
				out = append(out, name)
				break
			}
		}
	}
	return out, nil
}
