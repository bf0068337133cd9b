package explode

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"crashprep/internal/table"
)

// OneHotOptions configures OneHot.
type OneHotOptions struct {
	// Delimiter is the single-rune separator. 0 means ','.
	Delimiter rune

	// MinCount is the minimum whole-table occurrence count a token needs to
	// earn an indicator column. 0 means the default of 5; use 1 to keep
	// every observed token. Negative values are rejected.
	MinCount int

	// Prefixes overrides the indicator-name prefix per source column.
	// Columns without an entry use their own name as the prefix.
	Prefixes map[string]string
}

// OneHot returns t augmented with one binary indicator column per frequent
// token of each target column; original columns and rows are untouched and
// the receiver table is never modified.
//
// For each target column independently, every cell is tokenized and token
// occurrences are counted across the whole table, per occurrence rather than
// per row, so a cell "a,b,a" contributes two to "a". Tokens with fewer than
// MinCount occurrences are discarded. Each surviving token, in lexicographic
// order, becomes a column named {prefix}__{token} with spaces replaced by
// underscores, holding 1 when the row's token sequence contains the token and
// 0 otherwise.
//
// Errors: *table.ColumnNotFoundError for an absent target column; a derived
// name that collides with an existing or previously derived column fails the
// call rather than silently overwriting. Distinct Prefixes resolve that.
func OneHot(t *table.Table, columns []string, opts OneHotOptions) (*table.Table, error) {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	minCount := opts.MinCount
	if minCount == 0 {
		minCount = 5
	}
	if minCount < 0 {
		return nil, fmt.Errorf("one hot: min count %d is negative", opts.MinCount)
	}

	for _, c := range columns {
		if !t.HasColumn(c) {
			return nil, &table.ColumnNotFoundError{Column: c}
		}
	}

	baseCols := t.Columns()
	seen := make(map[string]struct{}, len(baseCols))
	for _, c := range baseCols {
		seen[c] = struct{}{}
	}

	type indicator struct {
		name string
		vals []table.Value
	}
	var added []indicator

	for _, col := range columns {
		counts, err := TokenCounts(t, col, delim)
		if err != nil {
			return nil, err
		}
		kept := make([]string, 0, len(counts))
		for tok, n := range counts {
			if n >= minCount {
				kept = append(kept, tok)
			}
		}
		sort.Strings(kept)
		if len(kept) == 0 {
			continue
		}

		prefix := col
		if p, ok := opts.Prefixes[col]; ok && p != "" {
			prefix = p
		}

		ci, _ := t.ColumnIndex(col)
		rowTokens := make([][]string, t.NumRows())
		for r := range rowTokens {
			rowTokens[r] = Tokenize(t.AtIndex(r, ci), delim)
		}

		for _, tok := range kept {
			name := strings.ReplaceAll(prefix+"__"+tok, " ", "_")
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("one hot: indicator %q derived from column %q collides with an existing column", name, col)
			}
			seen[name] = struct{}{}

			vals := make([]table.Value, t.NumRows())
			for r := range vals {
				if slices.Contains(rowTokens[r], tok) {
					vals[r] = table.Number(1)
				} else {
					vals[r] = table.Number(0)
				}
			}
			added = append(added, indicator{name: name, vals: vals})
		}
	}

	if len(added) == 0 {
		return t.Clone(), nil
	}

	names := baseCols
	for _, a := range added {
		names = append(names, a.name)
	}
	out, err := table.New(names)
	if err != nil {
		return nil, err
	}
	for r := 0; r < t.NumRows(); r++ {
		row := make([]table.Value, 0, len(names))
		row = append(row, t.Row(r)...)
		for _, a := range added {
			row = append(row, a.vals[r])
		}
		if err := out.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// TokenCounts tallies every token occurrence in the named column across the
// whole table, counting per occurrence rather than per row. An unknown
// column fails with *table.ColumnNotFoundError. A column producing no tokens
// returns an empty map; consumers that require tokens turn that case into
// *EmptyTokenSetError.
func TokenCounts(t *table.Table, column string, delim rune) (map[string]int, error) {
	ci, ok := t.ColumnIndex(column)
	if !ok {
		return nil, &table.ColumnNotFoundError{Column: column}
	}
	if delim == 0 {
		delim = ','
	}
	counts := make(map[string]int)
	for r := 0; r < t.NumRows(); r++ {
		for _, tok := range Tokenize(t.AtIndex(r, ci), delim) {
			counts[tok]++
		}
	}
	return counts, nil
}
