package report

import (
	"sort"

	"crashprep/internal/explode"
	"crashprep/internal/table"
)

// CategoryCount is one category's frequency in a column.
type CategoryCount struct {
	Value string
	Count int
	Share float64
}

// CategoryCounts tallies a column's values. Missing cells count under the
// literal category "NA" so the report covers every row; Share is the
// fraction of rows. Results sort by count descending, ties alphabetically,
// and topN > 0 keeps only the first topN entries. An unknown column fails
// with *table.ColumnNotFoundError.
func CategoryCounts(tab *table.Table, column string, topN int) ([]CategoryCount, error) {
	cells, ok := tab.Column(column)
	if !ok {
		return nil, &table.ColumnNotFoundError{Column: column}
	}

	counts := map[string]int{}
	for _, v := range cells {
		s := v.String()
		if v.IsMissing() {
			s = "NA"
		}
		counts[s]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for val, n := range counts {
		share := 0.0
		if len(cells) > 0 {
			share = float64(n) / float64(len(cells))
		}
		out = append(out, CategoryCount{Value: val, Count: n, Share: share})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// CategoryTable lays category counts out as a table with columns value,
// count, share. Shares round to four decimals for display.
func CategoryTable(counts []CategoryCount) *table.Table {
	tab := table.MustNew("value", "count", "share")
	for _, c := range counts {
		if err := tab.AppendRow(
			table.Text(c.Value),
			table.Number(float64(c.Count)),
			table.Number(round4(c.Share)),
		); err != nil {
			// the row width matches the static column list
			panic(err)
		}
	}
	return tab
}

// TokenCount is one token's frequency across a packed multi-value column.
type TokenCount struct {
	Token string
	Count int
	Share float64
}

// TokenCounts splits the named column on delim and tallies every token
// occurrence across the table. Share is the fraction of all tokens, counted
// before any topN cut. Results sort by count descending, ties
// alphabetically. A column yielding no tokens at all fails with
// *explode.EmptyTokenSetError and an unknown column with
// *table.ColumnNotFoundError.
func TokenCounts(tab *table.Table, column string, delim rune, topN int) ([]TokenCount, error) {
	counts, err := explode.TokenCounts(tab, column, delim)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, &explode.EmptyTokenSetError{Column: column}
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	out := make([]TokenCount, 0, len(counts))
	for tok, n := range counts {
		out = append(out, TokenCount{Token: tok, Count: n, Share: float64(n) / float64(total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// TokenTable lays token counts out as a table with columns token, count,
// share. Shares round to four decimals for display.
func TokenTable(counts []TokenCount) *table.Table {
	tab := table.MustNew("token", "count", "share")
	for _, c := range counts {
		if err := tab.AppendRow(
			table.Text(c.Token),
			table.Number(float64(c.Count)),
			table.Number(round4(c.Share)),
		); err != nil {
			// the row width matches the static column list
			panic(err)
		}
	}
	return tab
}
