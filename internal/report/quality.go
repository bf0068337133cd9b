package report

import (
	"sort"
	"strings"

	"crashprep/internal/table"
)

// ColumnQuality describes one column's health.
//
// NUnique and Examples profile the distinct non-missing values and are only
// computed for columns holding text (kind "text" or "mixed"); elsewhere
// NUnique is -1 and Examples is nil. Examples keeps the first three distinct
// values in row order.
type ColumnQuality struct {
	Column   string
	Kind     string
	NonNull  int
	NullPct  float64
	NUnique  int
	Examples []string
}

// Quality computes per-column health metrics, worst columns first: the
// result sorts by NullPct descending, ties keeping table column order.
// NullPct is a percentage rounded to two decimals.
func Quality(tab *table.Table) []ColumnQuality {
	out := make([]ColumnQuality, 0, tab.NumCols())
	for c := 0; c < tab.NumCols(); c++ {
		name := tab.ColumnName(c)
		cells, _ := tab.Column(name)

		nonNull := 0
		for _, v := range cells {
			if !v.IsMissing() {
				nonNull++
			}
		}
		nullPct := 0.0
		if len(cells) > 0 {
			nullPct = float64(len(cells)-nonNull) / float64(len(cells)) * 100
		}

		q := ColumnQuality{
			Column:  name,
			Kind:    columnKind(cells),
			NonNull: nonNull,
			NullPct: round2(nullPct),
			NUnique: -1,
		}
		if q.Kind == "text" || q.Kind == "mixed" {
			seen := make(map[string]struct{})
			for _, v := range cells {
				if v.IsMissing() {
					continue
				}
				s := v.String()
				if _, dup := seen[s]; dup {
					continue
				}
				seen[s] = struct{}{}
				if len(q.Examples) < 3 {
					q.Examples = append(q.Examples, s)
				}
			}
			q.NUnique = len(seen)
		}
		out = append(out, q)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].NullPct > out[j].NullPct })
	return out
}

// QualityTable lays the metrics out as a table with columns column, kind,
// non_null, null_pct, n_unique, examples. Columns without a value profile
// get missing n_unique and examples cells.
func QualityTable(metrics []ColumnQuality) *table.Table {
	tab := table.MustNew("column", "kind", "non_null", "null_pct", "n_unique", "examples")
	for _, q := range metrics {
		nUnique := table.Missing()
		examples := table.Missing()
		if q.NUnique >= 0 {
			nUnique = table.Number(float64(q.NUnique))
			examples = table.Text(strings.Join(q.Examples, ", "))
		}
		if err := tab.AppendRow(
			table.Text(q.Column),
			table.Text(q.Kind),
			table.Number(float64(q.NonNull)),
			table.Number(q.NullPct),
			nUnique,
			examples,
		); err != nil {
			// the row width matches the static column list
			panic(err)
		}
	}
	return tab
}

// columnKind classifies what the non-missing cells of a column hold.
func columnKind(cells []table.Value) string {
	var hasText, hasNum bool
	for _, v := range cells {
		switch v.Kind() {
		case table.KindText:
			hasText = true
		case table.KindNumber:
			hasNum = true
		}
	}
	switch {
	case hasText && hasNum:
		return "mixed"
	case hasNum:
		return "number"
	case hasText:
		return "text"
	default:
		return "missing"
	}
}
