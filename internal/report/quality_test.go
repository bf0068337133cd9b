package report

import (
	"reflect"
	"testing"

	"crashprep/internal/table"
)

func mkTable(t *testing.T, cols []string, rows ...[]table.Value) *table.Table {
	t.Helper()
	tab, err := table.New(cols)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, r := range rows {
		if err := tab.AppendRow(r...); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	return tab
}

func TestQualityOrdersWorstColumnsFirst(t *testing.T) {
	tab := mkTable(t,
		[]string{"Place", "Width", "Sex", "Shock"},
		[]table.Value{table.Text("Urban"), table.Number(6.5), table.Text("M"), table.Text("front")},
		[]table.Value{table.Text("Urban"), table.Missing(), table.Text("F"), table.Number(3)},
		[]table.Value{table.Text("Rural"), table.Missing(), table.Text("F"), table.Missing()},
		[]table.Value{table.Missing(), table.Missing(), table.Text("M"), table.Missing()},
	)

	got := Quality(tab)
	wantOrder := []string{"Width", "Shock", "Place", "Sex"}
	for i, name := range wantOrder {
		if got[i].Column != name {
			t.Fatalf("row %d column = %q, want %q (full: %+v)", i, got[i].Column, name, got)
		}
	}

	width := got[0]
	if width.Kind != "number" || width.NonNull != 1 || width.NullPct != 75 {
		t.Errorf("Width = %+v, want number/1/75", width)
	}
	if width.NUnique != -1 || width.Examples != nil {
		t.Errorf("Width profile = %d/%v, want none", width.NUnique, width.Examples)
	}

	shock := got[1]
	if shock.Kind != "mixed" || shock.NUnique != 2 {
		t.Errorf("Shock = %+v, want mixed with 2 distinct values", shock)
	}
	if !reflect.DeepEqual(shock.Examples, []string{"front", "3"}) {
		t.Errorf("Shock examples = %v", shock.Examples)
	}

	place := got[2]
	if place.NullPct != 25 || place.NUnique != 2 {
		t.Errorf("Place = %+v, want 25%% null and 2 distinct", place)
	}
	if !reflect.DeepEqual(place.Examples, []string{"Urban", "Rural"}) {
		t.Errorf("Place examples = %v, want first-seen order", place.Examples)
	}

	sex := got[3]
	if sex.NullPct != 0 || sex.NonNull != 4 {
		t.Errorf("Sex = %+v, want fully populated", sex)
	}
}

func TestQualityRoundsNullPct(t *testing.T) {
	tab := mkTable(t,
		[]string{"a"},
		[]table.Value{table.Text("x")},
		[]table.Value{table.Text("y")},
		[]table.Value{table.Missing()},
	)
	got := Quality(tab)
	if got[0].NullPct != 33.33 {
		t.Fatalf("NullPct = %v, want 33.33", got[0].NullPct)
	}
}

func TestQualityCapsExamplesAtThree(t *testing.T) {
	tab := mkTable(t,
		[]string{"c"},
		[]table.Value{table.Text("a")},
		[]table.Value{table.Text("b")},
		[]table.Value{table.Text("c")},
		[]table.Value{table.Text("d")},
		[]table.Value{table.Text("b")},
	)
	got := Quality(tab)
	if got[0].NUnique != 4 {
		t.Fatalf("NUnique = %d, want 4", got[0].NUnique)
	}
	if !reflect.DeepEqual(got[0].Examples, []string{"a", "b", "c"}) {
		t.Fatalf("Examples = %v, want first three distinct", got[0].Examples)
	}
}

func TestQualityTableBlanksUnprofiledColumns(t *testing.T) {
	tab := QualityTable([]ColumnQuality{
		{Column: "Width", Kind: "number", NonNull: 1, NullPct: 75, NUnique: -1},
		{Column: "Place", Kind: "text", NonNull: 3, NullPct: 25, NUnique: 2, Examples: []string{"Urban", "Rural"}},
	})

	if got := tab.Columns(); !reflect.DeepEqual(got, []string{"column", "kind", "non_null", "null_pct", "n_unique", "examples"}) {
		t.Fatalf("columns = %v", got)
	}

	if v, _ := tab.At(0, "n_unique"); !v.IsMissing() {
		t.Errorf("Width n_unique = %v, want missing", v)
	}
	if v, _ := tab.At(0, "examples"); !v.IsMissing() {
		t.Errorf("Width examples = %v, want missing", v)
	}
	if v, _ := tab.At(1, "examples"); v.String() != "Urban, Rural" {
		t.Errorf("Place examples = %q", v.String())
	}
	if v, _ := tab.At(1, "n_unique"); !v.Equal(table.Number(2)) {
		t.Errorf("Place n_unique = %v", v)
	}
}
