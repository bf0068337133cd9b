package report

import (
	"errors"
	"reflect"
	"testing"

	"crashprep/internal/explode"
	"crashprep/internal/table"
)

func TestCategoryCountsBucketsMissingAsNA(t *testing.T) {
	tab := mkTable(t,
		[]string{"Place"},
		[]table.Value{table.Text("Urban")},
		[]table.Value{table.Text("Urban")},
		[]table.Value{table.Text("Urban")},
		[]table.Value{table.Missing()},
		[]table.Value{table.Missing()},
		[]table.Value{table.Text("Rural")},
	)

	got, err := CategoryCounts(tab, "Place", 0)
	if err != nil {
		t.Fatalf("CategoryCounts: %v", err)
	}
	want := []CategoryCount{
		{Value: "Urban", Count: 3, Share: 0.5},
		{Value: "NA", Count: 2, Share: 1.0 / 3},
		{Value: "Rural", Count: 1, Share: 1.0 / 6},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("counts = %+v, want %+v", got, want)
	}
}

func TestCategoryCountsBreaksTiesAlphabetically(t *testing.T) {
	tab := mkTable(t,
		[]string{"c"},
		[]table.Value{table.Text("zebra")},
		[]table.Value{table.Text("apple")},
		[]table.Value{table.Text("zebra")},
		[]table.Value{table.Text("apple")},
	)
	got, err := CategoryCounts(tab, "c", 0)
	if err != nil {
		t.Fatalf("CategoryCounts: %v", err)
	}
	if got[0].Value != "apple" || got[1].Value != "zebra" {
		t.Fatalf("tie order = %q, %q; want alphabetical", got[0].Value, got[1].Value)
	}
}

func TestCategoryCountsTopN(t *testing.T) {
	tab := mkTable(t,
		[]string{"c"},
		[]table.Value{table.Text("a")},
		[]table.Value{table.Text("a")},
		[]table.Value{table.Text("b")},
		[]table.Value{table.Text("d")},
	)
	got, err := CategoryCounts(tab, "c", 1)
	if err != nil {
		t.Fatalf("CategoryCounts: %v", err)
	}
	if len(got) != 1 || got[0].Value != "a" || got[0].Count != 2 {
		t.Fatalf("topN result = %+v", got)
	}
}

func TestCategoryCountsUnknownColumn(t *testing.T) {
	tab := mkTable(t, []string{"c"}, []table.Value{table.Text("a")})
	_, err := CategoryCounts(tab, "nope", 0)
	var cnf *table.ColumnNotFoundError
	if !errors.As(err, &cnf) || cnf.Column != "nope" {
		t.Fatalf("err = %v, want ColumnNotFoundError for nope", err)
	}
}

func TestTokenCountsRanksAcrossRows(t *testing.T) {
	tab := mkTable(t,
		[]string{"Security_measures"},
		[]table.Value{table.Text("Seat Belt|Helmet")},
		[]table.Value{table.Text("Helmet")},
		[]table.Value{table.Missing()},
		[]table.Value{table.Text("Helmet|Gloves")},
	)

	got, err := TokenCounts(tab, "Security_measures", '|', 0)
	if err != nil {
		t.Fatalf("TokenCounts: %v", err)
	}
	want := []TokenCount{
		{Token: "Helmet", Count: 3, Share: 0.6},
		{Token: "Gloves", Count: 1, Share: 0.2},
		{Token: "Seat Belt", Count: 1, Share: 0.2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("counts = %+v, want %+v", got, want)
	}
}

func TestTokenCountsTopNKeepsFullShares(t *testing.T) {
	tab := mkTable(t,
		[]string{"c"},
		[]table.Value{table.Text("a,a,b")},
		[]table.Value{table.Text("a,c")},
	)
	got, err := TokenCounts(tab, "c", ',', 1)
	if err != nil {
		t.Fatalf("TokenCounts: %v", err)
	}
	if len(got) != 1 || got[0].Token != "a" || got[0].Count != 3 || got[0].Share != 0.6 {
		t.Fatalf("topN result = %+v, want a/3/0.6 of all five tokens", got)
	}
}

func TestTokenCountsEmptyColumn(t *testing.T) {
	tab := mkTable(t,
		[]string{"c"},
		[]table.Value{table.Missing()},
		[]table.Value{table.Text("  ")},
	)
	_, err := TokenCounts(tab, "c", ',', 0)
	var empty *explode.EmptyTokenSetError
	if !errors.As(err, &empty) || empty.Column != "c" {
		t.Fatalf("err = %v, want EmptyTokenSetError for c", err)
	}
}

func TestCountTablesRoundShares(t *testing.T) {
	cat := CategoryTable([]CategoryCount{{Value: "NA", Count: 2, Share: 1.0 / 3}})
	if v, _ := cat.At(0, "share"); !v.Equal(table.Number(0.3333)) {
		t.Errorf("category share = %v, want 0.3333", v)
	}

	tok := TokenTable([]TokenCount{{Token: "Helmet", Count: 1, Share: 1.0 / 7}})
	if v, _ := tok.At(0, "share"); !v.Equal(table.Number(0.1429)) {
		t.Errorf("token share = %v, want 0.1429", v)
	}
	if got := tok.Columns(); !reflect.DeepEqual(got, []string{"token", "count", "share"}) {
		t.Errorf("token table columns = %v", got)
	}
}
