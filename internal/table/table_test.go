package table

import "testing"

func mustRow(t *testing.T, tb *Table, vals ...Value) {
	t.Helper()
	if err := tb.AppendRow(vals...); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
}

func TestNew_RejectsBadColumns(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("New(nil): want error, got nil")
	}
	if _, err := New([]string{"a", ""}); err == nil {
		t.Fatalf("New with empty name: want error, got nil")
	}
	if _, err := New([]string{"a", "b", "a"}); err == nil {
		t.Fatalf("New with duplicate: want error, got nil")
	}
}

func TestAppendRow_ArityChecked(t *testing.T) {
	tb := MustNew("a", "b")
	if err := tb.AppendRow(Text("x")); err == nil {
		t.Fatalf("short row: want error, got nil")
	}
	if err := tb.AppendRow(Text("x"), Text("y"), Text("z")); err == nil {
		t.Fatalf("long row: want error, got nil")
	}
	mustRow(t, tb, Text("x"), Text("y"))
	if got := tb.NumRows(); got != 1 {
		t.Fatalf("NumRows = %d, want 1", got)
	}
}

func TestAt_And_Column(t *testing.T) {
	tb := MustNew("name", "count")
	mustRow(t, tb, Text("belt"), Number(3))
	mustRow(t, tb, Missing(), Number(4))

	v, ok := tb.At(0, "name")
	if !ok || v.String() != "belt" {
		t.Fatalf("At(0,name) = %v ok=%v, want belt", v, ok)
	}
	if _, ok := tb.At(0, "nope"); ok {
		t.Fatalf("At on unknown column: want ok=false")
	}
	if _, ok := tb.At(5, "name"); ok {
		t.Fatalf("At on out-of-range row: want ok=false")
	}

	col, ok := tb.Column("count")
	if !ok || len(col) != 2 {
		t.Fatalf("Column(count): ok=%v len=%d, want 2 values", ok, len(col))
	}
	if f, _ := col[1].Number(); f != 4 {
		t.Fatalf("Column(count)[1] = %v, want 4", col[1])
	}
}

func TestAddColumn_DoesNotTouchReceiver(t *testing.T) {
	tb := MustNew("a")
	mustRow(t, tb, Text("x"))
	mustRow(t, tb, Text("y"))

	out, err := tb.AddColumn("b", []Value{Number(1), Number(2)})
	if err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if got := out.NumCols(); got != 2 {
		t.Fatalf("out.NumCols = %d, want 2", got)
	}
	if got := tb.NumCols(); got != 1 {
		t.Fatalf("receiver grew a column: NumCols = %d, want 1", got)
	}
	if _, err := tb.AddColumn("a", []Value{Missing(), Missing()}); err == nil {
		t.Fatalf("AddColumn with existing name: want error")
	}
	if _, err := tb.AddColumn("c", []Value{Missing()}); err == nil {
		t.Fatalf("AddColumn with wrong length: want error")
	}
}

func TestWithColumnValues_ReplacesOnlyThatColumn(t *testing.T) {
	tb := MustNew("a", "b")
	mustRow(t, tb, Text("1"), Text("keep"))
	mustRow(t, tb, Text("2"), Text("keep"))

	out, err := tb.WithColumnValues("a", []Value{Number(1), Number(2)})
	if err != nil {
		t.Fatalf("WithColumnValues: %v", err)
	}
	if v, _ := out.At(0, "a"); v.Kind() != KindNumber {
		t.Fatalf("out a[0] kind = %v, want number", v.Kind())
	}
	if v, _ := out.At(1, "b"); v.String() != "keep" {
		t.Fatalf("out b[1] = %q, want keep", v.String())
	}
	if v, _ := tb.At(0, "a"); v.Kind() != KindText {
		t.Fatalf("receiver mutated: a[0] kind = %v, want text", v.Kind())
	}
	if _, err := tb.WithColumnValues("zzz", nil); err == nil {
		t.Fatalf("unknown column: want error")
	}
}

func TestClone_AppendsStayLocal(t *testing.T) {
	tb := MustNew("a")
	mustRow(t, tb, Text("x"))

	cp := tb.Clone()
	mustRow(t, cp, Text("y"))

	if got := tb.NumRows(); got != 1 {
		t.Fatalf("original NumRows = %d after clone append, want 1", got)
	}
	if got := cp.NumRows(); got != 2 {
		t.Fatalf("clone NumRows = %d, want 2", got)
	}
}

func TestEqual(t *testing.T) {
	a := MustNew("x", "y")
	mustRow(t, a, Text("1"), Number(2))
	b := MustNew("x", "y")
	mustRow(t, b, Text("1"), Number(2))
	if !a.Equal(b) {
		t.Fatalf("identical tables reported unequal")
	}
	c := MustNew("x", "y")
	mustRow(t, c, Text("1"), Number(3))
	if a.Equal(c) {
		t.Fatalf("different cells reported equal")
	}
	d := MustNew("y", "x")
	mustRow(t, d, Text("1"), Number(2))
	if a.Equal(d) {
		t.Fatalf("different column order reported equal")
	}
}

func TestValue_StringForms(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Missing(), ""},
		{Text("Seat Belt"), "Seat Belt"},
		{Number(3), "3"},
		{Number(2.5), "2.5"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Fatalf("String(%v) = %q, want %q", c.v.Kind(), got, c.want)
		}
	}
}

func TestFromAny(t *testing.T) {
	if v := FromAny(nil); !v.IsMissing() {
		t.Fatalf("FromAny(nil) = %v, want missing", v.Kind())
	}
	if v := FromAny(int64(7)); v.Kind() != KindNumber {
		t.Fatalf("FromAny(int64) kind = %v, want number", v.Kind())
	}
	if v := FromAny([]byte("ab")); v.String() != "ab" {
		t.Fatalf("FromAny([]byte) = %q, want ab", v.String())
	}
	if v := FromAny(true); v.String() != "true" {
		t.Fatalf("FromAny(true) = %q, want true", v.String())
	}
}
