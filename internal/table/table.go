package table

import "fmt"

// Table is an ordered set of named columns over ordered rows.
//
// Construction is append-only: create with New, fill with AppendRow. Every
// other method is read-only or derives a new table. Column order is insertion
// order and row order is preserved by all operations.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]Value
}

// New creates an empty table with the given column order. Column names must
// be non-empty and unique.
func New(columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table: at least one column required")
	}
	cols := make([]string, len(columns))
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("table: column %d has an empty name", i)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c)
		}
		cols[i] = c
		index[c] = i
	}
	return &Table{cols: cols, index: index}, nil
}

// MustNew is New for static column sets; it panics on invalid names.
func MustNew(columns ...string) *Table {
	t, err := New(columns)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns the column names in order. The slice is a copy.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// ColumnName returns the name of column c.
func (t *Table) ColumnName(c int) string { return t.cols[c] }

// ColumnIndex returns the position of the named column and whether it exists.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AppendRow adds one row with one value per column.
//
// The table takes ownership of vals: callers spreading a slice
// (AppendRow(row...)) must not reuse or modify that slice afterwards.
func (t *Table) AppendRow(vals ...Value) error {
	if len(vals) != len(t.cols) {
		return fmt.Errorf("table: row has %d values, want %d", len(vals), len(t.cols))
	}
	t.rows = append(t.rows, vals)
	return nil
}

// At returns the cell at (row, column name); ok is false when either does
// not exist.
func (t *Table) At(row int, column string) (Value, bool) {
	c, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return Value{}, false
	}
	return t.rows[row][c], true
}

// AtIndex returns the cell at (row, col) by position. Out-of-range indexes
// panic with slice semantics; hot loops resolve positions once via
// ColumnIndex and then use this accessor.
func (t *Table) AtIndex(row, col int) Value {
	return t.rows[row][col]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// Column returns a copy of the named column's cells, in row order.
func (t *Table) Column(name string) ([]Value, bool) {
	c, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i := range t.rows {
		out[i] = t.rows[i][c]
	}
	return out, true
}

// AddColumn returns a new table with one extra column appended on the right.
// values must hold exactly one cell per row. The receiver is unchanged.
func (t *Table) AddColumn(name string, values []Value) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table: empty column name")
	}
	if t.HasColumn(name) {
		return nil, fmt.Errorf("table: column %q already exists", name)
	}
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("table: column %q has %d values, want %d rows", name, len(values), len(t.rows))
	}
	out, err := New(append(t.Columns(), name))
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		row := make([]Value, len(r)+1)
		copy(row, r)
		row[len(r)] = values[i]
		out.rows[i] = row
	}
	return out, nil
}

// SetColumn returns a new table where the named column holds values,
// replacing the column in place when it exists and appending it on the right
// otherwise. values must hold exactly one cell per row.
func (t *Table) SetColumn(name string, values []Value) (*Table, error) {
	if t.HasColumn(name) {
		return t.WithColumnValues(name, values)
	}
	return t.AddColumn(name, values)
}

// WithColumnValues returns a new table identical to the receiver except that
// the named column's cells are replaced by values, one per row.
func (t *Table) WithColumnValues(name string, values []Value) (*Table, error) {
	c, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("table: column %q not found", name)
	}
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("table: column %q has %d values, want %d rows", name, len(values), len(t.rows))
	}
	out, err := New(t.cols)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		row := make([]Value, len(r))
		copy(row, r)
		row[c] = values[i]
		out.rows[i] = row
	}
	return out, nil
}

// Clone returns a table with the same columns and rows. Row storage is
// shared: rows are write-once, so sharing is safe under the AppendRow
// ownership rule.
func (t *Table) Clone() *Table {
	out, err := New(t.cols)
	if err != nil {
		// t was built through New, so its columns are valid.
		panic(err)
	}
	out.rows = make([][]Value, len(t.rows))
	copy(out.rows, t.rows)
	return out
}

// Equal reports whether two tables have identical column order and cells.
func (t *Table) Equal(o *Table) bool {
	if o == nil || t.NumCols() != o.NumCols() || t.NumRows() != o.NumRows() {
		return false
	}
	for i, c := range t.cols {
		if o.cols[i] != c {
			return false
		}
	}
	for i := range t.rows {
		for j := range t.rows[i] {
			if !t.rows[i][j].Equal(o.rows[i][j]) {
				return false
			}
		}
	}
	return true
}
