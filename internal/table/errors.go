package table

import "fmt"

// ColumnNotFoundError reports a reference to a column the table does not
// have (or an empty selection where at least one column is required). Table
// operations across the module return it before any row processing starts,
// so a failed call has done no work.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Column == "" {
		return "no columns selected"
	}
	return fmt.Sprintf("column %q not found", e.Column)
}
