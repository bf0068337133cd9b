package explode

import "fmt"

// AlignmentError reports unequal per-row token counts in strict mode. Row is
// the zero-based index of the offending row in the input table; Lengths holds
// the distinct token counts observed there, ascending.
//
// The error aborts the whole table-level call: there is no partial output to
// recover, and retrying without changing the input cannot succeed.
type AlignmentError struct {
	Row     int
	Lengths []int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("row %d: unequal token counts %v", e.Row, e.Lengths)
}

// EmptyTokenSetError reports that a column produced no tokens across the
// entire table where a consumer required at least one (token frequency
// reporting).
type EmptyTokenSetError struct {
	Column string
}

func (e *EmptyTokenSetError) Error() string {
	return fmt.Sprintf("column %q yields no tokens", e.Column)
}
