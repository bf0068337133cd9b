// Package explode implements the multi-value alignment and explosion engine
// for tabular records whose columns pack parallel lists into delimited
// strings:
//
//   - Tokenize splits one delimited cell into trimmed, non-empty tokens.
//   - DetectMultiValue flags columns whose cells carry the delimiter often
//     enough to be treated as multi-valued.
//   - Align turns one row's per-column token sequences into positionally
//     aligned tuples, right-padding or failing on length mismatch.
//   - Explode expands every table row into one row per aligned tuple.
//   - OneHot adds frequency-gated indicator columns for a column's tokens.
//
// Every function is pure: tables go in, new tables come out, and inputs are
// never modified. Nothing here performs I/O or retains state between calls.
package explode

import (
	"sync"

	"crashprep/internal/table"
)

// Options configures Explode. The zero value splits on ',', pads unequal
// token counts, drops rows with no aligned tuples, and runs serially.
type Options struct {
	// Delimiter is the single-rune separator. 0 means ','.
	Delimiter rune

	// KeepEmptyRows retains a row whose selected columns produce no aligned
	// tuples, emitting it once with every selected column set to missing.
	// When false such rows are dropped.
	KeepEmptyRows bool

	// Strict fails the whole call with *AlignmentError when a row's selected
	// columns disagree on token count, instead of right-padding.
	Strict bool

	// Workers caps the number of goroutines processing row ranges. Values
	// below 2 run serially. Output rows and errors are identical either way:
	// rows keep origin order, and on strict failure the error for the
	// smallest offending row index is returned.
	Workers int
}

// Explode expands every row of t into one row per aligned tuple over the
// selected columns.
//
// Per original row, in order: each selected cell is tokenized, the sequences
// are aligned (padding or strict per Options), and one output row is emitted
// per surviving tuple: unselected columns copied verbatim, selected column i
// carrying tuple position i (padding placeholders become missing). A row with
// no tuples is dropped, or kept once with the selected columns missing when
// KeepEmptyRows is set.
//
// Output order is origin-row order outer, tuple order inner. Selecting a
// single column is the same algorithm with tuples of length one.
//
// Errors: *table.ColumnNotFoundError when the selection is empty or names an
// absent column, raised before any row work; *AlignmentError propagated
// unchanged from strict alignment, aborting the call with no partial output.
func Explode(t *table.Table, columns []string, opts Options) (*table.Table, error) {
	if len(columns) == 0 {
		return nil, &table.ColumnNotFoundError{}
	}
	colIdx := make([]int, len(columns))
	for i, c := range columns {
		idx, ok := t.ColumnIndex(c)
		if !ok {
			return nil, &table.ColumnNotFoundError{Column: c}
		}
		colIdx[i] = idx
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}

	out, err := table.New(t.Columns())
	if err != nil {
		return nil, err
	}

	nrows := t.NumRows()
	workers := opts.Workers
	if workers > nrows {
		workers = nrows
	}
	if workers < 2 {
		rows, err := explodeRange(t, colIdx, delim, opts, 0, nrows)
		if err != nil {
			return nil, err
		}
		return out, appendRows(out, rows)
	}

	// Rows are independent, so large tables fan out across contiguous row
	// ranges and concatenate in origin order afterwards. Chunks run to
	// completion even when another chunk fails: chunk i's rows all precede
	// chunk j's for i < j, so the first error in chunk order is exactly the
	// error the serial path would have returned.
	chunks := splitRange(nrows, workers)
	results := make([][][]table.Value, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	for i, ch := range chunks {
		wg.Add(1)
		go func(i, lo, hi int) {
			defer wg.Done()
			results[i], errs[i] = explodeRange(t, colIdx, delim, opts, lo, hi)
		}(i, ch[0], ch[1])
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	for _, rows := range results {
		if err := appendRows(out, rows); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// explodeRange processes rows [lo, hi) and returns the produced output rows.
// It stops at the first alignment failure in its range.
func explodeRange(t *table.Table, colIdx []int, delim rune, opts Options, lo, hi int) ([][]table.Value, error) {
	out := make([][]table.Value, 0, hi-lo)
	seqs := make([][]string, len(colIdx))

	for r := lo; r < hi; r++ {
		for i, c := range colIdx {
			seqs[i] = Tokenize(t.AtIndex(r, c), delim)
		}

		tuples, err := Align(r, seqs, opts.Strict)
		if err != nil {
			return nil, err
		}

		if len(tuples) == 0 {
			if !opts.KeepEmptyRows {
				continue
			}
			row := t.Row(r)
			for _, c := range colIdx {
				row[c] = table.Missing()
			}
			out = append(out, row)
			continue
		}

		for _, tuple := range tuples {
			row := t.Row(r)
			for i, c := range colIdx {
				if tuple[i] == "" {
					row[c] = table.Missing()
				} else {
					row[c] = table.Text(tuple[i])
				}
			}
			out = append(out, row)
		}
	}
	return out, nil
}

func appendRows(dst *table.Table, rows [][]table.Value) error {
	for _, row := range rows {
		if err := dst.AppendRow(row...); err != nil {
			return err
		}
	}
	return nil
}

// splitRange cuts [0, n) into at most k contiguous chunks of near-equal size.
func splitRange(n, k int) [][2]int {
	if k > n {
		k = n
	}
	out := make([][2]int, 0, k)
	size, rem := n/k, n%k
	lo := 0
	for i := 0; i < k; i++ {
		hi := lo + size
		if i < rem {
			hi++
		}
		out = append(out, [2]int{lo, hi})
		lo = hi
	}
	return out
}
