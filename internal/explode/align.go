package explode

import (
	"sort"
	"strings"
)

// Align combines one row's per-column token sequences into positionally
// aligned tuples.
//
// row is the zero-based index of the source row, passed in explicitly and
// used only for error reporting. seqs holds one token sequence per selected
// column, in column order; that order becomes tuple position order.
//
// Padding mode (strict=false) right-pads shorter sequences with "" up to the
// longest length; existing tokens are never dropped or reordered. Strict mode
// fails with *AlignmentError when the sequences disagree on length.
//
// Tuples whose entries are all empty or blank after trimming are discarded:
// that alignment position carries no real data. Tokens are non-empty by
// construction, so "" unambiguously marks a padding placeholder; Explode maps
// it to a missing cell.
func Align(row int, seqs [][]string, strict bool) ([][]string, error) {
	maxLen := 0
	for _, s := range seqs {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	if maxLen == 0 {
		return nil, nil
	}

	if strict {
		if distinct := distinctLengths(seqs); len(distinct) > 1 {
			return nil, &AlignmentError{Row: row, Lengths: distinct}
		}
	}

	tuples := make([][]string, 0, maxLen)
	for p := 0; p < maxLen; p++ {
		tuple := make([]string, len(seqs))
		blank := true
		for i, s := range seqs {
			if p < len(s) {
				tuple[i] = s[p]
				if strings.TrimSpace(s[p]) != "" {
					blank = false
				}
			}
		}
		if blank {
			continue
		}
		tuples = append(tuples, tuple)
	}
	return tuples, nil
}

func distinctLengths(seqs [][]string) []int {
	seen := make(map[int]struct{}, len(seqs))
	out := make([]int, 0, len(seqs))
	for _, s := range seqs {
		if _, ok := seen[len(s)]; ok {
			continue
		}
		seen[len(s)] = struct{}{}
		out = append(out, len(s))
	}
	sort.Ints(out)
	return out
}
